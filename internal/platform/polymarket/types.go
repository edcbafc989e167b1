package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/skewmarket/skewd/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether a flag is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or a numeric string. Anything else
// decodes as zero rather than failing the whole event list.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(n)
	return nil
}

// stringList unmarshals from either a JSON array of strings or a
// JSON-encoded string of one ("[\"Yes\",\"No\"]"). The Gamma API uses both
// encodings for outcomes and clobTokenIds depending on the endpoint.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var direct []string
	if err := json.Unmarshal(data, &direct); err == nil {
		*l = direct
		return nil
	}
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return err
	}
	var nested []string
	if err := json.Unmarshal([]byte(encoded), &nested); err != nil {
		*l = nil
		return nil
	}
	*l = nested
	return nil
}

// rawString preserves a field as its JSON text: strings stay as-is, arrays
// are re-encoded. Used for outcomePrices, which downstream code parses lazily.
type rawString string

func (r *rawString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = rawString(s)
		return nil
	}
	*r = rawString(data)
	return nil
}

// APITag is one tag entry on a Gamma event.
type APITag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// APIMarket is a sub-market inside a Gamma event response.
type APIMarket struct {
	ID             string     `json:"id"`
	Question       string     `json:"question"`
	GroupItemTitle string     `json:"groupItemTitle"`
	Outcomes       stringList `json:"outcomes"`
	OutcomePrices  rawString  `json:"outcomePrices"`
	ClobTokenIDs   stringList `json:"clobTokenIds"`
	Active         *flexBool  `json:"active"` // absent means active
	Closed         bool       `json:"closed"`
}

// APIEvent is an event as returned by the Gamma /events endpoint. An event
// groups one or more related markets.
type APIEvent struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Slug      string      `json:"slug"`
	Image     string      `json:"image"`
	Category  string      `json:"category"`
	Tags      []APITag    `json:"tags"`
	Volume    flexFloat   `json:"volume"`
	Liquidity flexFloat   `json:"liquidity"`
	EndDate   string      `json:"endDate"`
	Active    *flexBool   `json:"active"`
	Closed    bool        `json:"closed"`
	Markets   []APIMarket `json:"markets"`
}

// ToDomain converts the API event to the domain representation. Flags the API
// omits default to active, matching how the listing endpoint behaves.
func (e *APIEvent) ToDomain() domain.MarketEvent {
	ev := domain.MarketEvent{
		ID:        e.ID,
		Title:     e.Title,
		Slug:      e.Slug,
		Image:     e.Image,
		Category:  e.Category,
		Volume:    float64(e.Volume),
		Liquidity: float64(e.Liquidity),
		EndDate:   e.EndDate,
		Active:    boolOrTrue(e.Active),
		Closed:    e.Closed,
	}
	for _, t := range e.Tags {
		ev.Tags = append(ev.Tags, domain.Tag{ID: t.ID, Label: t.Label})
	}
	for i := range e.Markets {
		m := &e.Markets[i]
		ev.Markets = append(ev.Markets, domain.Market{
			ID:             m.ID,
			Question:       m.Question,
			GroupItemTitle: m.GroupItemTitle,
			Outcomes:       []string(m.Outcomes),
			OutcomePrices:  string(m.OutcomePrices),
			TokenIDs:       []string(m.ClobTokenIDs),
			Active:         boolOrTrue(m.Active),
			Closed:         m.Closed,
		})
	}
	return ev
}

func boolOrTrue(f *flexBool) bool {
	if f == nil {
		return true
	}
	return bool(*f)
}
