// Package domain defines the core types shared across the skewd analytics
// pipeline: upstream market events, derived scores, feed state, lag signals,
// and the alpha ledger. It has no dependencies on transport or storage.
package domain

// Tag is a free-form label attached to an event by the upstream API.
type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Market is one tradable sub-market of an event. OutcomePrices is kept in its
// raw serialized form; normalize.ParsePrices is the only sanctioned way to
// read it, so malformed price lists degrade to "priceless" instead of failing.
type Market struct {
	ID             string   `json:"id"`
	Question       string   `json:"question"`
	GroupItemTitle string   `json:"groupItemTitle,omitempty"`
	Outcomes       []string `json:"outcomes"`
	OutcomePrices  string   `json:"outcomePrices"`
	TokenIDs       []string `json:"clobTokenIds"`
	Active         bool     `json:"active"`
	Closed         bool     `json:"closed"`
}

// MarketEvent is an upstream prediction-market event with its ordered list of
// sub-markets. EndDate stays a raw string; normalize.DaysUntil and
// normalize.IsFuture own its interpretation.
type MarketEvent struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	Image     string   `json:"image,omitempty"`
	Category  string   `json:"category,omitempty"`
	Tags      []Tag    `json:"tags,omitempty"`
	Volume    float64  `json:"volume"`
	Liquidity float64  `json:"liquidity"`
	EndDate   string   `json:"endDate,omitempty"`
	Active    bool     `json:"active"`
	Closed    bool     `json:"closed"`
	Markets   []Market `json:"markets"`
}

// Key returns the stable identifier for the event: the upstream ID when
// present, otherwise the slug.
func (e *MarketEvent) Key() string {
	if e.ID != "" {
		return e.ID
	}
	return e.Slug
}
