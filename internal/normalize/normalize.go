// Package normalize validates raw upstream market events and extracts
// canonical fields from them. All functions are pure; malformed input is
// reported as "no data", never as an error.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/skewmarket/skewd/internal/domain"
)

// endDateSafetyMargin tolerates events whose end date slipped slightly into
// the past between upstream indexing and our poll.
const endDateSafetyMargin = time.Hour

// ParsePrices deserializes an outcome-price list. The upstream encodes it as
// a JSON array of strings (sometimes numbers). It returns (nil, false) for
// anything that is not an array of at least two finite numbers in [0,1].
func ParsePrices(raw string) ([]float64, bool) {
	if raw == "" {
		return nil, false
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, false
	}
	if len(elems) < 2 {
		return nil, false
	}

	prices := make([]float64, 0, len(elems))
	for _, e := range elems {
		p, ok := parsePriceElem(e)
		if !ok {
			return nil, false
		}
		prices = append(prices, p)
	}
	return prices, true
}

func parsePriceElem(raw json.RawMessage) (float64, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return checkPrice(p)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return checkPrice(f)
}

func checkPrice(p float64) (float64, bool) {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
		return 0, false
	}
	return p, true
}

// ActiveMarket returns the first open sub-market with valid prices, falling
// back to the first priced sub-market regardless of state, then to the first
// sub-market overall. Returns nil only when the event has no markets.
func ActiveMarket(event *domain.MarketEvent) *domain.Market {
	if event == nil || len(event.Markets) == 0 {
		return nil
	}
	for i := range event.Markets {
		m := &event.Markets[i]
		if m.Closed || !m.Active {
			continue
		}
		if _, ok := ParsePrices(m.OutcomePrices); ok {
			return m
		}
	}
	for i := range event.Markets {
		m := &event.Markets[i]
		if _, ok := ParsePrices(m.OutcomePrices); ok {
			return m
		}
	}
	return &event.Markets[0]
}

// DaysUntil returns the days remaining until endDate, floored at zero, or
// nil when the date is absent or unparseable.
func DaysUntil(endDate string, now time.Time) *float64 {
	if endDate == "" {
		return nil
	}
	end, err := parseDate(endDate)
	if err != nil {
		return nil
	}
	days := end.Sub(now).Hours() / 24
	if days < 0 {
		days = 0
	}
	return &days
}

// IsFuture reports whether the date string lies in the future, allowing a
// one-hour safety margin. Absent dates pass; unparseable dates fail.
func IsFuture(dateString string, now time.Time) bool {
	if dateString == "" {
		return true
	}
	d, err := parseDate(dateString)
	if err != nil {
		return false
	}
	return d.After(now.Add(-endDateSafetyMargin))
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05Z0700", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("normalize: unparseable date %q", s)
}

// Validation is the outcome of checking one raw event. Valid is true exactly
// when Issues is empty.
type Validation struct {
	Valid  bool
	Issues []string
}

// Validate runs every acceptance check on a raw event and collects
// human-readable issues for the ones that fail.
func Validate(event *domain.MarketEvent, now time.Time) Validation {
	if event == nil {
		return Validation{Issues: []string{"event is nil"}}
	}

	var issues []string
	if event.Slug == "" {
		issues = append(issues, "missing or invalid slug")
	}
	if len(event.Markets) == 0 {
		issues = append(issues, "no markets available")
	}
	if event.Closed {
		issues = append(issues, "event is closed")
	}
	if !event.Active {
		issues = append(issues, "event is not active")
	}
	if event.EndDate != "" && !IsFuture(event.EndDate, now) {
		issues = append(issues, "event has ended")
	}

	if market := ActiveMarket(event); market == nil {
		issues = append(issues, "no valid market found")
	} else {
		if _, ok := ParsePrices(market.OutcomePrices); !ok {
			issues = append(issues, "invalid outcome prices")
		}
		if market.Closed {
			issues = append(issues, "all markets are closed")
		}
	}

	return Validation{Valid: len(issues) == 0, Issues: issues}
}
