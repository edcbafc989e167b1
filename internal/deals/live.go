package deals

import (
	"encoding/json"
	"strconv"

	"github.com/skewmarket/skewd/internal/domain"
	"github.com/skewmarket/skewd/internal/normalize"
)

// TokenKeys collects every outcome token across the scored events, in event
// order, for the odds feed subscription.
func TokenKeys(events []domain.ScoredEvent) []string {
	var keys []string
	for i := range events {
		for _, market := range events[i].Markets {
			for _, id := range market.TokenIDs {
				if id != "" {
					keys = append(keys, id)
				}
			}
		}
	}
	return keys
}

// MergeLivePrices overlays streamed outcome prices onto display copies of the
// events. The stored event list is never mutated: scores stay pinned to the
// poll-time prices, only the rendered quotes move between polls.
func MergeLivePrices(events []domain.ScoredEvent, live map[string]float64) []domain.ScoredEvent {
	if len(live) == 0 {
		return events
	}

	out := make([]domain.ScoredEvent, len(events))
	copy(out, events)
	for i := range out {
		merged := mergeEventMarkets(out[i].Markets, live)
		if merged != nil {
			out[i].Markets = merged
		}
	}
	return out
}

// mergeEventMarkets returns a rewritten market slice, or nil when no live
// price applied.
func mergeEventMarkets(markets []domain.Market, live map[string]float64) []domain.Market {
	changed := false
	out := make([]domain.Market, len(markets))
	copy(out, markets)

	for i := range out {
		market := &out[i]
		if len(market.TokenIDs) == 0 {
			continue
		}
		prices, ok := normalize.ParsePrices(market.OutcomePrices)
		if !ok {
			continue
		}

		marketChanged := false
		for oi, id := range market.TokenIDs {
			if oi >= len(prices) {
				break
			}
			if price, ok := live[id]; ok {
				prices[oi] = price
				marketChanged = true
			}
		}
		if marketChanged {
			market.OutcomePrices = encodePrices(prices)
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return out
}

// encodePrices serializes prices back to the upstream string-array form.
func encodePrices(prices []float64) string {
	strs := make([]string, len(prices))
	for i, p := range prices {
		strs[i] = strconv.FormatFloat(p, 'f', -1, 64)
	}
	data, err := json.Marshal(strs)
	if err != nil {
		return ""
	}
	return string(data)
}
