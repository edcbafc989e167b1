package scoring

import (
	"math"

	"github.com/skewmarket/skewd/internal/domain"
	"github.com/skewmarket/skewd/internal/normalize"
)

// Mispricing measures how far the quoted outcome prices deviate from a
// coherent probability distribution (summing to 1).
//
// Multi mode applies when at least two sub-markets carry valid prices: the
// first-outcome prices across sub-markets should sum to 1. Binary mode checks
// the active market's own outcome prices. Binary is used as a fallback when
// multi mode is inapplicable or yields an edge below the reporting threshold.
func Mispricing(event *domain.MarketEvent, p Params) domain.Mispricing {
	if event == nil || len(event.Markets) == 0 {
		return domain.Mispricing{}
	}

	var (
		edge float64
		mode = domain.MispricingModeNone
	)

	if len(event.Markets) >= 2 {
		var yesSum float64
		var priced int
		for i := range event.Markets {
			prices, ok := normalize.ParsePrices(event.Markets[i].OutcomePrices)
			if !ok {
				continue
			}
			yesSum += prices[0]
			priced++
		}
		if priced >= 2 {
			deviation := math.Abs(1-yesSum) * 100
			if deviation <= p.MultiDeviationMax {
				edge = deviation
				mode = domain.MispricingModeMulti
			}
		}
	}

	if mode == domain.MispricingModeNone || edge < p.EdgeThreshold {
		if prices, ok := activePrices(event); ok {
			var sum float64
			for _, v := range prices {
				sum += v
			}
			binaryEdge := math.Abs(1-sum) * 100
			if binaryEdge > edge {
				edge = binaryEdge
				mode = domain.MispricingModeBinary
			}
		}
	}

	if edge == 0 || mode == domain.MispricingModeNone {
		return domain.Mispricing{}
	}

	result := domain.Mispricing{EdgePercent: edge, Mode: mode}
	switch {
	case edge > 5:
		result.Score, result.Type = 100, domain.EdgeTypeExtreme
		result.ConfidencePct = pickByMode(mode, 85, 60)
	case edge > 2:
		result.Score, result.Type = 75, domain.EdgeTypeHigh
		result.ConfidencePct = pickByMode(mode, 90, 80)
	case edge > 1:
		result.Score, result.Type = 50, domain.EdgeTypeMedium
		result.ConfidencePct = 95
	case edge > p.EdgeThreshold:
		result.Score, result.Type = 25, domain.EdgeTypeLow
		result.ConfidencePct = 100
	default:
		// Below the reporting threshold: keep the measured edge but score it zero.
		result.ConfidencePct = 100
	}
	return result
}

func pickByMode(mode domain.MispricingMode, multi, binary int) int {
	if mode == domain.MispricingModeMulti {
		return multi
	}
	return binary
}

func activePrices(event *domain.MarketEvent) ([]float64, bool) {
	market := normalize.ActiveMarket(event)
	if market == nil {
		return nil, false
	}
	return normalize.ParsePrices(market.OutcomePrices)
}
