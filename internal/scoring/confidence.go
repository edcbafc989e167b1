package scoring

import (
	"time"

	"github.com/skewmarket/skewd/internal/domain"
	"github.com/skewmarket/skewd/internal/normalize"
)

// Confidence computes the trust score for an event. It starts at 100 and is
// docked for low volume, low liquidity, imminent expiry, and incoherent price
// sums, clamped at zero.
func Confidence(event *domain.MarketEvent, now time.Time) domain.Confidence {
	c := domain.Confidence{ConfidencePct: 100}
	if event == nil {
		c.Level = levelFor(c.ConfidencePct)
		return c
	}

	if event.Volume < 50_000 {
		c.ConfidencePct -= 15
		c.Warnings = append(c.Warnings, "Low volume")
	}
	if event.Liquidity < 25_000 {
		c.ConfidencePct -= 20
		c.Warnings = append(c.Warnings, "Low liquidity")
	}
	if daysLeft := normalize.DaysUntil(event.EndDate, now); daysLeft != nil && *daysLeft < 1 {
		c.ConfidencePct -= 30
		c.Warnings = append(c.Warnings, "Ending very soon")
	}

	if market := normalize.ActiveMarket(event); market != nil {
		if prices, ok := normalize.ParsePrices(market.OutcomePrices); ok {
			var sum float64
			for _, p := range prices {
				sum += p
			}
			if sum < 0.9 || sum > 1.1 {
				c.ConfidencePct -= 10
				c.Warnings = append(c.Warnings, "Price spread unusual")
			}
		}
	}

	if c.ConfidencePct < 0 {
		c.ConfidencePct = 0
	}
	c.Level = levelFor(c.ConfidencePct)
	return c
}

func levelFor(pct int) domain.ConfidenceLevel {
	switch {
	case pct >= 80:
		return domain.ConfidenceHigh
	case pct >= 50:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}
