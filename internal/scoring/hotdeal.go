package scoring

import (
	"math"
	"time"

	"github.com/skewmarket/skewd/internal/domain"
	"github.com/skewmarket/skewd/internal/normalize"
)

// HotDeal builds the additive attractiveness score: volume and liquidity
// tiers, a price-uncertainty bonus peaking at 50/50 odds, and a time bonus
// for markets ending within a month. DataQuality starts at 100 and is docked
// for thin or nearly-expired markets.
func HotDeal(event *domain.MarketEvent, now time.Time) domain.HotDeal {
	hd := domain.HotDeal{DataQuality: 100}
	if event == nil {
		return hd
	}

	switch {
	case event.Volume > 1_000_000:
		hd.Score += 30
		hd.Factors = append(hd.Factors, "Very High Volume")
	case event.Volume > 500_000:
		hd.Score += 25
		hd.Factors = append(hd.Factors, "High Volume")
	case event.Volume > 100_000:
		hd.Score += 15
		hd.Factors = append(hd.Factors, "Good Volume")
	case event.Volume < 10_000:
		hd.DataQuality -= 10
	}

	switch {
	case event.Liquidity > 100_000:
		hd.Score += 25
		hd.Factors = append(hd.Factors, "High Liquidity")
	case event.Liquidity > 50_000:
		hd.Score += 15
		hd.Factors = append(hd.Factors, "Good Liquidity")
	case event.Liquidity < 10_000:
		hd.DataQuality -= 15
	}

	if market := normalize.ActiveMarket(event); market != nil {
		if prices, ok := normalize.ParsePrices(market.OutcomePrices); ok {
			uncertainty := 1 - math.Abs(0.5-prices[0])*2
			hd.Score += int(math.Round(uncertainty * 20))
			if uncertainty > 0.8 {
				hd.Factors = append(hd.Factors, "High Uncertainty")
			}
		}
	}

	if daysLeft := normalize.DaysUntil(event.EndDate, now); daysLeft != nil {
		switch {
		case *daysLeft > 1 && *daysLeft < 7:
			hd.Score += 25
			hd.Factors = append(hd.Factors, "Ending Soon")
		case *daysLeft >= 7 && *daysLeft < 30:
			hd.Score += 15
			hd.Factors = append(hd.Factors, "Active Market")
		case *daysLeft < 1:
			hd.DataQuality -= 20
		}
	}

	return hd
}
