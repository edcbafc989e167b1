package cexlag

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/skewmarket/skewd/internal/domain"
	"github.com/skewmarket/skewd/internal/normalize"
)

// maxDaysForLag bounds the analysis horizon: time blending makes signals on
// longer-dated events meaningless.
const maxDaysForLag = 30

// Analyze scans the event list for crypto threshold questions and returns the
// lag signal for each one with a usable spot price and quote, lagging markets
// first, widest lag first. spotPrices maps symbol (BTC, ETH, SOL) to the live
// exchange price.
func Analyze(events []domain.MarketEvent, spotPrices map[string]float64, now time.Time) []domain.LagSignal {
	var signals []domain.LagSignal

	for i := range events {
		event := &events[i]

		parsed := ParseThreshold(event)
		if parsed == nil {
			continue
		}

		spot, ok := spotPrices[parsed.Symbol]
		if !ok || spot == 0 {
			continue
		}

		market := normalize.ActiveMarket(event)
		if market == nil {
			continue
		}
		prices, ok := normalize.ParsePrices(market.OutcomePrices)
		if !ok {
			continue
		}
		yesPrice := prices[0]

		daysLeft := normalize.DaysUntil(event.EndDate, now)
		if daysLeft != nil && *daysLeft > maxDaysForLag {
			continue
		}

		lag := ComputeLag(spot, parsed.Threshold, parsed.Direction, yesPrice, daysLeft)
		if lag == nil {
			continue
		}

		sig := domain.LagSignal{
			ID:            uuid.NewString(),
			EventID:       event.Key(),
			EventTitle:    event.Title,
			Slug:          event.Slug,
			Symbol:        parsed.Symbol,
			Threshold:     parsed.Threshold,
			Direction:     parsed.Direction,
			SpotPrice:     spot,
			PriceDeltaPct: lag.PriceDeltaPct,
			ImpliedYes:    lag.ImpliedYes,
			ActualYes:     lag.ActualYes,
			LagAmount:     lag.LagAmount,
			LagPct:        lag.LagPct,
			IsLagging:     lag.IsLagging,
			Signal:        lag.Signal,
			Confidence:    lag.Confidence,
			Volume:        event.Volume,
		}
		if len(market.TokenIDs) > 0 {
			sig.TokenID = market.TokenIDs[0]
		}
		signals = append(signals, sig)
	}

	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].IsLagging != signals[j].IsLagging {
			return signals[i].IsLagging
		}
		return signals[i].LagPct > signals[j].LagPct
	})

	return signals
}
