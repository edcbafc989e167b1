package cexlag

import (
	"math"

	"github.com/skewmarket/skewd/internal/domain"
)

// Lag is the core comparison between spot and quoted probability before it is
// attached to an event.
type Lag struct {
	PriceDeltaPct float64
	ImpliedYes    float64
	ActualYes     float64
	LagAmount     float64
	LagPct        float64
	IsLagging     bool
	Signal        string
	Confidence    domain.LagConfidence
}

// impliedProbability maps the spot distance from the threshold to a fair yes
// probability using fixed buckets, mirrored for below-threshold questions.
func impliedProbability(priceDeltaPct float64, direction domain.ThresholdDirection) float64 {
	d := priceDeltaPct
	if direction == domain.DirectionBelow {
		d = -d
	}
	switch {
	case d > 5:
		return 0.97
	case d > 2:
		return 0.92
	case d > 0.5:
		return 0.80
	case d > -0.5:
		return 0.55
	case d > -2:
		return 0.30
	case d > -5:
		return 0.10
	default:
		return 0.03
	}
}

// ComputeLag builds the lag comparison for one threshold question. daysLeft
// may be nil when the event has no end date; with more than half a day left
// the implied probability is blended toward 50/50, at full strength 0.6 when
// a week or more remains.
func ComputeLag(spotPrice, threshold float64, direction domain.ThresholdDirection, yesPrice float64, daysLeft *float64) *Lag {
	if spotPrice == 0 || threshold == 0 {
		return nil
	}

	priceDeltaPct := (spotPrice - threshold) / threshold * 100
	implied := impliedProbability(priceDeltaPct, direction)

	if daysLeft != nil && *daysLeft > 0.5 {
		blendStrength := math.Min(*daysLeft/7, 1) * 0.6
		implied = implied*(1-blendStrength) + 0.5*blendStrength
	}

	lagAmount := implied - yesPrice
	lagPct := math.Abs(lagAmount) * 100

	var signal string
	switch {
	case lagAmount > 0.05:
		signal = "BUY YES"
	case lagAmount < -0.05:
		signal = "BUY NO"
	}

	confidence := domain.LagConfidenceLow
	switch {
	case lagPct >= 25 && math.Abs(priceDeltaPct) > 3:
		confidence = domain.LagConfidenceHigh
	case lagPct >= 15 && math.Abs(priceDeltaPct) > 1:
		confidence = domain.LagConfidenceMedium
	}

	return &Lag{
		PriceDeltaPct: priceDeltaPct,
		ImpliedYes:    implied,
		ActualYes:     yesPrice,
		LagAmount:     lagAmount,
		LagPct:        lagPct,
		IsLagging:     lagPct >= 10,
		Signal:        signal,
		Confidence:    confidence,
	}
}
