// Package scoring computes the mispricing, hot-deal, and confidence scores
// for normalized market events. All functions are pure and deterministic;
// thresholds are heuristics carried in Params rather than hard-coded.
package scoring

// Params holds the scoring cutoffs. The values have no principled
// derivation; they are tuning knobs, so they live in config instead of
// constants.
type Params struct {
	// MultiDeviationMax is the largest multi-outcome deviation (in percent)
	// still treated as competing outcomes. Larger deviations mean the
	// sub-markets are independent and multi mode is skipped entirely.
	MultiDeviationMax float64

	// EdgeThreshold is the minimum edge percent worth reporting or tracking.
	EdgeThreshold float64

	// MinConfidence is the floor below which events are dropped from views.
	MinConfidence int

	// VerifiedConfidence is the floor for the "verified" filter.
	VerifiedConfidence int
}

// DefaultParams returns the production cutoffs.
func DefaultParams() Params {
	return Params{
		MultiDeviationMax:  15,
		EdgeThreshold:      0.5,
		MinConfidence:      50,
		VerifiedConfidence: 80,
	}
}
