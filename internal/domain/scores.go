package domain

// MispricingMode identifies which pricing coherence check produced an edge.
type MispricingMode string

const (
	MispricingModeNone   MispricingMode = ""
	MispricingModeBinary MispricingMode = "binary"
	MispricingModeMulti  MispricingMode = "multi"
)

// EdgeType buckets the edge percentage into severity bands.
type EdgeType string

const (
	EdgeTypeNone    EdgeType = ""
	EdgeTypeLow     EdgeType = "low"
	EdgeTypeMedium  EdgeType = "medium"
	EdgeTypeHigh    EdgeType = "high"
	EdgeTypeExtreme EdgeType = "extreme"
)

// Mispricing is the result of the price-coherence check on one event.
// EdgePercent is the deviation of the quoted prices from a distribution
// summing to 1, expressed in percent.
type Mispricing struct {
	Score         int            `json:"score"` // 0, 25, 50, 75 or 100
	EdgePercent   float64        `json:"edgePercent"`
	Type          EdgeType       `json:"type"`
	ConfidencePct int            `json:"confidencePct"`
	Mode          MispricingMode `json:"mode"`
}

// HasEdge reports whether the edge is large enough to track in the ledger.
func (m Mispricing) HasEdge(threshold float64) bool {
	return m.EdgePercent > threshold
}

// HotDeal is the additive attractiveness score with the labels that
// contributed to it. DataQuality starts at 100 and is docked for thin or
// expiring markets.
type HotDeal struct {
	Score       int      `json:"score"`
	Factors     []string `json:"factors"`
	DataQuality int      `json:"dataQuality"`
}

// ConfidenceLevel is the coarse trust classification of an event.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// Confidence is the trust score of an event with its warnings.
type Confidence struct {
	ConfidencePct int             `json:"confidencePct"`
	Warnings      []string        `json:"warnings"`
	Level         ConfidenceLevel `json:"level"`
}

// ScoredEvent is a MarketEvent with all derived analytics for one poll cycle.
// Scores are recomputed every cycle and never persisted.
type ScoredEvent struct {
	MarketEvent

	Mispricing    Mispricing `json:"mispricing"`
	HotDeal       HotDeal    `json:"hotDeal"`
	Confidence    Confidence `json:"confidence"`
	DaysLeft      *float64   `json:"daysLeft"`
	CombinedScore float64    `json:"combinedScore"`
}
