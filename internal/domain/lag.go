package domain

// ThresholdDirection is the side of a crypto price threshold an event asks about.
type ThresholdDirection string

const (
	DirectionAbove ThresholdDirection = "above"
	DirectionBelow ThresholdDirection = "below"
)

// CryptoThreshold is a simple price-threshold question parsed from an event
// title, e.g. "Will Bitcoin close above $100k ...".
type CryptoThreshold struct {
	Symbol    string
	Threshold float64
	Direction ThresholdDirection
}

// LagConfidence grades how actionable a lag signal looks.
type LagConfidence string

const (
	LagConfidenceLow    LagConfidence = "low"
	LagConfidenceMedium LagConfidence = "medium"
	LagConfidenceHigh   LagConfidence = "high"
)

// LagSignal compares a spot reference price against the prediction-market
// quoted probability for the same threshold event.
type LagSignal struct {
	ID            string             `json:"id"`
	EventID       string             `json:"eventId"`
	EventTitle    string             `json:"eventTitle"`
	Slug          string             `json:"slug"`
	Symbol        string             `json:"symbol"`
	Threshold     float64            `json:"threshold"`
	Direction     ThresholdDirection `json:"direction"`
	SpotPrice     float64            `json:"spotPrice"`
	PriceDeltaPct float64            `json:"priceDeltaPct"`
	ImpliedYes    float64            `json:"impliedYes"`
	ActualYes     float64            `json:"actualYes"`
	LagAmount     float64            `json:"lagAmount"`
	LagPct        float64            `json:"lagPct"`
	IsLagging     bool               `json:"isLagging"`
	Signal        string             `json:"signal,omitempty"` // "BUY YES", "BUY NO" or empty
	Confidence    LagConfidence      `json:"confidence"`
	Volume        float64            `json:"volume"`
	TokenID       string             `json:"tokenId,omitempty"`
}
