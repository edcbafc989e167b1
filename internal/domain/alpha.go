package domain

import "time"

// AlphaEntry tracks one detected mispricing from first observation through
// resolution. Entries are keyed by the event ID (or slug) and are never
// resurrected once resolved.
type AlphaEntry struct {
	ID              string         `json:"id"`
	EventTitle      string         `json:"eventTitle"`
	DetectedAt      time.Time      `json:"detectedAt"`
	EdgePercent     float64        `json:"edgePercent"`
	EdgeType        EdgeType       `json:"edgeType"`
	Mode            MispricingMode `json:"mode"`
	YesPrice        float64        `json:"yesPrice"`
	NoPrice         float64        `json:"noPrice"`
	CurrentYesPrice float64        `json:"currentYesPrice"`
	LastUpdated     time.Time      `json:"lastUpdated"`
	Resolved        bool           `json:"resolved"`
	ResolvedAt      *time.Time     `json:"resolvedAt"`
	Profit          *float64       `json:"profit"`
	Slug            string         `json:"slug"`
}

// AlphaStats aggregates ledger performance over all entries.
type AlphaStats struct {
	TotalEdges             int     `json:"totalEdges"`
	ResolvedCount          int     `json:"resolvedCount"`
	WinRate                float64 `json:"winRate"`
	AvgResolutionDays      float64 `json:"avgResolutionDays"`
	TotalTheoreticalProfit float64 `json:"totalTheoreticalProfit"`
}
