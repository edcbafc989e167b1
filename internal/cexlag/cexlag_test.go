package cexlag

import (
	"math"
	"testing"
	"time"

	"github.com/skewmarket/skewd/internal/domain"
)

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  *domain.CryptoThreshold
	}{
		{
			"btc above",
			"Will Bitcoin close above $100,000 on March 7?",
			&domain.CryptoThreshold{Symbol: "BTC", Threshold: 100000, Direction: domain.DirectionAbove},
		},
		{
			"eth k suffix",
			"Will ETH hit $5k in 2026?",
			&domain.CryptoThreshold{Symbol: "ETH", Threshold: 5000, Direction: domain.DirectionAbove},
		},
		{
			"sol below",
			"Will Solana drop below $120 by Friday?",
			&domain.CryptoThreshold{Symbol: "SOL", Threshold: 120, Direction: domain.DirectionBelow},
		},
		{"multi threshold excluded", "Will Bitcoin hit $150k or $100k first?", nil},
		{"market cap excluded", "Will Bitcoin market cap be above $3,000,000,000,000?", nil},
		{"election excluded", "Will the pro-bitcoin candidate win the election above $100,000 spend?", nil},
		{"no direction keyword", "Bitcoin price on December 31?", nil},
		{"threshold out of range", "Will BTC drop below $5,000?", nil},
		{"unknown asset", "Will Dogecoin reach $1?", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := domain.MarketEvent{Title: tt.title}
			got := ParseThreshold(&ev)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("got %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("got nil")
			}
			if *got != *tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseThresholdFallsBackToQuestion(t *testing.T) {
	ev := domain.MarketEvent{
		Markets: []domain.Market{{Question: "Will Bitcoin close above $95,000?"}},
	}
	got := ParseThreshold(&ev)
	if got == nil || got.Symbol != "BTC" || got.Threshold != 95000 {
		t.Fatalf("got %+v", got)
	}
}

func TestComputeLag(t *testing.T) {
	daysLeft := func(d float64) *float64 { return &d }

	// Spot 8% above the threshold with two days left: raw implied 0.97 blended
	// toward 0.5 at strength (2/7)*0.6.
	lag := ComputeLag(108000, 100000, domain.DirectionAbove, 0.55, daysLeft(2))
	if lag == nil {
		t.Fatal("got nil")
	}
	if math.Abs(lag.PriceDeltaPct-8) > 1e-9 {
		t.Errorf("priceDeltaPct = %v, want 8", lag.PriceDeltaPct)
	}
	if math.Abs(lag.ImpliedYes-0.8894285714) > 1e-6 {
		t.Errorf("impliedYes = %v, want ~0.8894", lag.ImpliedYes)
	}
	if math.Abs(lag.LagPct-33.9428571) > 1e-4 {
		t.Errorf("lagPct = %v, want ~33.94", lag.LagPct)
	}
	if !lag.IsLagging || lag.Signal != "BUY YES" || lag.Confidence != domain.LagConfidenceHigh {
		t.Errorf("got %+v, want lagging BUY YES high", lag)
	}

	// Below-threshold question mirrors the buckets: spot 8% above the
	// threshold means the below outcome is nearly dead.
	lag = ComputeLag(108000, 100000, domain.DirectionBelow, 0.40, nil)
	if lag.ImpliedYes != 0.03 {
		t.Errorf("impliedYes = %v, want 0.03", lag.ImpliedYes)
	}
	if lag.Signal != "BUY NO" {
		t.Errorf("signal = %q, want BUY NO", lag.Signal)
	}

	// Market quoting close to fair: no signal, not lagging.
	lag = ComputeLag(100100, 100000, domain.DirectionAbove, 0.52, nil)
	if lag.ImpliedYes != 0.55 {
		t.Errorf("impliedYes = %v, want 0.55", lag.ImpliedYes)
	}
	if lag.IsLagging || lag.Signal != "" {
		t.Errorf("got %+v, want quiet signal", lag)
	}

	// Intraday events skip the time blend entirely.
	lag = ComputeLag(108000, 100000, domain.DirectionAbove, 0.55, daysLeft(0.3))
	if lag.ImpliedYes != 0.97 {
		t.Errorf("impliedYes = %v, want unblended 0.97", lag.ImpliedYes)
	}

	if got := ComputeLag(0, 100000, domain.DirectionAbove, 0.5, nil); got != nil {
		t.Errorf("zero spot: got %+v, want nil", got)
	}
}

func lagEvent(id, title string, yes float64, endsIn time.Duration, now time.Time) domain.MarketEvent {
	return domain.MarketEvent{
		ID:      id,
		Title:   title,
		Slug:    id,
		Active:  true,
		Volume:  200_000,
		EndDate: now.Add(endsIn).Format(time.RFC3339),
		Markets: []domain.Market{{
			ID:            id + "-m",
			Active:        true,
			OutcomePrices: priceJSON(yes),
			TokenIDs:      []string{id + "-yes", id + "-no"},
		}},
	}
}

func priceJSON(yes float64) string {
	switch yes {
	case 0.55:
		return `["0.55","0.45"]`
	case 0.90:
		return `["0.90","0.10"]`
	case 0.95:
		return `["0.95","0.05"]`
	default:
		return `["0.50","0.50"]`
	}
}

func TestAnalyze(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	spot := map[string]float64{"BTC": 108000, "ETH": 3000}

	events := []domain.MarketEvent{
		// Wide lag, should sort first.
		lagEvent("wide", "Will Bitcoin close above $100,000?", 0.55, 48*time.Hour, now),
		// Fairly priced, tracked but not lagging.
		lagEvent("fair", "Will BTC stay above $100,000?", 0.90, 48*time.Hour, now),
		// No spot price for SOL in this run.
		lagEvent("nospot", "Will Solana drop below $120?", 0.55, 48*time.Hour, now),
		// Beyond the analysis horizon.
		lagEvent("faraway", "Will Bitcoin close above $100,000 in June?", 0.55, 45*24*time.Hour, now),
		// Not a threshold question at all.
		lagEvent("other", "Who will win the championship?", 0.55, 48*time.Hour, now),
	}

	signals := Analyze(events, spot, now)
	if len(signals) != 2 {
		t.Fatalf("signals = %d (%+v), want 2", len(signals), signals)
	}
	if signals[0].EventID != "wide" || !signals[0].IsLagging {
		t.Errorf("first signal = %+v, want lagging wide", signals[0])
	}
	if signals[1].EventID != "fair" || signals[1].IsLagging {
		t.Errorf("second signal = %+v, want non-lagging fair", signals[1])
	}
	if signals[0].ID == "" || signals[0].ID == signals[1].ID {
		t.Error("signals must carry unique ids")
	}
	if signals[0].TokenID != "wide-yes" {
		t.Errorf("tokenID = %q, want wide-yes", signals[0].TokenID)
	}
}
