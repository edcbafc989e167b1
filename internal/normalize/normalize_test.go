package normalize

import (
	"testing"
	"time"

	"github.com/skewmarket/skewd/internal/domain"
)

func TestParsePrices(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []float64
		ok   bool
	}{
		{name: "string elements", raw: `["0.45","0.55"]`, want: []float64{0.45, 0.55}, ok: true},
		{name: "numeric elements", raw: `[0.1,0.9]`, want: []float64{0.1, 0.9}, ok: true},
		{name: "multi outcome", raw: `["0.2","0.3","0.5"]`, want: []float64{0.2, 0.3, 0.5}, ok: true},
		{name: "bounds inclusive", raw: `["0","1"]`, want: []float64{0, 1}, ok: true},
		{name: "empty string", raw: ``, ok: false},
		{name: "not an array", raw: `{"a":1}`, ok: false},
		{name: "single element", raw: `["0.5"]`, ok: false},
		{name: "out of range high", raw: `["0.5","1.2"]`, ok: false},
		{name: "negative", raw: `["-0.1","0.5"]`, ok: false},
		{name: "non numeric element", raw: `["0.5","abc"]`, ok: false},
		{name: "garbage", raw: `not json`, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrices(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ParsePrices(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if !ok {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("price[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestActiveMarket(t *testing.T) {
	valid := `["0.4","0.6"]`
	event := &domain.MarketEvent{
		Slug:   "test",
		Active: true,
		Markets: []domain.Market{
			{ID: "m1", Closed: true, Active: true, OutcomePrices: valid},
			{ID: "m2", Active: false, OutcomePrices: valid},
			{ID: "m3", Active: true, OutcomePrices: valid},
		},
	}

	m := ActiveMarket(event)
	if m == nil || m.ID != "m3" {
		t.Fatalf("ActiveMarket = %+v, want m3", m)
	}

	// No open market: falls back to first priced market.
	event.Markets[2].Closed = true
	m = ActiveMarket(event)
	if m == nil || m.ID != "m1" {
		t.Fatalf("priced fallback = %+v, want m1", m)
	}

	// Nothing priced at all: falls back to the first market.
	for i := range event.Markets {
		event.Markets[i].OutcomePrices = "[]"
	}
	m = ActiveMarket(event)
	if m == nil || m.ID != "m1" {
		t.Fatalf("first-market fallback = %+v, want m1", m)
	}

	if ActiveMarket(&domain.MarketEvent{}) != nil {
		t.Error("expected nil for event without markets")
	}
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if got := DaysUntil("", now); got != nil {
		t.Errorf("empty date: got %v, want nil", *got)
	}
	if got := DaysUntil("not-a-date", now); got != nil {
		t.Errorf("bad date: got %v, want nil", *got)
	}

	got := DaysUntil(now.Add(48*time.Hour).Format(time.RFC3339), now)
	if got == nil || *got < 1.99 || *got > 2.01 {
		t.Fatalf("48h out: got %v, want ~2", got)
	}

	// Past dates floor at zero.
	got = DaysUntil(now.Add(-24*time.Hour).Format(time.RFC3339), now)
	if got == nil || *got != 0 {
		t.Fatalf("past date: got %v, want 0", got)
	}
}

func TestIsFuture(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if !IsFuture("", now) {
		t.Error("absent date should pass")
	}
	if IsFuture("garbage", now) {
		t.Error("unparseable date should fail")
	}
	if !IsFuture(now.Add(time.Minute).Format(time.RFC3339), now) {
		t.Error("future date should pass")
	}
	// Within the one-hour safety margin still passes.
	if !IsFuture(now.Add(-30*time.Minute).Format(time.RFC3339), now) {
		t.Error("date within safety margin should pass")
	}
	if IsFuture(now.Add(-2*time.Hour).Format(time.RFC3339), now) {
		t.Error("date beyond safety margin should fail")
	}
}

func TestValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	valid := `["0.4","0.6"]`

	good := domain.MarketEvent{
		Slug:    "btc-100k",
		Active:  true,
		EndDate: now.Add(72 * time.Hour).Format(time.RFC3339),
		Markets: []domain.Market{{ID: "m1", Active: true, OutcomePrices: valid}},
	}

	if v := Validate(&good, now); !v.Valid {
		t.Fatalf("expected valid, got issues %v", v.Issues)
	}

	tests := []struct {
		name   string
		mutate func(*domain.MarketEvent)
		issue  string
	}{
		{"missing slug", func(e *domain.MarketEvent) { e.Slug = "" }, "missing or invalid slug"},
		{"no markets", func(e *domain.MarketEvent) { e.Markets = nil }, "no markets available"},
		{"closed", func(e *domain.MarketEvent) { e.Closed = true }, "event is closed"},
		{"inactive", func(e *domain.MarketEvent) { e.Active = false }, "event is not active"},
		{"ended", func(e *domain.MarketEvent) { e.EndDate = now.Add(-48 * time.Hour).Format(time.RFC3339) }, "event has ended"},
		{"bad prices", func(e *domain.MarketEvent) { e.Markets[0].OutcomePrices = `["2.0","0.5"]` }, "invalid outcome prices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := good
			ev.Markets = append([]domain.Market(nil), good.Markets...)
			tt.mutate(&ev)
			v := Validate(&ev, now)
			if v.Valid {
				t.Fatal("expected invalid")
			}
			found := false
			for _, is := range v.Issues {
				if is == tt.issue {
					found = true
				}
			}
			if !found {
				t.Errorf("issues %v missing %q", v.Issues, tt.issue)
			}
		})
	}

	if v := Validate(nil, now); v.Valid {
		t.Error("nil event must be invalid")
	}
}
