package alpha

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/skewmarket/skewd/internal/domain"
)

type memStore struct {
	entries []domain.AlphaEntry
	loadErr error
	saveErr error
	saves   int
}

func (s *memStore) Load(ctx context.Context) ([]domain.AlphaEntry, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]domain.AlphaEntry(nil), s.entries...), nil
}

func (s *memStore) Save(ctx context.Context, entries []domain.AlphaEntry) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.entries = append([]domain.AlphaEntry(nil), entries...)
	return nil
}

func newTestLedger(store domain.AlphaStore) *Ledger {
	return New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func edgeEvent(id string, yes, no float64) domain.MarketEvent {
	return domain.MarketEvent{
		ID:     id,
		Title:  "Event " + id,
		Slug:   id,
		Active: true,
		Markets: []domain.Market{{
			ID:            id + "-m",
			Active:        true,
			OutcomePrices: fmt.Sprintf(`["%g","%g"]`, yes, no),
		}},
	}
}

func mispricing(edge float64) domain.Mispricing {
	return domain.Mispricing{
		Score:       75,
		EdgePercent: edge,
		Type:        domain.EdgeTypeHigh,
		Mode:        domain.MispricingModeBinary,
	}
}

func TestTrackEdge(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	l := newTestLedger(store)

	ev := edgeEvent("e1", 0.60, 0.37)
	l.TrackEdge(ctx, &ev, mispricing(3))

	entries := l.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.ID != "e1" || e.YesPrice != 0.60 || e.NoPrice != 0.37 || e.CurrentYesPrice != 0.60 {
		t.Fatalf("entry = %+v", e)
	}
	if e.Resolved || e.Profit != nil || e.ResolvedAt != nil {
		t.Fatalf("new entry must be unresolved: %+v", e)
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}

	// Duplicate id: no-op, no extra save.
	l.TrackEdge(ctx, &ev, mispricing(5))
	if got := l.Entries(); len(got) != 1 || got[0].EdgePercent != 3 {
		t.Fatalf("duplicate must not replace: %+v", got)
	}
	if store.saves != 1 {
		t.Errorf("saves after duplicate = %d, want 1", store.saves)
	}

	// Edge at or below the floor: not tracked.
	ev2 := edgeEvent("e2", 0.5, 0.5)
	l.TrackEdge(ctx, &ev2, mispricing(0.5))
	if got := l.Entries(); len(got) != 1 {
		t.Fatalf("sub-floor edge tracked: %+v", got)
	}
}

func TestTrackEdgeDefaultsPricesWhenUnparseable(t *testing.T) {
	store := &memStore{}
	l := newTestLedger(store)

	ev := domain.MarketEvent{
		ID:      "e1",
		Title:   "Event",
		Active:  true,
		Markets: []domain.Market{{ID: "m", Active: true, OutcomePrices: "not json"}},
	}
	l.TrackEdge(context.Background(), &ev, mispricing(2))

	e := l.Entries()[0]
	if e.YesPrice != 0.5 || e.NoPrice != 0.5 {
		t.Fatalf("prices = %v/%v, want 0.5/0.5 defaults", e.YesPrice, e.NoPrice)
	}
}

func TestCapEvictsOldestResolvedFirst(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	l := newTestLedger(store)

	for i := 0; i < maxEntries; i++ {
		ev := edgeEvent(fmt.Sprintf("e%02d", i), 0.60, 0.37)
		l.TrackEdge(ctx, &ev, mispricing(3))
	}

	// Resolve e03 and e07 by dropping them from the active set.
	var active []domain.MarketEvent
	for i := 0; i < maxEntries; i++ {
		if i == 3 || i == 7 {
			continue
		}
		active = append(active, edgeEvent(fmt.Sprintf("e%02d", i), 0.60, 0.37))
	}
	l.UpdatePrices(ctx, active)

	// One over the cap: the oldest resolved entry (e03) goes, not the oldest
	// overall (e00).
	ev := edgeEvent("overflow", 0.60, 0.37)
	l.TrackEdge(ctx, &ev, mispricing(3))

	entries := l.Entries()
	if len(entries) != maxEntries {
		t.Fatalf("entries = %d, want %d", len(entries), maxEntries)
	}
	byID := map[string]bool{}
	for _, e := range entries {
		byID[e.ID] = true
	}
	if byID["e03"] {
		t.Error("oldest resolved entry e03 should have been evicted")
	}
	if !byID["e07"] || !byID["e00"] || !byID["overflow"] {
		t.Errorf("unexpected eviction: %v", byID)
	}
}

func TestCapEvictsOldestWhenNoneResolved(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(&memStore{})

	for i := 0; i <= maxEntries; i++ {
		ev := edgeEvent(fmt.Sprintf("e%02d", i), 0.60, 0.37)
		l.TrackEdge(ctx, &ev, mispricing(3))
	}

	entries := l.Entries()
	if len(entries) != maxEntries {
		t.Fatalf("entries = %d, want %d", len(entries), maxEntries)
	}
	for _, e := range entries {
		if e.ID == "e00" {
			t.Fatal("oldest unresolved entry e00 should have been evicted")
		}
	}
	if entries[0].ID != fmt.Sprintf("e%02d", maxEntries) {
		t.Errorf("newest entry = %s, want most recent first", entries[0].ID)
	}
}

func TestUpdatePricesResolvesAndRefreshes(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(&memStore{})

	tracked := edgeEvent("gone", 0.60, 0.37)
	l.TrackEdge(ctx, &tracked, mispricing(3))
	stays := edgeEvent("stays", 0.40, 0.58)
	l.TrackEdge(ctx, &stays, mispricing(2))

	// "gone" disappears pinned near YES, "stays" moves to 0.45.
	l.UpdatePrices(ctx, []domain.MarketEvent{edgeEvent("stays", 0.45, 0.55)})

	entries := l.Entries()
	var gone, stay domain.AlphaEntry
	for _, e := range entries {
		switch e.ID {
		case "gone":
			gone = e
		case "stays":
			stay = e
		}
	}

	if !gone.Resolved || gone.ResolvedAt == nil || gone.Profit == nil {
		t.Fatalf("gone = %+v, want resolved with profit", gone)
	}
	// CurrentYesPrice 0.60 is between the settle bands: profit is the quote
	// move |0.60 - 0.60| = 0.
	if *gone.Profit != 0 {
		t.Errorf("profit = %v, want 0", *gone.Profit)
	}
	if stay.Resolved || stay.CurrentYesPrice != 0.45 {
		t.Errorf("stays = %+v, want unresolved at 0.45", stay)
	}

	// A later cycle must never touch resolved entries.
	before := gone
	l.UpdatePrices(ctx, []domain.MarketEvent{edgeEvent("gone", 0.99, 0.01), edgeEvent("stays", 0.45, 0.55)})
	for _, e := range l.Entries() {
		if e.ID == "gone" && (e.Resolved != before.Resolved || *e.Profit != *before.Profit || !e.ResolvedAt.Equal(*before.ResolvedAt)) {
			t.Fatalf("resolved entry mutated: %+v", e)
		}
	}
}

func TestTheoreticalProfit(t *testing.T) {
	tests := []struct {
		name    string
		yes, no float64
		current float64
		want    float64
	}{
		{"settled yes", 0.40, 0.60, 0.97, 60.0},
		{"settled no", 0.40, 0.60, 0.02, 40.0},
		{"mid move", 0.40, 0.60, 0.55, 15.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &domain.AlphaEntry{YesPrice: tt.yes, NoPrice: tt.no, CurrentYesPrice: tt.current}
			if got := theoreticalProfit(entry); got != tt.want {
				t.Fatalf("profit = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadPrunesOldEntries(t *testing.T) {
	now := time.Now()
	store := &memStore{entries: []domain.AlphaEntry{
		{ID: "fresh", DetectedAt: now.Add(-24 * time.Hour)},
		{ID: "stale", DetectedAt: now.Add(-40 * 24 * time.Hour)},
		{ID: "zero"},
	}}
	l := newTestLedger(store)
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	entries := l.Entries()
	if len(entries) != 1 || entries[0].ID != "fresh" {
		t.Fatalf("entries = %+v, want only fresh", entries)
	}
}

func TestLoadSurvivesStoreFailure(t *testing.T) {
	store := &memStore{loadErr: errors.New("corrupt")}
	l := newTestLedger(store)
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load must degrade to empty, got %v", err)
	}
	if got := l.Entries(); len(got) != 0 {
		t.Fatalf("entries = %+v, want empty", got)
	}
}

func TestSaveFailureKeepsLedgerInMemory(t *testing.T) {
	store := &memStore{saveErr: errors.New("disk full")}
	l := newTestLedger(store)

	ev := edgeEvent("e1", 0.60, 0.37)
	l.TrackEdge(context.Background(), &ev, mispricing(3))
	if got := l.Entries(); len(got) != 1 {
		t.Fatalf("entries = %+v, want the tracked edge despite save failure", got)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(&memStore{})

	win := edgeEvent("win", 0.40, 0.60)
	l.TrackEdge(ctx, &win, mispricing(3))
	open := edgeEvent("open", 0.50, 0.48)
	l.TrackEdge(ctx, &open, mispricing(2))

	// Drive "win" to a settled YES quote, then resolve it by dropping it.
	l.UpdatePrices(ctx, []domain.MarketEvent{edgeEvent("win", 0.97, 0.03), edgeEvent("open", 0.50, 0.48)})
	l.UpdatePrices(ctx, []domain.MarketEvent{edgeEvent("open", 0.50, 0.48)})

	stats := l.Stats()
	if stats.TotalEdges != 2 || stats.ResolvedCount != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.WinRate != 100 {
		t.Errorf("winRate = %v, want 100", stats.WinRate)
	}
	if stats.TotalTheoreticalProfit != 60.0 {
		t.Errorf("totalProfit = %v, want 60.0", stats.TotalTheoreticalProfit)
	}
}
