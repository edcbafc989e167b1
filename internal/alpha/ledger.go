// Package alpha maintains the persisted ledger of detected mispricings and
// their eventual outcomes. The ledger is the system's memory: it records the
// prices at detection time, follows the quote while the event stays listed,
// and freezes a theoretical profit when the event disappears from the active
// set.
package alpha

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/skewmarket/skewd/internal/domain"
	"github.com/skewmarket/skewd/internal/normalize"
)

const (
	maxEntries = 50
	maxAgeDays = 30

	// trackMinEdge is the minimum edge percent worth remembering.
	trackMinEdge = 0.5

	// Quote levels treated as a settled outcome when an event disappears.
	resolvedYesAt = 0.95
	resolvedNoAt  = 0.05
)

// Ledger owns the entry list. Persistence failures are logged and swallowed:
// the ledger keeps operating in memory and retries on the next mutation.
type Ledger struct {
	store  domain.AlphaStore
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries []domain.AlphaEntry
	onTrack func(domain.AlphaEntry)
}

// New creates a ledger backed by the given store.
func New(store domain.AlphaStore, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		logger: logger.With(slog.String("component", "alpha")),
		now:    time.Now,
	}
}

// SetOnTrack registers a callback invoked with each newly tracked entry.
// Must be called before the ledger starts receiving detections.
func (l *Ledger) SetOnTrack(fn func(domain.AlphaEntry)) { l.onTrack = fn }

// Load restores persisted entries, pruning anything older than the retention
// window. Corrupt or missing state degrades to an empty ledger.
func (l *Ledger) Load(ctx context.Context) error {
	entries, err := l.store.Load(ctx)
	if err != nil {
		l.logger.Warn("ledger load failed, starting empty", slog.String("error", err.Error()))
		entries = nil
	}

	cutoff := l.now().Add(-maxAgeDays * 24 * time.Hour)
	kept := entries[:0]
	for _, e := range entries {
		if !e.DetectedAt.IsZero() && e.DetectedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}

	l.mu.Lock()
	l.entries = kept
	l.mu.Unlock()

	l.logger.Info("ledger loaded", slog.Int("entries", len(kept)), slog.Int("pruned", len(entries)-len(kept)))
	return nil
}

// TrackEdge records a newly detected mispricing. Edges at or below the
// tracking floor and events already in the ledger are ignored. The detection
// snapshot takes the first market's prices, defaulting to 0.5/0.5 when they
// cannot be parsed.
func (l *Ledger) TrackEdge(ctx context.Context, event *domain.MarketEvent, m domain.Mispricing) {
	if event == nil || m.EdgePercent <= trackMinEdge {
		return
	}
	id := event.Key()
	if id == "" {
		return
	}

	l.mu.Lock()
	for i := range l.entries {
		if l.entries[i].ID == id {
			l.mu.Unlock()
			return
		}
	}

	yesPrice, noPrice := 0.5, 0.5
	title := event.Title
	if len(event.Markets) > 0 {
		m0 := &event.Markets[0]
		if title == "" {
			title = m0.Question
		}
		if prices, ok := normalize.ParsePrices(m0.OutcomePrices); ok {
			yesPrice, noPrice = prices[0], prices[1]
		}
	}
	if title == "" {
		title = "Unknown"
	}

	now := l.now()
	entry := domain.AlphaEntry{
		ID:              id,
		EventTitle:      title,
		DetectedAt:      now,
		EdgePercent:     m.EdgePercent,
		EdgeType:        m.Type,
		Mode:            m.Mode,
		YesPrice:        yesPrice,
		NoPrice:         noPrice,
		CurrentYesPrice: yesPrice,
		LastUpdated:     now,
		Slug:            event.Slug,
	}

	l.entries = append([]domain.AlphaEntry{entry}, l.entries...)
	if len(l.entries) > maxEntries {
		l.evictLocked()
	}
	snapshot := l.snapshotLocked()
	l.mu.Unlock()

	l.logger.Info("edge tracked",
		slog.String("id", id),
		slog.Float64("edge", m.EdgePercent),
		slog.String("type", string(m.Type)),
	)
	if l.onTrack != nil {
		l.onTrack(entry)
	}
	l.persist(ctx, snapshot)
}

// evictLocked removes one entry: the oldest resolved entry when there is one,
// otherwise the oldest entry outright. Entries are newest-first, so oldest
// means scanning from the tail.
func (l *Ledger) evictLocked() {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Resolved {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
	l.entries = l.entries[:len(l.entries)-1]
}

// UpdatePrices reconciles the ledger against the current active event set.
// Unresolved entries whose event disappeared are marked resolved with a
// frozen theoretical profit; the rest get their current quote refreshed.
// Resolved entries are never touched again.
func (l *Ledger) UpdatePrices(ctx context.Context, activeEvents []domain.MarketEvent) {
	activeByID := make(map[string]*domain.MarketEvent, len(activeEvents))
	for i := range activeEvents {
		if id := activeEvents[i].Key(); id != "" {
			activeByID[id] = &activeEvents[i]
		}
	}

	l.mu.Lock()
	changed := false
	resolvedNow := 0
	for i := range l.entries {
		entry := &l.entries[i]
		if entry.Resolved {
			continue
		}

		event, active := activeByID[entry.ID]
		if !active {
			now := l.now()
			entry.Resolved = true
			entry.ResolvedAt = &now
			profit := theoreticalProfit(entry)
			entry.Profit = &profit
			changed = true
			resolvedNow++
			continue
		}

		if len(event.Markets) == 0 {
			continue
		}
		prices, ok := normalize.ParsePrices(event.Markets[0].OutcomePrices)
		if !ok {
			continue
		}
		if currentYes := prices[0]; currentYes != entry.CurrentYesPrice {
			entry.CurrentYesPrice = currentYes
			entry.LastUpdated = l.now()
			changed = true
		}
	}
	var snapshot []domain.AlphaEntry
	if changed {
		snapshot = l.snapshotLocked()
	}
	l.mu.Unlock()

	if !changed {
		return
	}
	if resolvedNow > 0 {
		l.logger.Info("entries resolved", slog.Int("count", resolvedNow))
	}
	l.persist(ctx, snapshot)
}

// Entries returns a copy of the ledger, newest first.
func (l *Ledger) Entries() []domain.AlphaEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Stats aggregates the ledger's performance record.
func (l *Ledger) Stats() domain.AlphaStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := domain.AlphaStats{TotalEdges: len(l.entries)}
	var wins int
	var totalDays float64
	for _, e := range l.entries {
		if !e.Resolved {
			continue
		}
		stats.ResolvedCount++
		if e.Profit != nil {
			stats.TotalTheoreticalProfit += *e.Profit
			if *e.Profit > 0 {
				wins++
			}
		}
		if e.ResolvedAt != nil && !e.DetectedAt.IsZero() {
			totalDays += e.ResolvedAt.Sub(e.DetectedAt).Hours() / 24
		}
	}
	if stats.ResolvedCount > 0 {
		stats.WinRate = float64(wins) / float64(stats.ResolvedCount) * 100
		stats.AvgResolutionDays = totalDays / float64(stats.ResolvedCount)
	}
	stats.TotalTheoreticalProfit = round1(stats.TotalTheoreticalProfit)
	stats.WinRate = round1(stats.WinRate)
	stats.AvgResolutionDays = round1(stats.AvgResolutionDays)
	return stats
}

func (l *Ledger) snapshotLocked() []domain.AlphaEntry {
	return append([]domain.AlphaEntry(nil), l.entries...)
}

func (l *Ledger) persist(ctx context.Context, entries []domain.AlphaEntry) {
	if err := l.store.Save(ctx, entries); err != nil {
		l.logger.Warn("ledger save failed", slog.String("error", err.Error()))
	}
}

// theoreticalProfit freezes the outcome of a resolved entry in cents per
// share. A quote pinned near 1 or 0 is treated as a settled YES or NO and
// pays out against the detection-time price of the winning side; anything in
// between falls back to the absolute quote move since detection.
func theoreticalProfit(entry *domain.AlphaEntry) float64 {
	switch {
	case entry.CurrentYesPrice >= resolvedYesAt:
		return round1((1 - entry.YesPrice) * 100)
	case entry.CurrentYesPrice <= resolvedNoAt:
		return round1((1 - entry.NoPrice) * 100)
	default:
		return round1(math.Abs(entry.CurrentYesPrice-entry.YesPrice) * 100)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
