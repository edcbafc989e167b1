// Package deals owns the polled analytics state: it refreshes the upstream
// event list on an interval, validates and scores each event, keeps the odds
// feed subscription in sync, and feeds detections into the alpha ledger.
// Consumers read immutable snapshots; the orchestrator is the only writer.
package deals

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/skewmarket/skewd/internal/domain"
	"github.com/skewmarket/skewd/internal/normalize"
	"github.com/skewmarket/skewd/internal/scoring"
)

// EventSource serves the currently open upstream events, in bulk and by ID.
type EventSource interface {
	ActiveEvents(ctx context.Context, limit int) ([]domain.MarketEvent, error)
	Event(ctx context.Context, id string) (domain.MarketEvent, error)
}

// Ledger receives detections and the active set each cycle.
type Ledger interface {
	TrackEdge(ctx context.Context, event *domain.MarketEvent, m domain.Mispricing)
	UpdatePrices(ctx context.Context, activeEvents []domain.MarketEvent)
}

// KeySubscriber is the odds feed's subscription surface.
type KeySubscriber interface {
	SetKeys(keys []string)
}

// Config holds the orchestrator's polling parameters.
type Config struct {
	PollInterval time.Duration
	EventLimit   int
}

// Orchestrator drives the poll/score/track cycle and owns the scored state.
type Orchestrator struct {
	source EventSource
	ledger Ledger
	odds   KeySubscriber
	params scoring.Params
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu         sync.RWMutex
	events     []domain.ScoredEvent
	categories []string
	lastUpdate time.Time
}

// New creates an orchestrator. ledger and odds may be nil in reduced setups.
func New(source EventSource, ledger Ledger, odds KeySubscriber, params scoring.Params, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.EventLimit <= 0 {
		cfg.EventLimit = 200
	}
	return &Orchestrator{
		source: source,
		ledger: ledger,
		odds:   odds,
		params: params,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "deals")),
		now:    time.Now,
	}
}

// Run polls until the context is cancelled. The first refresh happens
// immediately; refresh failures are logged and retried on the next tick with
// the previous snapshot left intact.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.Refresh(ctx); err != nil {
		o.logger.Error("initial refresh failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := o.Refresh(ctx); err != nil {
				o.logger.Error("refresh failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Refresh runs one full poll cycle.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	raw, err := o.source.ActiveEvents(ctx, o.cfg.EventLimit)
	if err != nil {
		return err
	}
	now := o.now()

	scored := make([]domain.ScoredEvent, 0, len(raw))
	dropped := 0
	for i := range raw {
		event := raw[i]
		if v := normalize.Validate(&event, now); !v.Valid {
			dropped++
			continue
		}
		s := scoring.Score(event, o.params, now)
		if s.Confidence.ConfidencePct < o.params.MinConfidence {
			dropped++
			continue
		}
		scored = append(scored, s)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CombinedScore > scored[j].CombinedScore
	})

	if o.odds != nil {
		o.odds.SetKeys(TokenKeys(scored))
	}

	active := make([]domain.MarketEvent, len(scored))
	for i := range scored {
		active[i] = scored[i].MarketEvent
	}
	if o.ledger != nil {
		for i := range scored {
			if scored[i].Mispricing.EdgePercent > 0.5 {
				o.ledger.TrackEdge(ctx, &scored[i].MarketEvent, scored[i].Mispricing)
			}
		}
		o.ledger.UpdatePrices(ctx, active)
	}

	categories := ExtractCategories(scored)

	o.mu.Lock()
	o.events = scored
	o.categories = categories
	o.lastUpdate = now
	o.mu.Unlock()

	o.logger.Info("events refreshed",
		slog.Int("kept", len(scored)),
		slog.Int("dropped", dropped),
	)
	return nil
}

// Events returns the filtered snapshot, optionally overlaid with live prices.
func (o *Orchestrator) Events(f Filter, live map[string]float64) []domain.ScoredEvent {
	o.mu.RLock()
	events := o.events
	o.mu.RUnlock()

	filtered := Apply(events, f)
	return MergeLivePrices(filtered, live)
}

// Event returns one scored event by ID, overlaid with live prices. Events in
// the current snapshot are served from it; anything else is fetched from the
// source and scored on the spot, so recently listed markets resolve before
// the next poll. Misses and invalid events report domain.ErrNotFound.
func (o *Orchestrator) Event(ctx context.Context, id string, live map[string]float64) (domain.ScoredEvent, error) {
	o.mu.RLock()
	var found *domain.ScoredEvent
	for i := range o.events {
		if o.events[i].ID == id {
			found = &o.events[i]
			break
		}
	}
	o.mu.RUnlock()

	var scored domain.ScoredEvent
	if found != nil {
		scored = *found
	} else {
		raw, err := o.source.Event(ctx, id)
		if err != nil {
			return domain.ScoredEvent{}, err
		}
		now := o.now()
		if v := normalize.Validate(&raw, now); !v.Valid {
			return domain.ScoredEvent{}, domain.ErrNotFound
		}
		scored = scoring.Score(raw, o.params, now)
	}

	merged := MergeLivePrices([]domain.ScoredEvent{scored}, live)
	return merged[0], nil
}

// Categories returns the categories with enough events to show.
func (o *Orchestrator) Categories() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]string(nil), o.categories...)
}

// ActiveEvents returns the unfiltered scored snapshot's raw events.
func (o *Orchestrator) ActiveEvents() []domain.MarketEvent {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]domain.MarketEvent, len(o.events))
	for i := range o.events {
		out[i] = o.events[i].MarketEvent
	}
	return out
}

// LastUpdate reports when the snapshot was last refreshed; zero before the
// first successful cycle.
func (o *Orchestrator) LastUpdate() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastUpdate
}
