package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/skewmarket/skewd/internal/cexlag"
	"github.com/skewmarket/skewd/internal/domain"
)

// EventProvider supplies the unfiltered active event snapshot.
type EventProvider interface {
	ActiveEvents() []domain.MarketEvent
}

// LagHandler computes exchange-lag signals for crypto threshold events on
// demand, from the latest event snapshot and spot feed state.
type LagHandler struct {
	events EventProvider
	spot   LivePrices
	logger *slog.Logger
	now    func() time.Time
}

func NewLagHandler(events EventProvider, spot LivePrices, logger *slog.Logger) *LagHandler {
	return &LagHandler{
		events: events,
		spot:   spot,
		logger: logHandler(logger, "lag"),
		now:    time.Now,
	}
}

// ListSignals returns the current lag signals, lagging markets first.
// GET /api/lag
func (h *LagHandler) ListSignals(w http.ResponseWriter, r *http.Request) {
	var snap domain.FeedSnapshot
	if h.spot != nil {
		snap = h.spot.Snapshot()
	}

	signals := cexlag.Analyze(h.events.ActiveEvents(), snap.Prices, h.now())
	if signals == nil {
		signals = []domain.LagSignal{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"signals":    signals,
		"spotPrices": snap.Prices,
		"spotStatus": snap.Status,
	})
}
