package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/skewmarket/skewd/internal/deals"
	"github.com/skewmarket/skewd/internal/domain"
)

// DealsSource is the read surface of the deals orchestrator.
type DealsSource interface {
	Events(f deals.Filter, live map[string]float64) []domain.ScoredEvent
	Event(ctx context.Context, id string, live map[string]float64) (domain.ScoredEvent, error)
	Categories() []string
	LastUpdate() time.Time
}

// LivePrices supplies the latest streamed feed state.
type LivePrices interface {
	Snapshot() domain.FeedSnapshot
}

// DealsHandler serves the scored event list and its category index.
type DealsHandler struct {
	source DealsSource
	odds   LivePrices
	logger *slog.Logger
}

// NewDealsHandler creates a DealsHandler. odds may be nil when no live feed
// is wired; responses then carry poll-time prices only.
func NewDealsHandler(source DealsSource, odds LivePrices, logger *slog.Logger) *DealsHandler {
	return &DealsHandler{
		source: source,
		odds:   odds,
		logger: logHandler(logger, "deals"),
	}
}

// ListDeals returns the current scored events, filtered by the query string
// and overlaid with live outcome prices.
// GET /api/deals?view=&category=&search=&limit=
func (h *DealsHandler) ListDeals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := deals.Filter{
		View:     deals.View(q.Get("view")),
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}

	var live map[string]float64
	var directions map[string]domain.PriceDirection
	if h.odds != nil {
		snap := h.odds.Snapshot()
		live = snap.Prices
		directions = snap.Directions
	}

	events := h.source.Events(f, live)
	if limit := parseLimit(r, len(events), 500); limit < len(events) {
		events = events[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events":     events,
		"directions": directions,
		"lastUpdate": h.source.LastUpdate(),
	})
}

// GetDeal returns a single scored event with live outcome prices.
// GET /api/deals/{id}
func (h *DealsHandler) GetDeal(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var live map[string]float64
	var directions map[string]domain.PriceDirection
	if h.odds != nil {
		snap := h.odds.Snapshot()
		live = snap.Prices
		directions = snap.Directions
	}

	event, err := h.source.Event(r.Context(), id, live)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		h.logger.Error("event lookup failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "event lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"event":      event,
		"directions": directions,
	})
}

// ListCategories returns the categories with enough events to browse.
// GET /api/deals/categories
func (h *DealsHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats := h.source.Categories()
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}
