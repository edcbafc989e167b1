package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/skewmarket/skewd/internal/domain"
)

// FeedStatus reports a single feed connector's connection state.
type FeedStatus interface {
	Status() domain.ConnStatus
}

// LastUpdater reports when the event snapshot was last refreshed.
type LastUpdater interface {
	LastUpdate() time.Time
}

// HealthHandler reports daemon liveness along with the state of each feed
// and the freshness of the event snapshot.
type HealthHandler struct {
	odds      FeedStatus
	spot      FeedStatus
	deals     LastUpdater
	startedAt time.Time
	logger    *slog.Logger
	now       func() time.Time
}

// NewHealthHandler creates a HealthHandler. Any dependency may be nil; the
// corresponding field is then omitted from the response.
func NewHealthHandler(odds, spot FeedStatus, deals LastUpdater, startedAt time.Time, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		odds:      odds,
		spot:      spot,
		deals:     deals,
		startedAt: startedAt,
		logger:    logHandler(logger, "health"),
		now:       time.Now,
	}
}

// HealthCheck returns the daemon's health summary.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	now := h.now()

	resp := map[string]any{
		"status": "ok",
		"time":   now.UTC().Format(time.RFC3339),
	}
	if !h.startedAt.IsZero() {
		resp["uptimeSeconds"] = int64(now.Sub(h.startedAt).Seconds())
	}

	feeds := map[string]any{}
	if h.odds != nil {
		feeds["odds"] = h.odds.Status()
	}
	if h.spot != nil {
		feeds["spot"] = h.spot.Status()
	}
	if len(feeds) > 0 {
		resp["feeds"] = feeds
	}

	if h.deals != nil {
		last := h.deals.LastUpdate()
		if !last.IsZero() {
			resp["lastUpdate"] = last.UTC().Format(time.RFC3339)
		} else {
			resp["lastUpdate"] = nil
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
