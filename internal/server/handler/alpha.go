package handler

import (
	"log/slog"
	"net/http"

	"github.com/skewmarket/skewd/internal/domain"
)

// AlphaReader is the read surface of the alpha ledger.
type AlphaReader interface {
	Entries() []domain.AlphaEntry
	Stats() domain.AlphaStats
}

// AlphaHandler serves the tracked mispricing ledger and its aggregate stats.
type AlphaHandler struct {
	ledger AlphaReader
	logger *slog.Logger
}

func NewAlphaHandler(ledger AlphaReader, logger *slog.Logger) *AlphaHandler {
	return &AlphaHandler{
		ledger: ledger,
		logger: logHandler(logger, "alpha"),
	}
}

// ListEntries returns the ledger entries, newest first, with summary stats.
// GET /api/alpha
func (h *AlphaHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries := h.ledger.Entries()
	if entries == nil {
		entries = []domain.AlphaEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"stats":   h.ledger.Stats(),
	})
}
