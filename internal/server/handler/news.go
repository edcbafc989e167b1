package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/skewmarket/skewd/internal/domain"
)

// NewsSource fetches articles for a category, ranked against the event set.
type NewsSource interface {
	Articles(ctx context.Context, category string, events []domain.MarketEvent) ([]domain.NewsItem, error)
}

// NewsHandler serves headlines relevant to the currently listed events.
type NewsHandler struct {
	news   NewsSource
	events EventProvider
	logger *slog.Logger
}

func NewNewsHandler(news NewsSource, events EventProvider, logger *slog.Logger) *NewsHandler {
	return &NewsHandler{
		news:   news,
		events: events,
		logger: logHandler(logger, "news"),
	}
}

// ListArticles returns articles for the requested category, most relevant
// first.
// GET /api/news?category=&limit=
func (h *NewsHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	articles, err := h.news.Articles(r.Context(), category, h.events.ActiveEvents())
	if err != nil {
		h.logger.Error("fetch failed",
			slog.String("category", category),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "news fetch failed")
		return
	}
	if articles == nil {
		articles = []domain.NewsItem{}
	}
	if limit := parseLimit(r, len(articles), 100); limit < len(articles) {
		articles = articles[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"articles": articles,
		"category": category,
	})
}
