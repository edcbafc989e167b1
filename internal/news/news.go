// Package news fetches headlines from Google News RSS and ranks them by
// relevance to the active prediction-market events. It is a lightweight
// companion surface, not a general news engine: fixed per-category queries,
// title-keyword matching, nothing more.
package news

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"github.com/skewmarket/skewd/internal/domain"
)

// DefaultBaseURL is the Google News RSS root.
const DefaultBaseURL = "https://news.google.com/rss"

const (
	// minRefetchDelay guards against hammering the RSS endpoint when event
	// refreshes arrive faster than headlines change.
	minRefetchDelay = 30 * time.Second

	descriptionLimit = 200
	dedupePrefixLen  = 60
)

// categoryQueries maps a deal category to its search queries. Unknown or
// empty categories fall back to the general queries.
var categoryQueries = map[string][]string{
	"Politics": {"US politics prediction market", "Trump policy", "Congress legislation"},
	"Crypto":   {"bitcoin crypto market", "ethereum price", "crypto regulation"},
	"Sports":   {"NFL NBA sports betting odds", "Super Bowl", "soccer football"},
	"Culture":  {"pop culture entertainment", "celebrity news", "video games"},
	"Finance":  {"stock market Wall Street", "IPO stocks investing"},
	"Tech":     {"technology AI startups"},
	"World":    {"geopolitics Ukraine Russia", "NATO trade war", "world news"},
	"Economy":  {"economy GDP inflation", "Federal Reserve interest rates"},
}

var generalQueries = []string{"prediction market polymarket", "politics crypto sports news"}

// Service fetches and caches headlines per category.
type Service struct {
	baseURL string
	parser  *gofeed.Parser
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	items     []domain.NewsItem
	fetchedAt time.Time
}

// NewService creates a news service. An empty baseURL uses the public
// Google News endpoint.
func NewService(baseURL string, logger *slog.Logger) *Service {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		parser:  gofeed.NewParser(),
		logger:  logger.With(slog.String("component", "news")),
		now:     time.Now,
		cache:   make(map[string]cacheEntry),
	}
}

// Articles returns headlines for the category ranked by relevance to the
// given events. Within the refetch window the cached fetch is re-ranked
// instead of hitting the network again.
func (s *Service) Articles(ctx context.Context, category string, events []domain.MarketEvent) ([]domain.NewsItem, error) {
	cacheKey := category
	if cacheKey == "" {
		cacheKey = "General"
	}

	s.mu.Lock()
	entry, cached := s.cache[cacheKey]
	s.mu.Unlock()

	if !cached || s.now().Sub(entry.fetchedAt) >= minRefetchDelay {
		items := s.fetch(ctx, category)
		entry = cacheEntry{items: items, fetchedAt: s.now()}
		s.mu.Lock()
		s.cache[cacheKey] = entry
		s.mu.Unlock()
	}

	return rankByRelevance(entry.items, events), nil
}

// fetch pulls every query for the category, deduplicating by title prefix.
// A failed query is skipped so one bad feed never empties the page.
func (s *Service) fetch(ctx context.Context, category string) []domain.NewsItem {
	queries, ok := categoryQueries[category]
	if !ok {
		queries = generalQueries
	}
	label := category
	if label == "" {
		label = "General"
	}

	var items []domain.NewsItem
	seenTitles := make(map[string]bool)

	for _, query := range queries {
		feed, err := s.parser.ParseURLWithContext(s.queryURL(query), ctx)
		if err != nil {
			s.logger.Warn("news query failed",
				slog.String("query", query),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, raw := range feed.Items {
			item, ok := convertItem(raw, label)
			if !ok {
				continue
			}
			key := dedupeKey(item.Title)
			if seenTitles[key] {
				continue
			}
			seenTitles[key] = true
			items = append(items, item)
		}
	}
	return items
}

func (s *Service) queryURL(query string) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("hl", "en-US")
	params.Set("gl", "US")
	params.Set("ceid", "US:en")
	return fmt.Sprintf("%s/search?%s", s.baseURL, params.Encode())
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

func convertItem(raw *gofeed.Item, category string) (domain.NewsItem, bool) {
	title := strings.TrimSpace(raw.Title)
	link := strings.TrimSpace(raw.Link)
	if title == "" || link == "" {
		return domain.NewsItem{}, false
	}

	desc := truncate(strings.TrimSpace(htmlTagRe.ReplaceAllString(raw.Description, "")), descriptionLimit)

	return domain.NewsItem{
		Title:       title,
		Link:        link,
		PublishedAt: raw.PublishedParsed,
		Source:      sourceFromTitle(title),
		Description: desc,
		Category:    category,
	}, true
}

// sourceFromTitle extracts the publisher Google News appends after the last
// " - " separator.
func sourceFromTitle(title string) string {
	if idx := strings.LastIndex(title, " - "); idx > 0 {
		return strings.TrimSpace(title[idx+3:])
	}
	return ""
}

func dedupeKey(title string) string {
	return truncate(strings.ToLower(title), dedupePrefixLen)
}

// truncate caps s at limit bytes without splitting a UTF-8 sequence, backing
// up to the nearest rune start.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
