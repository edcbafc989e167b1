package news

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"github.com/skewmarket/skewd/internal/domain"
)

func rssFeed(titles ...string) string {
	items := ""
	for i, title := range titles {
		items += fmt.Sprintf(`
			<item>
				<title>%s</title>
				<link>https://example.com/%d</link>
				<pubDate>Mon, 02 Mar 2026 1%d:00:00 GMT</pubDate>
				<description>&lt;b&gt;Some&lt;/b&gt; description</description>
			</item>`, title, i, i)
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
		<rss version="2.0"><channel><title>Search</title>` + items + `</channel></rss>`
}

func testNewsLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestArticlesFetchesAndDedupes(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/rss+xml")
		// Two syndicated copies of one story share the first sixty title
		// characters; only one survives.
		io.WriteString(w, rssFeed(
			"OpenAI ships new model with record benchmark scores across the board - TechWire",
			"OpenAI ships new model with record benchmark scores across the board - OtherSite",
			"Chip startup raises round - TechWire",
		))
	}))
	defer server.Close()

	s := NewService(server.URL, testNewsLogger())
	items, err := s.Articles(context.Background(), "Tech", nil)
	if err != nil {
		t.Fatalf("Articles: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("items = %d (%+v), want 2 after title dedupe", len(items), items)
	}
	if items[0].Category != "Tech" {
		t.Errorf("category = %q, want Tech", items[0].Category)
	}
	if items[0].Source != "TechWire" {
		t.Errorf("source = %q, want TechWire", items[0].Source)
	}
	if items[0].Description != "Some description" {
		t.Errorf("description = %q, want HTML stripped", items[0].Description)
	}
	if items[0].PublishedAt == nil {
		t.Error("pubDate not parsed")
	}
}

func TestArticlesRefetchGuard(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		io.WriteString(w, rssFeed("Headline - Wire"))
	}))
	defer server.Close()

	s := NewService(server.URL, testNewsLogger())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if _, err := s.Articles(context.Background(), "Tech", nil); err != nil {
		t.Fatal(err)
	}
	first := requests.Load()
	if first == 0 {
		t.Fatal("no fetch happened")
	}

	// Inside the guard window: served from cache.
	now = now.Add(10 * time.Second)
	if _, err := s.Articles(context.Background(), "Tech", nil); err != nil {
		t.Fatal(err)
	}
	if requests.Load() != first {
		t.Fatalf("requests = %d, want no refetch inside guard", requests.Load())
	}

	// Past the guard window: refetched.
	now = now.Add(minRefetchDelay)
	if _, err := s.Articles(context.Background(), "Tech", nil); err != nil {
		t.Fatal(err)
	}
	if requests.Load() == first {
		t.Fatal("stale cache was not refetched")
	}
}

func TestArticlesSkipsFailedQueries(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		io.WriteString(w, rssFeed("Politics headline - Wire"))
	}))
	defer server.Close()

	// Politics has three queries; the first fails and the rest still land.
	s := NewService(server.URL, testNewsLogger())
	items, err := s.Articles(context.Background(), "Politics", nil)
	if err != nil {
		t.Fatalf("Articles: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %+v, want the surviving headline", items)
	}
}

func TestConvertItemTruncatesOnRuneBoundary(t *testing.T) {
	// A two-byte rune straddles the byte limit; the cut must back up to its
	// start instead of emitting half the sequence.
	desc := strings.Repeat("a", descriptionLimit-1) + "éé"
	item, ok := convertItem(&gofeed.Item{
		Title:       "headline - Reuters",
		Link:        "https://example.com/a",
		Description: desc,
	}, "Crypto")
	if !ok {
		t.Fatal("item dropped")
	}
	if !utf8.ValidString(item.Description) {
		t.Fatalf("description is invalid UTF-8: %q", item.Description)
	}
	if len(item.Description) > descriptionLimit {
		t.Errorf("description length = %d", len(item.Description))
	}
	if !strings.HasSuffix(item.Description, "a") {
		t.Errorf("description = %q, want the straddling rune dropped", item.Description)
	}
}

func TestRankByRelevance(t *testing.T) {
	earlier := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	later := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []domain.MarketEvent{
		{Title: "Will Bitcoin close above $100,000 before April?"},
		{Title: "Will the Federal Reserve cut rates in March?"},
	}
	items := []domain.NewsItem{
		{Title: "Local team wins friendly", PublishedAt: &later},
		{Title: "Bitcoin surges toward $100k as Federal Reserve signals cuts", PublishedAt: &earlier},
		{Title: "Federal shutdown looms", PublishedAt: &later},
		{Title: "Federal shutdown debated", PublishedAt: &earlier},
	}

	ranked := rankByRelevance(items, events)

	// "bitcoin", "federal", "reserve" all hit the second headline.
	if ranked[0].Title != "Bitcoin surges toward $100k as Federal Reserve signals cuts" {
		t.Fatalf("top = %q", ranked[0].Title)
	}
	if ranked[0].Relevance < 3 {
		t.Errorf("relevance = %d, want >= 3", ranked[0].Relevance)
	}
	// Equal relevance ties break by recency.
	if ranked[1].Title != "Federal shutdown looms" || ranked[2].Title != "Federal shutdown debated" {
		t.Errorf("tie order = %q, %q", ranked[1].Title, ranked[2].Title)
	}
	// Zero-relevance items sink.
	if ranked[3].Title != "Local team wins friendly" {
		t.Errorf("last = %q", ranked[3].Title)
	}

	// Skip-words alone must not score: "market" and "price" are excluded.
	none := rankByRelevance([]domain.NewsItem{{Title: "Market price update"}}, events)
	if none[0].Relevance != 0 {
		t.Errorf("skip-word relevance = %d, want 0", none[0].Relevance)
	}
}

func TestRankWithoutEventsPassesThrough(t *testing.T) {
	items := []domain.NewsItem{{Title: "B"}, {Title: "A"}}
	got := rankByRelevance(items, nil)
	if got[0].Title != "B" || got[1].Title != "A" {
		t.Fatalf("got %+v, want original order", got)
	}
}
