package news

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/skewmarket/skewd/internal/domain"
)

// skipWords are common words excluded from event-title keywords.
var skipWords = map[string]bool{
	"will": true, "what": true, "when": true, "with": true, "this": true,
	"that": true, "from": true, "have": true, "been": true, "more": true,
	"than": true, "before": true, "after": true, "about": true, "into": true,
	"over": true, "under": true, "does": true, "their": true, "which": true,
	"would": true, "could": true, "should": true, "other": true, "each": true,
	"most": true, "some": true, "these": true, "those": true, "them": true,
	"then": true, "only": true, "very": true, "just": true, "also": true,
	"year": true, "years": true, "market": true, "price": true,
}

var wordRe = regexp.MustCompile(`[a-z]{4,}`)

// rankByRelevance scores each headline by how many event-title keywords it
// contains and sorts by relevance, then recency. With no events the items
// pass through unscored in their original order.
func rankByRelevance(items []domain.NewsItem, events []domain.MarketEvent) []domain.NewsItem {
	out := append([]domain.NewsItem(nil), items...)
	if len(events) == 0 {
		return out
	}

	keywords := eventKeywords(events)
	for i := range out {
		titleLower := strings.ToLower(out[i].Title)
		relevance := 0
		for kw := range keywords {
			if strings.Contains(titleLower, kw) {
				relevance++
			}
		}
		out[i].Relevance = relevance
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Relevance != out[j].Relevance {
			return out[i].Relevance > out[j].Relevance
		}
		return pubTime(out[i]).After(pubTime(out[j]))
	})
	return out
}

// eventKeywords collects meaningful words (4+ letters, skip-list filtered)
// from the event titles.
func eventKeywords(events []domain.MarketEvent) map[string]bool {
	keywords := make(map[string]bool)
	for i := range events {
		for _, w := range wordRe.FindAllString(strings.ToLower(events[i].Title), -1) {
			if !skipWords[w] {
				keywords[w] = true
			}
		}
	}
	return keywords
}

func pubTime(item domain.NewsItem) time.Time {
	if item.PublishedAt == nil {
		return time.Time{}
	}
	return *item.PublishedAt
}
