package deals

import "github.com/skewmarket/skewd/internal/domain"

// CategoryOrder is the fixed display order for resolved parent categories.
var CategoryOrder = []string{
	"Politics", "Crypto", "Sports", "Culture", "Finance",
	"Tech", "Business", "World", "Economy", "Science",
}

// minEventsPerCategory is the visibility threshold: a category with a single
// event is noise, not a browsing surface.
const minEventsPerCategory = 2

// tagToCategory maps granular upstream tags to a parent category so events
// without a broad tag still land somewhere.
var tagToCategory = map[string]string{
	// Politics
	"Trump": "Politics", "Trump Presidency": "Politics", "U.S. Politics": "Politics",
	"Congress": "Politics", "Cabinet": "Politics", "house": "Politics",
	"us government": "Politics", "Immigration": "Politics", "Immigration/Border": "Politics",
	"Courts": "Politics", "DOGE": "Politics", "Global Elections": "Politics",
	"abortion": "Politics",
	// Geopolitics
	"Geopolitics": "World", "nato": "World", "Trade War": "World",
	"Ukraine": "World", "Foreign Policy": "World", "russia": "World",
	"China": "World", "India": "World", "Brazil": "World", "France": "World",
	"eu": "World", "uk": "World", "Starmer": "World", "Macron": "World",
	"putin": "World", "zelensky": "World", "Trump-Zelenskyy": "World",
	"Trump-Putin": "World", "Security Guarantee": "World",
	// Sports
	"NFL": "Sports", "NFL Playoffs": "Sports", "Super Bowl": "Sports",
	"Super Bowl LX": "Sports", "Soccer": "Sports",
	// Culture
	"Music": "Culture", "Celebrities": "Culture", "Taylor Swift": "Culture",
	"Creators": "Culture", "video games": "Culture", "GTA VI": "Culture",
	"All-In": "Culture", "Epstein": "Culture",
	// Finance and economy
	"Stocks": "Finance", "IPOs": "Finance", "MicroStrategy": "Finance",
	"Macro Indicators": "Economy", "GDP": "Economy", "deficit": "Economy",
	"budget": "Economy",
	// Crypto
	"exchange": "Crypto", "balance": "Crypto", "bitboy": "Crypto",
}

var parentCategory = func() map[string]bool {
	set := make(map[string]bool, len(CategoryOrder))
	for _, c := range CategoryOrder {
		set[c] = true
	}
	return set
}()

// EventCategories resolves the parent categories an event belongs to, from
// its tags. Tags that are already a parent category count directly.
func EventCategories(event *domain.MarketEvent) []string {
	var cats []string
	seen := make(map[string]bool)
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			cats = append(cats, c)
		}
	}
	for _, tag := range event.Tags {
		if tag.Label == "" {
			continue
		}
		if parentCategory[tag.Label] {
			add(tag.Label)
		} else if mapped, ok := tagToCategory[tag.Label]; ok {
			add(mapped)
		}
	}
	return cats
}

// ExtractCategories returns the categories worth showing for the event set,
// in display order.
func ExtractCategories(events []domain.ScoredEvent) []string {
	counts := make(map[string]int)
	for i := range events {
		for _, c := range EventCategories(&events[i].MarketEvent) {
			counts[c]++
		}
	}
	var out []string
	for _, c := range CategoryOrder {
		if counts[c] >= minEventsPerCategory {
			out = append(out, c)
		}
	}
	return out
}
