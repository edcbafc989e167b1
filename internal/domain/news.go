package domain

import "time"

// NewsItem is one syndication-feed article matched against the live event set.
// Relevance counts event-title keywords appearing in the article title.
type NewsItem struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	PublishedAt *time.Time `json:"publishedAt"`
	Source      string     `json:"source,omitempty"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category"`
	Relevance   int        `json:"relevance"`
}
