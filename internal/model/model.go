package model

import "time"

// Item is a candidate article discovered from a source, before enrichment.
type Item struct {
	// Name of the originating publication
	SourceName string
	// Headline, stored verbatim; normalized only for duplicate comparison
	Title string
	// Canonical absolute URL; this is the dedup and upsert key
	Link string
	// Publish time reported by the source. When DateValid is false this is
	// a low-confidence placeholder used for sorting only.
	PublishedAt time.Time
	DateValid   bool
	// Category label, defaulting per source
	Section string
	// Lead image, may be empty until enrichment
	ImageURL string
	// Article body HTML, populated from full-content feeds or by enrichment
	Content string
}

// Article is the persisted record shape owned by storage.
type Article struct {
	ID          int64
	SourceName  string
	Title       string
	Link        string
	Section     string
	ImageURL    string
	Content     string
	PublishedAt time.Time
	// When the article was announced to the notification channel
	PostedAt time.Time
	// Time of first ingestion
	CreatedAt time.Time
}

// Source describes a configured entry point of one publication.
type Source struct {
	Name string
	// Feed or listing URL the pipeline pulls from
	URL string
	// Default section label for items of this source
	Section string
}

// PlaceholderTitles are navigation/landing-page headings that sources leak
// into listings. Items carrying them are never real articles.
var PlaceholderTitles = []string{
	"Home - News", "Home - Business", "Home - Sports", "Home-Business",
	"Business archive", "News Archive", "Sports Archive", "Photo Archives",
	"Archive", "Category:", "Section:", "More News", "More Stories",
	"View All", "Latest News", "Top Stories", "Click here", "Read more",
}
