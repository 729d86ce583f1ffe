package source

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/SlyMarbo/rss"

	"github.com/obeng-labs/newswire/internal/enrich"
	"github.com/obeng-labs/newswire/internal/fetchclient"
	"github.com/obeng-labs/newswire/internal/model"
)

var imgTagPattern = regexp.MustCompile(`<img[^>]+src=["']([^"'>]+)["']`)

// RSSSource reads an RSS/Atom feed through the rate-limited client. The
// standards-aware parse runs first; when it yields nothing the permissive
// tag scanner in fallback.go gets a go at the same bytes.
type RSSSource struct {
	name    string
	url     string
	section string
	client  *fetchclient.Client
}

func NewRSSSource(client *fetchclient.Client, name, feedURL, section string) *RSSSource {
	return &RSSSource{
		name:    name,
		url:     feedURL,
		section: section,
		client:  client,
	}
}

func (s *RSSSource) Name() string { return s.name }

func (s *RSSSource) Fetch(ctx context.Context) ([]model.Item, error) {
	resp, err := s.client.Fetch(ctx, s.url, fetchclient.Options{})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s: status %d", s.url, resp.StatusCode)
	}

	items := s.parsePrimary(resp.Body)
	if len(items) == 0 {
		items = s.parseWithFallback(resp.Body)
	}
	return items, nil
}

func (s *RSSSource) parsePrimary(raw []byte) []model.Item {
	feed, err := rss.Parse(raw)
	if err != nil {
		log.Printf("[WARN] %s: primary feed parse failed: %v", s.name, err)
		return nil
	}

	var items []model.Item
	for _, it := range feed.Items {
		title := strings.TrimSpace(it.Title)
		link := strings.TrimSpace(it.Link)
		if title == "" || link == "" {
			continue
		}

		content := it.Content
		if content == "" {
			content = it.Summary
		}

		published, valid := sortableTime(it.Date, it.DateValid)
		items = append(items, model.Item{
			SourceName:  s.name,
			Title:       title,
			Link:        resolveURL(s.url, link),
			PublishedAt: published,
			DateValid:   valid,
			Section:     s.section,
			ImageURL:    feedItemImage(it),
			Content:     content,
		})
	}
	return items
}

func (s *RSSSource) parseWithFallback(raw []byte) []model.Item {
	parsed := parseFeedFallback(raw)
	if len(parsed) == 0 {
		return nil
	}
	log.Printf("[WARN] %s: fallback parser recovered %d items", s.name, len(parsed))

	var items []model.Item
	for _, p := range parsed {
		published, valid := sortableTime(enrich.ParseDate(p.pubDate))
		section := s.section
		if p.category != "" {
			section = p.category
		}
		items = append(items, model.Item{
			SourceName:  s.name,
			Title:       p.title,
			Link:        resolveURL(s.url, p.link),
			PublishedAt: published,
			DateValid:   valid,
			Section:     section,
			ImageURL:    p.imageURL,
			Content:     p.content,
		})
	}
	return items
}

// feedItemImage walks the image cascade: explicit enclosure attributes
// first, then the first <img> inside the item's HTML.
func feedItemImage(it *rss.Item) string {
	for _, enc := range it.Enclosures {
		if enc.URL != "" && strings.HasPrefix(enc.Type, "image") {
			return enc.URL
		}
	}
	for _, enc := range it.Enclosures {
		if enc.URL != "" {
			return enc.URL
		}
	}
	if m := imgTagPattern.FindStringSubmatch(it.Content); m != nil {
		return m[1]
	}
	if m := imgTagPattern.FindStringSubmatch(it.Summary); m != nil {
		return m[1]
	}
	return ""
}
