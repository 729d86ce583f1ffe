package source

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/obeng-labs/newswire/internal/enrich"
	"github.com/obeng-labs/newswire/internal/fetchclient"
	"github.com/obeng-labs/newswire/internal/model"
)

// Section is one listing page of an HTML source, e.g. a publication's
// sports front.
type Section struct {
	Name string
	URL  string
}

// PageRules describes how to lift items out of a publication's listing
// markup.
type PageRules struct {
	// ItemSelector matches one anchor (or anchor container) per story.
	ItemSelector string
	// FallbackSelector is tried when ItemSelector matches nothing, for
	// sites that reshuffle their markup between sections.
	FallbackSelector string
	// LinkPattern, when set, keeps only hrefs that look like article URLs.
	LinkPattern *regexp.Regexp
	// ImageBase absolutizes protocol-relative or rooted image paths.
	ImageBase string
	// MaxItems caps how many stories one section contributes per run.
	MaxItems int
}

// HTMLSource scrapes listing pages of publications that expose no usable
// feed. Sections are visited sequentially through the shared rate-limited
// client, so a multi-section source never hammers its host.
type HTMLSource struct {
	name     string
	sections []Section
	rules    PageRules
	client   *fetchclient.Client
}

func NewHTMLSource(client *fetchclient.Client, name string, sections []Section, rules PageRules) *HTMLSource {
	if rules.MaxItems <= 0 {
		rules.MaxItems = 15
	}
	return &HTMLSource{
		name:     name,
		sections: sections,
		rules:    rules,
		client:   client,
	}
}

func (s *HTMLSource) Name() string { return s.name }

func (s *HTMLSource) Fetch(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	seen := map[string]struct{}{}

	for _, section := range s.sections {
		sectionItems, err := s.fetchSection(ctx, section)
		if err != nil {
			log.Printf("[WARN] %s: section %q: %v", s.name, section.Name, err)
			continue
		}
		for _, it := range sectionItems {
			if _, ok := seen[it.Link]; ok {
				continue
			}
			seen[it.Link] = struct{}{}
			items = append(items, it)
		}
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%s: no items scraped from %d sections", s.name, len(s.sections))
	}
	return items, nil
}

func (s *HTMLSource) fetchSection(ctx context.Context, section Section) ([]model.Item, error) {
	resp, err := s.client.Fetch(ctx, section.URL, fetchclient.Options{})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	matches := doc.Find(s.rules.ItemSelector)
	if matches.Length() == 0 && s.rules.FallbackSelector != "" {
		matches = doc.Find(s.rules.FallbackSelector)
	}

	var items []model.Item
	matches.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if it, ok := s.itemFrom(sel, section); ok {
			items = append(items, it)
		}
		return len(items) < s.rules.MaxItems
	})
	return items, nil
}

func (s *HTMLSource) itemFrom(sel *goquery.Selection, section Section) (model.Item, bool) {
	anchor := sel
	if !sel.Is("a") {
		anchor = sel.Find("a").First()
	}
	href, _ := anchor.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" || href == "#" || strings.HasPrefix(strings.ToLower(href), "javascript") {
		return model.Item{}, false
	}
	if s.rules.LinkPattern != nil && !s.rules.LinkPattern.MatchString(href) {
		return model.Item{}, false
	}

	title := anchorTitle(anchor, sel)
	if len(title) <= minTitleLen || isPlaceholderTitle(title) {
		return model.Item{}, false
	}

	image := s.imageFrom(sel)
	if strings.Contains(strings.ToLower(image), ".svg") {
		image = ""
	}

	published, valid := sortableTime(timeFromListing(sel))
	return model.Item{
		SourceName:  s.name,
		Title:       title,
		Link:        resolveURL(section.URL, href),
		PublishedAt: published,
		DateValid:   valid,
		Section:     section.Name,
		ImageURL:    image,
	}, true
}

// anchorTitle prefers the anchor's title attribute, then its text, then any
// heading or paragraph inside the container.
func anchorTitle(anchor, container *goquery.Selection) string {
	if v, ok := anchor.Attr("title"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if t := strings.TrimSpace(anchor.Text()); t != "" {
		return t
	}
	for _, sel := range []string{"h2", "h3", "h4", "p"} {
		if t := strings.TrimSpace(container.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func (s *HTMLSource) imageFrom(sel *goquery.Selection) string {
	img := sel.Find("img").First()
	if img.Length() == 0 {
		return ""
	}

	var src string
	for _, attr := range []string{"src", "data-src", "data-srcset"} {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
			src = strings.TrimSpace(v)
			// lazy-load attributes beat placeholder src values, so keep
			// scanning and take the last candidate
		}
	}
	if src == "" {
		return ""
	}
	// data-srcset lists candidates; the last one is the largest
	if strings.Contains(src, ",") {
		parts := strings.Split(src, ",")
		if fields := strings.Fields(parts[len(parts)-1]); len(fields) > 0 {
			src = fields[0]
		}
	}
	if s.rules.ImageBase != "" && !strings.HasPrefix(src, "http") {
		return resolveURL(s.rules.ImageBase, src)
	}
	return src
}

// timeFromListing tries the container's <time datetime> if present. Most
// listings carry no machine-readable date at all; enrichment fills those in.
func timeFromListing(sel *goquery.Selection) (time.Time, bool) {
	if v, ok := sel.Find("time").First().Attr("datetime"); ok {
		if t, ok := enrich.ParseDate(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
