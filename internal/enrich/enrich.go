package enrich

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/obeng-labs/newswire/internal/fetchclient"
	"github.com/obeng-labs/newswire/internal/model"
)

// Metadata is the result of one article-page enrichment. Zero fields mean
// "nothing better found, keep the candidate's value".
type Metadata struct {
	PublishedAt time.Time
	ImageURL    string
	Content     string
}

// rule carries per-publication extraction hints applied before the generic
// cascade.
type rule struct {
	dateSelectors    []string
	datePattern      *regexp.Regexp
	contentSelectors []string
	// drop "read also"/"read more" cross-promo paragraphs and the extra
	// ad wrappers some sites nest inside the article body
	stripPromo bool
}

var sourceRules = map[string]rule{
	"3News": {
		contentSelectors: []string{".article-content"},
		stripPromo:       true,
	},
	"GhanaWeb": {
		dateSelectors:    []string{".date", ".story-date", ".article-date", ".published-date"},
		datePattern:      regexp.MustCompile(`(?i)\d{1,2}\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}`),
		contentSelectors: []string{"#medsection1", ".article-content-area"},
	},
	"AdomOnline": {
		contentSelectors: []string{".td-post-content"},
	},
	"MyJoyOnline": {
		dateSelectors:    []string{".post-date", ".entry-date", ".published", ".article-date", ".meta-info time", `span[class*="date"]`},
		contentSelectors: []string{"#article-text"},
	},
	"Yen": {
		contentSelectors: []string{".js-article-body", ".post-content"},
	},
	"Pulse": {
		contentSelectors: []string{"article", ".article-content"},
	},
}

// Meta-tag conventions for the publish date, most trustworthy first.
var metaDateSelectors = []string{
	`meta[property="og:article:published_time"]`,
	`meta[property="article:published_time"]`,
	`meta[name="article:published_time"]`,
	`meta[property="og:updated_time"]`,
	`meta[property="article:modified_time"]`,
	`meta[itemprop="datePublished"]`,
	`meta[name="pubdate"]`,
}

var genericContentSelectors = []string{".entry-content", ".article-body", ".post-content", ".content-wrapper", "article"}

const (
	// paragraphs shorter than this are captions/snippets, not body text
	minParagraphLen = 20
	// a selector match below this many characters is considered a miss
	minContentLen = 100
)

// Enricher deep-fetches article pages and extracts a canonical publish
// time, lead image and body content.
type Enricher struct {
	client *fetchclient.Client
}

func New(client *fetchclient.Client) *Enricher {
	return &Enricher{client: client}
}

// Enrich fetches one article page and returns whatever higher-confidence
// metadata it can extract. It never fails: any fetch or parse problem
// degrades to empty Metadata so one bad article cannot abort a batch.
func (e *Enricher) Enrich(ctx context.Context, item model.Item) Metadata {
	resp, err := e.client.Fetch(ctx, item.Link, fetchclient.Options{})
	if err != nil {
		log.Printf("[WARN] enrichment skipped for %s: %v", item.Link, err)
		return Metadata{}
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[WARN] enrichment skipped for %s: status %d", item.Link, resp.StatusCode)
		return Metadata{}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		log.Printf("[WARN] enrichment skipped for %s: parse page: %v", item.Link, err)
		return Metadata{}
	}

	r := sourceRules[item.SourceName]

	md := Metadata{ImageURL: extractImage(doc)}
	if t, ok := extractDate(doc, r); ok {
		md.PublishedAt = t
	}
	md.Content = extractContent(doc, resp.Body, r)
	return md
}

func extractImage(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[name="twitter:image"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return ""
}

func extractDate(doc *goquery.Document, r rule) (time.Time, bool) {
	var raw string
	for _, sel := range metaDateSelectors {
		if v, ok := doc.Find(sel).Attr("content"); ok && strings.TrimSpace(v) != "" {
			raw = v
			break
		}
	}
	if raw == "" {
		raw = strings.TrimSpace(doc.Find("#date").Text())
	}
	if raw == "" {
		raw, _ = doc.Find("time").First().Attr("datetime")
	}
	if raw == "" {
		for _, sel := range r.dateSelectors {
			if v := strings.TrimSpace(doc.Find(sel).First().Text()); v != "" {
				raw = v
				break
			}
		}
	}
	if raw == "" && r.datePattern != nil {
		raw = r.datePattern.FindString(doc.Find("body").Text())
	}
	return ParseDate(raw)
}

// extractContent walks the selector cascade; when every selector misses it
// falls back to readability-style extraction over the whole page. Returns
// "" rather than ever substituting garbage for absent content.
func extractContent(doc *goquery.Document, page []byte, r rule) string {
	selectors := append(append([]string{}, r.contentSelectors...), genericContentSelectors...)
	for _, sel := range selectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}
		if content := cleanContainer(container, r); len(content) >= minContentLen {
			return content
		}
	}

	article, err := readability.FromReader(bytes.NewReader(page), nil)
	if err == nil && strings.TrimSpace(article.Content) != "" {
		return article.Content
	}
	return ""
}

func cleanContainer(container *goquery.Selection, r rule) string {
	container.Find(`script, style, iframe, .related-posts, .ads, .ad, [class*="ad-"], [id*="ad-"]`).Remove()
	if r.stripPromo {
		container.Find(".gam-ad-slot, .ad-viewability-tracker, ins.adsbygoogle").Remove()
	}

	var b strings.Builder
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len(text) <= minParagraphLen {
			return
		}
		if r.stripPromo {
			lower := strings.ToLower(text)
			if strings.Contains(lower, "read also") || strings.Contains(lower, "read more") {
				return
			}
		}
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(text))
	})
	return b.String()
}
