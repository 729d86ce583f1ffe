package source

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/obeng-labs/newswire/internal/model"
)

// Source pulls candidate items from one publication entry point.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.Item, error)
}

// StaticProvider serves the fixed, deploy-time list of sources.
type StaticProvider struct {
	sources []Source
}

func NewStaticProvider(sources []Source) *StaticProvider {
	return &StaticProvider{sources: sources}
}

func (p *StaticProvider) Sources(ctx context.Context) ([]Source, error) {
	return p.sources, nil
}

// minTitleLen rejects navigation stubs and truncated anchors scraped from
// listing pages.
const minTitleLen = 10

func isPlaceholderTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	for _, pattern := range model.PlaceholderTitles {
		p := strings.ToLower(pattern)
		if t == p || strings.Contains(t, p) {
			return true
		}
	}
	return false
}

// resolveURL absolutizes a possibly-relative link against a base. Unparsable
// input comes back unchanged, matching how listings are scraped best-effort.
func resolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// sortableTime gives items without a resolvable publish date a
// low-confidence "now" placeholder so they still sort sensibly.
func sortableTime(t time.Time, ok bool) (time.Time, bool) {
	if ok {
		return t.UTC(), true
	}
	return time.Now().UTC(), false
}
