package source

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/obeng-labs/newswire/internal/enrich"
	"github.com/obeng-labs/newswire/internal/fetchclient"
	"github.com/obeng-labs/newswire/internal/model"
)

var templatePlaceholder = regexp.MustCompile(`\{([^}]+)\}`)

// APIRules maps a publication's JSON response onto items. Paths use gjson
// syntax and are relative to one element of ItemsPath.
type APIRules struct {
	// ItemsPath locates the array of stories in the response.
	ItemsPath string
	// StatusPath and StatusOK, when set, gate the whole response.
	StatusPath string
	StatusOK   string

	TitlePath   string
	LinkPath    string
	ImagePath   string
	DatePath    string
	SectionPath string
	ContentPath string

	// LinkTemplate builds article URLs for APIs that return no direct
	// link. {path} placeholders are resolved against the item.
	LinkTemplate string
}

// APISource reads stories from a publication's JSON endpoint.
type APISource struct {
	name    string
	url     string
	section string
	rules   APIRules
	client  *fetchclient.Client
}

func NewAPISource(client *fetchclient.Client, name, apiURL, section string, rules APIRules) *APISource {
	return &APISource{
		name:    name,
		url:     apiURL,
		section: section,
		rules:   rules,
		client:  client,
	}
}

func (s *APISource) Name() string { return s.name }

func (s *APISource) Fetch(ctx context.Context) ([]model.Item, error) {
	resp, err := s.client.Fetch(ctx, s.url, fetchclient.Options{
		Header: http.Header{"Accept": []string{"application/json"}},
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api %s: status %d", s.url, resp.StatusCode)
	}

	if s.rules.StatusPath != "" {
		if got := gjson.GetBytes(resp.Body, s.rules.StatusPath).String(); got != s.rules.StatusOK {
			return nil, fmt.Errorf("api %s: response status %q", s.url, got)
		}
	}

	rows := gjson.GetBytes(resp.Body, s.rules.ItemsPath)
	if !rows.IsArray() {
		return nil, fmt.Errorf("api %s: no item array at %q", s.url, s.rules.ItemsPath)
	}

	var items []model.Item
	for _, row := range rows.Array() {
		title := strings.TrimSpace(row.Get(s.rules.TitlePath).String())
		link := s.itemLink(row)
		if title == "" || link == "" || isPlaceholderTitle(title) {
			continue
		}

		section := s.section
		if s.rules.SectionPath != "" {
			if v := strings.TrimSpace(row.Get(s.rules.SectionPath).String()); v != "" {
				section = v
			}
		}

		published, valid := sortableTime(enrich.ParseDate(row.Get(s.rules.DatePath).String()))
		items = append(items, model.Item{
			SourceName:  s.name,
			Title:       title,
			Link:        link,
			PublishedAt: published,
			DateValid:   valid,
			Section:     section,
			ImageURL:    strings.TrimSpace(row.Get(s.rules.ImagePath).String()),
			Content:     row.Get(s.rules.ContentPath).String(),
		})
	}
	return items, nil
}

func (s *APISource) itemLink(row gjson.Result) string {
	if s.rules.LinkPath != "" {
		if v := strings.TrimSpace(row.Get(s.rules.LinkPath).String()); v != "" {
			return resolveURL(s.url, v)
		}
	}
	if s.rules.LinkTemplate == "" {
		return ""
	}
	incomplete := false
	link := templatePlaceholder.ReplaceAllStringFunc(s.rules.LinkTemplate, func(ph string) string {
		path := ph[1 : len(ph)-1]
		v := row.Get(path).String()
		if v == "" {
			incomplete = true
		}
		return v
	})
	if incomplete {
		return ""
	}
	return link
}
