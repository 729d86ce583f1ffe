package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/obeng-labs/newswire/internal/fetchclient"
	"github.com/obeng-labs/newswire/internal/model"
)

func newTestEnricher() *Enricher {
	return New(fetchclient.New(nil, fetchclient.Options{
		MinDelay:   time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
		MaxRetries: 1,
		CacheTTL:   time.Minute,
	}))
}

func servePage(t *testing.T, page string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const longParagraphs = `
	<p>The Minister for Roads announced a major rehabilitation programme covering several regional highways this year.</p>
	<p>Contractors are expected to move to site within the next two weeks, according to the ministry statement.</p>`

func TestEnrichMetaTags(t *testing.T) {
	srv := servePage(t, `<html><head>
		<meta property="og:article:published_time" content="2026-01-14T10:00:00Z">
		<meta property="og:image" content="https://cdn.example.com/lead.jpg">
	</head><body><div class="entry-content">`+longParagraphs+`</div></body></html>`)

	md := newTestEnricher().Enrich(context.Background(), model.Item{Link: srv.URL})

	require.Equal(t, time.Date(2026, time.January, 14, 10, 0, 0, 0, time.UTC), md.PublishedAt)
	require.Equal(t, "https://cdn.example.com/lead.jpg", md.ImageURL)
	require.Contains(t, md.Content, "rehabilitation programme")
	require.Contains(t, md.Content, "<p>")
}

func TestEnrichTwitterImageFallback(t *testing.T) {
	srv := servePage(t, `<html><head>
		<meta name="twitter:image" content="https://cdn.example.com/tw.jpg">
	</head><body><div class="entry-content">`+longParagraphs+`</div></body></html>`)

	md := newTestEnricher().Enrich(context.Background(), model.Item{Link: srv.URL})

	require.Equal(t, "https://cdn.example.com/tw.jpg", md.ImageURL)
}

func TestEnrichTimeElementDate(t *testing.T) {
	srv := servePage(t, `<html><body>
		<time datetime="2026-01-14T10:00:00Z">14 January 2026</time>
		<div class="entry-content">`+longParagraphs+`</div></body></html>`)

	md := newTestEnricher().Enrich(context.Background(), model.Item{Link: srv.URL})

	require.Equal(t, time.Date(2026, time.January, 14, 10, 0, 0, 0, time.UTC), md.PublishedAt)
}

func TestEnrichSourceRuleContainer(t *testing.T) {
	srv := servePage(t, `<html><body>
		<div id="article-text">`+longParagraphs+`</div>
	</body></html>`)

	md := newTestEnricher().Enrich(context.Background(), model.Item{
		SourceName: "MyJoyOnline",
		Link:       srv.URL,
	})

	require.Contains(t, md.Content, "rehabilitation programme")
}

func TestEnrichStripsPromoParagraphs(t *testing.T) {
	srv := servePage(t, `<html><body><div class="article-content">`+longParagraphs+`
		<p>READ ALSO: Minister inspects abandoned interchange project in Kumasi</p>
	</div></body></html>`)

	md := newTestEnricher().Enrich(context.Background(), model.Item{
		SourceName: "3News",
		Link:       srv.URL,
	})

	require.Contains(t, md.Content, "rehabilitation programme")
	require.NotContains(t, md.Content, "READ ALSO")
}

func TestEnrichNeverFails(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		md := newTestEnricher().Enrich(context.Background(), model.Item{Link: srv.URL})
		require.Equal(t, Metadata{}, md)
	})

	t.Run("unreachable host", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		md := newTestEnricher().Enrich(context.Background(), model.Item{Link: srv.URL})
		require.Equal(t, Metadata{}, md)
	})
}
