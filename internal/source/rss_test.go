package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/obeng-labs/newswire/internal/fetchclient"
)

func newTestClient() *fetchclient.Client {
	return fetchclient.New(nil, fetchclient.Options{
		MinDelay:   time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
		MaxRetries: 1,
		CacheTTL:   time.Minute,
	})
}

func serveBody(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRSSSourcePrimaryParse(t *testing.T) {
	srv := serveBody(t, "application/rss+xml", `<?xml version="1.0"?>
<rss version="2.0"><channel>
	<title>Example Feed</title>
	<link>https://example.com</link>
	<description>Example</description>
	<item>
		<title>Road project launched in Accra</title>
		<link>https://example.com/news/road-project</link>
		<pubDate>Fri, 02 Jan 2026 15:04:05 GMT</pubDate>
		<description>The Minister cut the sod for a long-awaited road project.</description>
		<enclosure url="https://example.com/img/road.jpg" type="image/jpeg" length="1024"/>
	</item>
</channel></rss>`)

	src := NewRSSSource(newTestClient(), "Example", srv.URL, "News")
	items, err := src.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Example", items[0].SourceName)
	require.Equal(t, "Road project launched in Accra", items[0].Title)
	require.Equal(t, "https://example.com/news/road-project", items[0].Link)
	require.Equal(t, "News", items[0].Section)
	require.True(t, items[0].DateValid)
	require.Equal(t, time.Date(2026, time.January, 2, 15, 4, 5, 0, time.UTC), items[0].PublishedAt.UTC())
	require.Equal(t, "https://example.com/img/road.jpg", items[0].ImageURL)
	require.Contains(t, items[0].Content, "cut the sod")
}

func TestRSSSourceFallbackOnBrokenXML(t *testing.T) {
	// raw ampersand in the title makes the document invalid XML
	srv := serveBody(t, "application/rss+xml", `<rss version="2.0"><channel>
	<item>
		<title>Profit & loss season opens on the exchange</title>
		<link>https://example.com/business/profit-loss</link>
		<pubDate>Fri, 02 Jan 2026 15:04:05 GMT</pubDate>
		<category>Business</category>
	</item>
</channel></rss>`)

	src := NewRSSSource(newTestClient(), "Example", srv.URL, "News")
	items, err := src.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Profit & loss season opens on the exchange", items[0].Title)
	require.True(t, items[0].DateValid)
	// the item's own category overrides the source default
	require.Equal(t, "Business", items[0].Section)
}

func TestRSSSourceUnresolvedDateStillSortable(t *testing.T) {
	srv := serveBody(t, "application/rss+xml", `<rss version="2.0"><channel>
	<item>
		<title>Story without any usable date</title>
		<link>https://example.com/news/no-date</link>
	</item>
</channel></rss>`)

	src := NewRSSSource(newTestClient(), "Example", srv.URL, "News")
	items, err := src.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 1)
	require.False(t, items[0].DateValid)
	require.WithinDuration(t, time.Now(), items[0].PublishedAt, time.Minute)
}

func TestRSSSourceHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	src := NewRSSSource(newTestClient(), "Example", srv.URL, "News")
	_, err := src.Fetch(context.Background())
	require.Error(t, err)
}
