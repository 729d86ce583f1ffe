package source

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

const listingPage = `<html><body>
	<div class="story">
		<a href="/news/road-project-launched">Road project launched in Accra region</a>
		<img src="/img/road.jpg">
	</div>
	<div class="story">
		<a href="javascript:void(0)">Interactive widget masquerading as a story</a>
	</div>
	<div class="story">
		<a href="/news/short">Too short</a>
	</div>
	<div class="story">
		<a href="/news/latest">Latest News</a>
	</div>
	<div class="story">
		<a href="/news/road-project-launched">Road project launched in Accra region</a>
	</div>
	<div class="story">
		<a href="/sports/black-stars-squad">Black Stars squad announced for qualifier</a>
		<img src="/img/logo.svg">
	</div>
</body></html>`

func TestHTMLSourceScrapesListing(t *testing.T) {
	srv := serveBody(t, "text/html", listingPage)

	src := NewHTMLSource(newTestClient(), "Example", []Section{
		{Name: "News", URL: srv.URL},
	}, PageRules{
		ItemSelector: ".story",
		ImageBase:    srv.URL,
	})

	items, err := src.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	require.Equal(t, "Road project launched in Accra region", first.Title)
	require.Equal(t, srv.URL+"/news/road-project-launched", first.Link)
	require.Equal(t, srv.URL+"/img/road.jpg", first.ImageURL)
	require.Equal(t, "News", first.Section)
	require.False(t, first.DateValid)

	// vector placeholder images are blanked, not kept
	require.Equal(t, "Black Stars squad announced for qualifier", items[1].Title)
	require.Equal(t, "", items[1].ImageURL)
}

func TestHTMLSourceFallbackSelector(t *testing.T) {
	srv := serveBody(t, "text/html", listingPage)

	src := NewHTMLSource(newTestClient(), "Example", []Section{
		{Name: "News", URL: srv.URL},
	}, PageRules{
		ItemSelector:     ".redesigned-card",
		FallbackSelector: ".story",
	})

	items, err := src.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestHTMLSourceMaxItems(t *testing.T) {
	srv := serveBody(t, "text/html", `<html><body>
		<div class="story"><a href="/news/1">First perfectly valid headline here</a></div>
		<div class="story"><a href="/news/2">Second perfectly valid headline here</a></div>
		<div class="story"><a href="/news/3">Third perfectly valid headline here</a></div>
	</body></html>`)

	src := NewHTMLSource(newTestClient(), "Example", []Section{
		{Name: "News", URL: srv.URL},
	}, PageRules{
		ItemSelector: ".story",
		MaxItems:     2,
	})

	items, err := src.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestHTMLSourceLinkPattern(t *testing.T) {
	srv := serveBody(t, "text/html", `<html><body>
		<div class="story"><a href="/news/article-12345">Story with a proper article link</a></div>
		<div class="story"><a href="/tags/politics">Tag page that is not an article</a></div>
	</body></html>`)

	src := NewHTMLSource(newTestClient(), "Example", []Section{
		{Name: "News", URL: srv.URL},
	}, PageRules{
		ItemSelector: ".story",
		LinkPattern:  regexp.MustCompile(`/news/article-\d+`),
	})

	items, err := src.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, srv.URL+"/news/article-12345", items[0].Link)
}

func TestHTMLSourceNoItemsIsAnError(t *testing.T) {
	srv := serveBody(t, "text/html", "<html><body><p>nothing here</p></body></html>")

	src := NewHTMLSource(newTestClient(), "Example", []Section{
		{Name: "News", URL: srv.URL},
	}, PageRules{ItemSelector: ".story"})

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
}
