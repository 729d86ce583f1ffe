package source

import (
	"regexp"

	"github.com/obeng-labs/newswire/internal/fetchclient"
	"github.com/obeng-labs/newswire/internal/model"
)

// genericFeeds are publications whose RSS output is standard enough to need
// no per-source handling beyond the shared parse-and-fallback path.
var genericFeeds = []model.Source{
	{Name: "Yen", URL: "https://yen.com.gh/rss/all.rss", Section: "News"},
	{Name: "Pulse", URL: "https://www.pulse.com.gh/rss", Section: "News"},
	{Name: "GNA", URL: "https://gna.org.gh/feed/", Section: "News"},
	{Name: "GraphicOnline", URL: "https://www.graphic.com.gh/rss/news.xml", Section: "News"},
	{Name: "GhanaianTimes", URL: "https://www.ghanaiantimes.com.gh/feed/", Section: "News"},
	{Name: "StarrFM", URL: "https://starrfm.com.gh/feed/", Section: "News"},
	{Name: "NewsGhana", URL: "https://newsghana.com.gh/feed/", Section: "News"},
	{Name: "TheBFT", URL: "https://thebftonline.com/feed/", Section: "Business"},
	{Name: "AtinkaOnline", URL: "https://atinkanews.net/feed/", Section: "News"},
	{Name: "AsaaseRadio", URL: "https://asaaseradio.com/feed/", Section: "News"},
	{Name: "TheHerald", URL: "https://theheraldghana.com/feed/", Section: "News"},
	{Name: "TheChronicle", URL: "https://thechronicle.com.gh/feed/", Section: "News"},
	{Name: "GhPage", URL: "https://www.ghpage.com/feed/", Section: "Entertainment"},
	{Name: "AmeyawDebrah", URL: "https://ameyawdebrah.com/feed/", Section: "Entertainment"},
	{Name: "YFMGhana", URL: "https://www.yfmghana.com/feed/", Section: "Entertainment"},
	{Name: "HappyGhana", URL: "https://www.happyghana.com/feed/", Section: "News"},
	{Name: "GhanaSoccerNet", URL: "https://ghanasoccernet.com/feed", Section: "Sports"},
}

// DefaultSources is the deploy-time source catalogue. Every source shares
// one rate-limited client, so per-domain pacing holds across the whole set.
func DefaultSources(client *fetchclient.Client) []Source {
	sources := []Source{
		NewRSSSource(client, "AdomOnline", "https://www.adomonline.com/feed/", "News"),
		NewRSSSource(client, "MyJoyOnline", "https://www.myjoyonline.com/feed/", "News"),
		NewRSSSource(client, "3News", "https://3news.com/feed/", "News"),
		NewRSSSource(client, "DailyGuide", "https://dailyguidenetwork.com/feed/", "News"),

		NewHTMLSource(client, "GhanaWeb", []Section{
			{Name: "News", URL: "https://www.ghanaweb.com/GhanaHomePage/NewsArchive/"},
			{Name: "Sports", URL: "https://www.ghanaweb.com/GhanaHomePage/SportsArchive/"},
			{Name: "Business", URL: "https://www.ghanaweb.com/GhanaHomePage/business/"},
		}, PageRules{
			ItemSelector:     ".upper_article_text a, .afcon_btm_txt a",
			FallbackSelector: ".inner_artl_link a",
			LinkPattern:      regexp.MustCompile(`artikel\.php\?ID=\d+|/GhanaHomePage/.+/.+-\d+`),
			ImageBase:        "https://www.ghanaweb.com",
			MaxItems:         15,
		}),

		NewHTMLSource(client, "CitiNewsRoom", []Section{
			{Name: "News", URL: "https://citinewsroom.com/news/"},
			{Name: "Business", URL: "https://citinewsroom.com/business/"},
			{Name: "Sports", URL: "https://citinewsroom.com/sports/"},
			{Name: "Entertainment", URL: "https://citinewsroom.com/showbiz/"},
			{Name: "Politics", URL: "https://citinewsroom.com/politics/"},
		}, PageRules{
			ItemSelector:     ".jeg_post .jeg_post_title a",
			FallbackSelector: "article h3 a",
			MaxItems:         10,
		}),

		NewAPISource(client, "PeaceFM", "https://www.peacefmonline.com/api/news/latest", "News", APIRules{
			ItemsPath:    "data",
			StatusPath:   "status",
			StatusOK:     "success",
			TitlePath:    "main_title",
			ImagePath:    "main_photo.photo_url",
			DatePath:     "created_at",
			SectionPath:  "category.name",
			LinkTemplate: "https://www.peacefmonline.com/pages/{category.slug}/{section}/{slug}",
		}),
	}

	for _, f := range genericFeeds {
		sources = append(sources, NewRSSSource(client, f.Name, f.URL, f.Section))
	}
	return sources
}
