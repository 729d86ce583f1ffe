package fetcher

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/obeng-labs/newswire/internal/dedup"
	"github.com/obeng-labs/newswire/internal/enrich"
	"github.com/obeng-labs/newswire/internal/model"
	"github.com/obeng-labs/newswire/internal/source"
)

// ArticleStorage is the slice of the store the pipeline needs.
type ArticleStorage interface {
	UpsertByLink(ctx context.Context, articles []model.Article) (int, error)
	AllLinks(ctx context.Context) ([]string, error)
	LatestPublishedBySource(ctx context.Context) (map[string]time.Time, error)
	PurgeInvalid(ctx context.Context) (int64, error)
	PurgeOverRetention(ctx context.Context, keep int) (int64, error)
}

// SourceProvider yields the sources to poll on each run.
type SourceProvider interface {
	Sources(ctx context.Context) ([]source.Source, error)
}

// Enricher fills in higher-confidence metadata for one item.
type Enricher interface {
	Enrich(ctx context.Context, item model.Item) enrich.Metadata
}

type Config struct {
	FetchInterval       time.Duration
	EnrichBatchSize     int
	FuzzyDedup          bool
	SimilarityThreshold float64
	MaxArticles         int
	MaxArticleAge       time.Duration
}

// Stats summarizes one pipeline run.
type Stats struct {
	Fetched        int
	Duplicates     int
	New            int
	Enriched       int
	Added          int
	CleanedInvalid int64
	CleanedOld     int64
}

// Fetcher runs the whole pipeline: poll sources, dedupe, filter against
// the store, enrich the freshest batch and persist.
type Fetcher struct {
	storage  ArticleStorage
	provider SourceProvider
	enricher Enricher
	cfg      Config
}

func New(storage ArticleStorage, provider SourceProvider, enricher Enricher, cfg Config) *Fetcher {
	if cfg.EnrichBatchSize <= 0 {
		cfg.EnrichBatchSize = 20
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 0.75
	}
	if cfg.MaxArticles <= 0 {
		cfg.MaxArticles = 500
	}
	if cfg.MaxArticleAge <= 0 {
		cfg.MaxArticleAge = 7 * 24 * time.Hour
	}
	return &Fetcher{
		storage:  storage,
		provider: provider,
		enricher: enricher,
		cfg:      cfg,
	}
}

// Start runs the pipeline on the configured interval until the context is
// cancelled. The first run fires immediately.
func (f *Fetcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(f.cfg.FetchInterval)
	defer ticker.Stop()

	if _, err := f.Fetch(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ticker.C:
			if _, err := f.Fetch(ctx); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Fetch executes one pipeline run.
func (f *Fetcher) Fetch(ctx context.Context) (Stats, error) {
	var stats Stats

	sources, err := f.provider.Sources(ctx)
	if err != nil {
		return stats, fmt.Errorf("get sources: %w", err)
	}

	items := f.fetchAll(ctx, sources)
	stats.Fetched = len(items)

	unique := dedup.Dedupe(items, f.cfg.FuzzyDedup, f.cfg.SimilarityThreshold)
	stats.Duplicates = len(items) - len(unique)
	sortNewestFirst(unique)

	links, err := f.storage.AllLinks(ctx)
	if err != nil {
		return stats, fmt.Errorf("load known links: %w", err)
	}
	watermarks, err := f.storage.LatestPublishedBySource(ctx)
	if err != nil {
		return stats, fmt.Errorf("load watermarks: %w", err)
	}

	fresh := selectNew(unique, links, watermarks)
	stats.New = len(fresh)

	batch := fresh
	if len(batch) > f.cfg.EnrichBatchSize {
		batch = batch[:f.cfg.EnrichBatchSize]
	}

	for i := range batch {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		md := f.enricher.Enrich(ctx, batch[i])
		if md != (enrich.Metadata{}) {
			stats.Enriched++
		}
		applyMetadata(&batch[i], md)
	}

	publishable := lo.Filter(batch, func(it model.Item, _ int) bool {
		if it.DateValid && time.Since(it.PublishedAt) > f.cfg.MaxArticleAge {
			return false
		}
		if it.ImageURL == "" || strings.Contains(strings.ToLower(it.ImageURL), ".svg") {
			return false
		}
		return true
	})

	articles := lo.Map(publishable, func(it model.Item, _ int) model.Article {
		return model.Article{
			SourceName:  it.SourceName,
			Title:       it.Title,
			Link:        it.Link,
			Section:     it.Section,
			ImageURL:    it.ImageURL,
			Content:     it.Content,
			PublishedAt: it.PublishedAt,
		}
	})

	added, err := f.storage.UpsertByLink(ctx, articles)
	if err != nil {
		return stats, fmt.Errorf("store articles: %w", err)
	}
	stats.Added = added

	if stats.CleanedInvalid, err = f.storage.PurgeInvalid(ctx); err != nil {
		log.Printf("[WARN] purge invalid articles: %v", err)
	}
	if stats.CleanedOld, err = f.storage.PurgeOverRetention(ctx, f.cfg.MaxArticles); err != nil {
		log.Printf("[WARN] purge over retention: %v", err)
	}

	log.Printf(
		"run done: fetched=%d duplicates=%d new=%d enriched=%d added=%d cleaned=%d/%d",
		stats.Fetched, stats.Duplicates, stats.New, stats.Enriched, stats.Added,
		stats.CleanedInvalid, stats.CleanedOld,
	)
	return stats, nil
}

// fetchAll polls every source concurrently. A failing source is logged and
// skipped so one dead feed cannot starve a run.
func (f *Fetcher) fetchAll(ctx context.Context, sources []source.Source) []model.Item {
	results := make([][]model.Item, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			items, err := src.Fetch(ctx)
			if err != nil {
				log.Printf("[ERROR] fetch items from source %q: %v", src.Name(), err)
				return
			}
			results[i] = items
		}(i, src)
	}
	wg.Wait()

	var all []model.Item
	for _, items := range results {
		all = append(all, items...)
	}
	return all
}

func applyMetadata(item *model.Item, md enrich.Metadata) {
	if !md.PublishedAt.IsZero() {
		item.PublishedAt = md.PublishedAt
		item.DateValid = true
	}
	if md.ImageURL != "" {
		item.ImageURL = md.ImageURL
	}
	if md.Content != "" {
		item.Content = md.Content
	}
}

func sortNewestFirst(items []model.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
}
