package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/obeng-labs/newswire/internal/config"
	"github.com/obeng-labs/newswire/internal/enrich"
	"github.com/obeng-labs/newswire/internal/fetchclient"
	"github.com/obeng-labs/newswire/internal/fetcher"
	"github.com/obeng-labs/newswire/internal/notifier"
	"github.com/obeng-labs/newswire/internal/source"
	"github.com/obeng-labs/newswire/internal/storage"
	"github.com/obeng-labs/newswire/internal/summary"
)

func main() {
	cfg := config.Get()

	db, err := sqlx.Connect("postgres", cfg.DatabaseDSN)
	if err != nil {
		log.Printf("[ERROR] failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		articleStorage = storage.NewArticleStorage(db)
		client         = fetchclient.New(nil, fetchclient.Options{
			MinDelay:   cfg.MinDelay,
			MaxDelay:   cfg.MaxDelay,
			MaxRetries: cfg.MaxRetries,
			CacheTTL:   cfg.CacheTTL,
		})
		provider = source.NewStaticProvider(source.DefaultSources(client))
		pipeline = fetcher.New(articleStorage, provider, enrich.New(client), fetcher.Config{
			FetchInterval:       cfg.FetchInterval,
			EnrichBatchSize:     cfg.EnrichBatchSize,
			FuzzyDedup:          cfg.FuzzyDedup,
			SimilarityThreshold: cfg.SimilarityThreshold,
			MaxArticles:         cfg.MaxArticles,
			MaxArticleAge:       cfg.MaxArticleAge,
		})
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Batch mode: one bounded run, for invocation from an external scheduler.
	if cfg.FetchInterval <= 0 {
		runCtx, cancelRun := context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancelRun()

		stats, err := pipeline.Fetch(runCtx)
		if err != nil {
			log.Printf("[ERROR] pipeline run failed: %v", err)
			os.Exit(1)
		}
		log.Printf("added %d articles", stats.Added)
		return
	}

	// Daemon mode: periodic pipeline plus the optional Telegram digest.
	if cfg.TelegramBotToken != "" {
		botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			log.Printf("[ERROR] failed to create bot: %v", err)
			os.Exit(1)
		}

		digest := notifier.New(
			articleStorage,
			summary.NewOpenAISummarizer(cfg.OpenAIKey, cfg.OpenAIPrompt),
			botAPI,
			client,
			cfg.NotificationInterval,
			2*cfg.FetchInterval,
			cfg.TelegramChannelID,
		)

		go func(ctx context.Context) {
			if err := digest.Start(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Printf("[ERROR] notifier stopped: %v", err)
					return
				}
				log.Println("notifier stopped")
			}
		}(ctx)
	}

	if err := pipeline.Start(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("[ERROR] fetcher stopped: %v", err)
			os.Exit(1)
		}
		log.Println("fetcher stopped")
	}
}
