// Package app wires configuration into the running components. It is built once at
// startup and shared by every command.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/atenger/gmfc101/internal/bot"
	"github.com/atenger/gmfc101/internal/catalog"
	"github.com/atenger/gmfc101/internal/compose"
	"github.com/atenger/gmfc101/internal/dedup"
	"github.com/atenger/gmfc101/internal/evidence"
	"github.com/atenger/gmfc101/internal/llm"
	"github.com/atenger/gmfc101/internal/neynar"
	"github.com/atenger/gmfc101/internal/notify"
	"github.com/atenger/gmfc101/internal/router"
	"github.com/atenger/gmfc101/internal/search"
	"github.com/atenger/gmfc101/internal/server"
	"github.com/atenger/gmfc101/internal/storage"
	"github.com/atenger/gmfc101/internal/thread"
	"github.com/atenger/gmfc101/pkg/config"
)

type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Neynar  *neynar.Client
	Catalog *catalog.Catalog
	Bot     *bot.Bot
	Server  *server.Server

	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, logger := a.Config, a.Logger

	catalogStore, transcriptStore, err := a.stores(ctx)
	if err != nil {
		return err
	}
	cat, err := catalog.New(ctx, catalogStore, logger.Named("catalog"))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	a.Catalog = cat

	gate, err := a.deduper(ctx)
	if err != nil {
		return err
	}

	milvus, err := search.NewMilvus(ctx, search.MilvusConfig{
		Address:     cfg.Milvus.Address,
		APIKey:      cfg.Milvus.APIKey,
		Collection:  cfg.Milvus.Collection,
		VectorField: cfg.Milvus.VectorField,
		Timeout:     cfg.Milvus.Timeout,
	}, logger.Named("search"))
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error { return milvus.Close(context.Background()) })

	tokens, err := llm.NewTokenCounter()
	if err != nil {
		return err
	}

	notifier, err := a.notifier()
	if err != nil {
		return err
	}

	a.Neynar = neynar.NewClient(cfg.Neynar.APIKey, cfg.Neynar.BaseURL, cfg.Neynar.Timeout, logger.Named("neynar"))
	openai := llm.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.EmbeddingModel, cfg.OpenAI.Timeout, logger.Named("openai"))
	composer := compose.NewComposer(openai, cfg.OpenAI.ChatModel, cfg.OpenAI.MaxTokens, logger.Named("compose"))

	providers := bot.Providers{
		Metadata:   evidence.NewMetadata(cat, composer, logger.Named("metadata")),
		Contextual: evidence.NewContextual(cat, transcriptStore, openai, milvus, composer, logger.Named("contextual")),
		Hybrid: evidence.NewHybrid(cat, transcriptStore, openai, tokens, composer, evidence.HybridConfig{
			AccurateModel: cfg.OpenAI.AccurateModel,
			LargeModel:    cfg.OpenAI.LargeModel,
		}, logger.Named("hybrid")),
	}

	a.Bot = bot.New(bot.Config{
		BotFID:     cfg.Bot.FID,
		SignerUUID: cfg.Bot.SignerUUID,
		MaxDepth:   cfg.Bot.MaxDepth,
		ReplyLimit: cfg.Bot.MaxReplySize,
	}, bot.Deps{
		Dedup:     gate,
		Casts:     a.Neynar,
		Threads:   thread.NewReconstructor(a.Neynar, cfg.Bot.FID, cfg.Bot.MaxThreadHop, logger.Named("thread")),
		Router:    router.New(openai, cfg.OpenAI.RouterModel, logger.Named("router")),
		Providers: providers,
		Notifier:  notifier,
	}, logger.Named("bot"))

	a.Server = server.New(a.Bot, a.Neynar, cat, server.Options{
		DryRun: cfg.Features.DryRun,
		UseLLM: cfg.Features.UseLLM,
	}, logger.Named("http"))

	logger.Info("Application ready",
		zap.Int("episodes", cat.Len()),
		zap.String("catalog_source", cfg.Catalog.Source),
		zap.String("transcripts_source", cfg.Transcripts.Source),
		zap.Bool("use_llm", cfg.Features.UseLLM),
		zap.Bool("dry_run", cfg.Features.DryRun))
	return nil
}

// stores resolves the configured catalog and transcript sources. A single S3 client is
// shared when both live in the bucket.
func (a *App) stores(ctx context.Context) (storage.CatalogStore, storage.TranscriptStore, error) {
	cfg := a.Config
	local := storage.NewFileStore(cfg.Catalog.DataDir)

	var bucket *storage.S3Store
	s3Store := func() (*storage.S3Store, error) {
		if bucket != nil {
			return bucket, nil
		}
		s, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		bucket = s
		return s, nil
	}

	var catalogStore storage.CatalogStore
	switch cfg.Catalog.Source {
	case "s3":
		s, err := s3Store()
		if err != nil {
			return nil, nil, err
		}
		catalogStore = s
	case "postgres":
		pg, err := storage.NewPostgresStore(ctx, storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, pg.Close)
		catalogStore = pg
	default:
		catalogStore = local
	}

	var transcriptStore storage.TranscriptStore = local
	if cfg.Transcripts.Source == "s3" {
		s, err := s3Store()
		if err != nil {
			return nil, nil, err
		}
		transcriptStore = s
	}
	return catalogStore, transcriptStore, nil
}

func (a *App) deduper(ctx context.Context) (dedup.Deduper, error) {
	cfg := a.Config.Dedup
	if cfg.RedisURL == "" {
		return dedup.NewGate(cfg.TTL, cfg.Capacity), nil
	}
	g, err := dedup.NewRedisGate(ctx, cfg.RedisURL, cfg.TTL, a.Logger.Named("dedup"))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, g.Close)
	return g, nil
}

func (a *App) notifier() (notify.Notifier, error) {
	cfg := a.Config.Telegram
	if cfg.Token == "" {
		return notify.Nop{}, nil
	}
	return notify.NewTelegram(cfg.Token, cfg.ChatID, a.Logger.Named("notify"))
}

// Close releases every connection opened by New, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("Error during shutdown", zap.Error(err))
		}
	}
	a.closers = nil
}
