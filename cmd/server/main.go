package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/matthewbaird/tabforge/internal/activity"
	"github.com/matthewbaird/tabforge/internal/components"
	"github.com/matthewbaird/tabforge/internal/config"
	"github.com/matthewbaird/tabforge/internal/drafts"
	"github.com/matthewbaird/tabforge/internal/event"
	"github.com/matthewbaird/tabforge/internal/eventbus"
	"github.com/matthewbaird/tabforge/internal/factory"
	"github.com/matthewbaird/tabforge/internal/logging"
	"github.com/matthewbaird/tabforge/internal/metrics"
	"github.com/matthewbaird/tabforge/internal/server"
	"github.com/matthewbaird/tabforge/internal/stream"
	"github.com/matthewbaird/tabforge/internal/templates"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := logging.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	m := metrics.New()

	var store activity.Store
	if cfg.ActivityDBPath != "" {
		sqlStore, err := activity.OpenSQLite(ctx, cfg.ActivityDBPath)
		if err != nil {
			return err
		}
		defer sqlStore.Close()
		store = sqlStore
		logger.Info("activity trail in sqlite", zap.String("path", cfg.ActivityDBPath))
	} else {
		store = activity.NewMemoryStore()
	}

	var draftStore drafts.Store
	if cfg.RedisAddr != "" {
		rs, err := drafts.NewRedisStore(ctx, cfg.RedisAddr, cfg.DraftTTL)
		if err != nil {
			return err
		}
		defer rs.Close()
		draftStore = rs
		logger.Info("drafts in redis", zap.String("addr", cfg.RedisAddr))
	} else {
		draftStore = drafts.NewMemoryStore(cfg.DraftTTL)
	}

	bus := eventbus.New(cfg.EventBuffer, logger)
	hub := stream.NewHub(logger)
	bus.Subscribe("log", eventbus.NewLogConsumer(logger))
	bus.Subscribe("stream", hub)
	bus.Start(ctx)
	defer bus.Stop()

	recorder := event.NewActivityRecorder(store, event.WithPublisher(bus))

	opts := []factory.Option{
		factory.WithLogger(logger),
		factory.WithRecorder(recorder),
		factory.WithMetrics(m),
		factory.WithExportedBy(cfg.ExportedBy),
	}
	if cfg.CloneStrict {
		opts = append(opts, factory.WithStrictClone())
	}
	if cfg.TemplatesDir != "" {
		loader, err := templates.NewLoader()
		if err != nil {
			return err
		}
		extra, err := loader.LoadDir(cfg.TemplatesDir)
		if err != nil {
			return err
		}
		opts = append(opts, factory.WithTemplates(extra...))
	}
	f, err := factory.New(opts...)
	if err != nil {
		return err
	}
	m.TrackRegistry(f.Count)

	return server.Run(ctx, server.Config{
		Addr:     cfg.Addr(),
		Log:      logger,
		Metrics:  m,
		Factory:  f,
		Resolver: components.NewResolver(),
		Activity: store,
		Drafts:   draftStore,
		Stream:   hub,
	})
}
