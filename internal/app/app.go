// Package app builds the pipeline components from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tubedigest/internal/artifacts"
	"tubedigest/internal/config"
	"tubedigest/internal/digest"
	"tubedigest/internal/httpclient"
	"tubedigest/internal/ingest"
	"tubedigest/internal/llm"
	"tubedigest/internal/notifications"
	"tubedigest/internal/persist"
	"tubedigest/internal/summarize"
	"tubedigest/internal/tubedb"
	"tubedigest/internal/youtube"
)

// App holds every wired component for one process.
type App struct {
	Config     config.AppConfig
	Logger     *slog.Logger
	DB         *tubedb.DB
	Discoverer youtube.Discoverer
	Fetcher    *youtube.Fetcher
	Generator  llm.Generator
	Summarizer *summarize.Summarizer
	Mirror     artifacts.Store
	Sink       *persist.Sink
	Notifier   *notifications.Dispatcher
	Pipeline   *ingest.Pipeline
	Digest     *digest.Aggregator
}

// OpenStore opens the configured database and ensures the schema exists.
func OpenStore(ctx context.Context, cfg config.AppConfig) (*tubedb.DB, error) {
	target := cfg.Database.DSN
	if cfg.Database.Driver != tubedb.DriverPostgres {
		target = cfg.Database.Path
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := tubedb.Open(cfg.Database.Driver, target)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}

// NewDiscoverer returns the Data API discoverer when a key is configured (or
// discovery is forced to "api"), otherwise the public channel feed.
func NewDiscoverer(ctx context.Context, cfg config.AppConfig) (youtube.Discoverer, error) {
	limiter := youtube.NewRateLimiter(cfg.YouTube.RequestsPerSecond, 2)
	if cfg.UseDiscoveryAPI() {
		return youtube.NewAPIDiscoverer(ctx, cfg.YouTube.APIKey, limiter)
	}
	return youtube.NewFeedDiscoverer(httpclient.New(cfg.YouTubeTimeout()).HTTPClient(), limiter), nil
}

// NewMirror picks Drive, a local directory or nothing.
func NewMirror(ctx context.Context, cfg config.AppConfig) (artifacts.Store, error) {
	switch {
	case cfg.Drive.Enabled:
		return artifacts.NewDriveStore(ctx, cfg.Drive)
	case cfg.LocalMirror.Dir != "":
		return artifacts.NewDirStore(cfg.LocalMirror.Dir), nil
	default:
		return artifacts.Noop{}, nil
	}
}

// New wires the full pipeline. Close releases the database.
func New(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}
	var err error
	if a.DB, err = OpenStore(ctx, cfg); err != nil {
		return nil, err
	}
	fail := func(err error) (*App, error) {
		_ = a.DB.Close()
		return nil, err
	}

	if a.Discoverer, err = NewDiscoverer(ctx, cfg); err != nil {
		return fail(err)
	}
	a.Fetcher = youtube.NewFetcher(httpclient.New(cfg.YouTubeTimeout()), cfg.YouTube.Languages)

	if a.Generator, err = llm.New(ctx, cfg); err != nil {
		return fail(err)
	}
	prompts, err := summarize.NewPrompts(primaryLanguage(cfg), cfg.AI.ItemPrompt, cfg.AI.ChunkPrompt, cfg.AI.DigestPrompt)
	if err != nil {
		return fail(err)
	}
	a.Summarizer = summarize.New(a.Generator, prompts, cfg.AI.MaxChunkChars, logger)

	if a.Mirror, err = NewMirror(ctx, cfg); err != nil {
		return fail(err)
	}
	a.Sink = persist.NewSink(a.DB, a.Mirror, logger)
	a.Notifier = notifications.NewService(cfg.Notifications, httpclient.New(cfg.NotificationTimeout()), logger)

	a.Pipeline = ingest.NewPipeline(ingest.Deps{
		Config:     cfg,
		Poller:     ingest.NewPoller(cfg, a.Discoverer, logger),
		Store:      a.DB,
		Fetcher:    a.Fetcher,
		Summarizer: a.Summarizer,
		Sink:       a.Sink,
		Notifier:   a.Notifier,
		Lock:       ingest.NewCycleLock(cfg.LockPath),
		Logger:     logger,
	})
	a.Digest = digest.New(a.DB, a.Generator, prompts, a.Sink, a.Notifier, cfg.Location(), logger)
	return a, nil
}

func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func primaryLanguage(cfg config.AppConfig) string {
	if len(cfg.YouTube.Languages) == 0 {
		return "de"
	}
	return cfg.YouTube.Languages[0]
}
