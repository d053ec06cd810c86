package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sectiond/internal/client"
	"git.home.luguber.info/inful/sectiond/internal/config"
	"git.home.luguber.info/inful/sectiond/internal/metrics"
	"git.home.luguber.info/inful/sectiond/internal/propagate"
	"git.home.luguber.info/inful/sectiond/internal/reseed"
	"git.home.luguber.info/inful/sectiond/internal/resolve"
	"git.home.luguber.info/inful/sectiond/internal/section"
	"git.home.luguber.info/inful/sectiond/internal/server/handlers"
	"git.home.luguber.info/inful/sectiond/internal/server/httpserver"
	"git.home.luguber.info/inful/sectiond/internal/source"
	"git.home.luguber.info/inful/sectiond/internal/store"
	"git.home.luguber.info/inful/sectiond/internal/translate"
	"git.home.luguber.info/inful/sectiond/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"sectiond.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct{} `cmd:"" help:"Run the content resolution server"`

	Scrape struct {
		Pages []string `arg:"" help:"Pages to re-scrape from the source documents"`
	} `cmd:"" help:"Re-scrape pages into the section store and exit"`

	Fetch struct {
		URL  string `short:"u" help:"Base URL of a running server" default:"http://127.0.0.1:8080"`
		Page string `arg:"" help:"Page to fetch"`
	} `cmd:"" help:"Fetch a page's resolved sections from a running server"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "serve":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runServe(cfg); err != nil {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case "scrape <pages>":
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runScrape(cfg, CLI.Scrape.Pages); err != nil {
			slog.Error("Scrape failed", "error", err)
			os.Exit(1)
		}
	case "fetch <page>":
		if err := runFetch(CLI.Fetch.URL, CLI.Fetch.Page); err != nil {
			slog.Error("Fetch failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Unknown command", "command", ctx.Command())
		os.Exit(1)
	}
}

// pipelineFetcher re-resolves through the local pipeline when a received
// update invalidates a cached page.
type pipelineFetcher struct {
	pipeline *resolve.Pipeline
}

func (f pipelineFetcher) FetchSections(ctx context.Context, page string) ([]section.Section, error) {
	result, err := f.pipeline.Resolve(ctx, page)
	if err != nil {
		return nil, err
	}
	return result.Sections, nil
}

func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewSQLiteStore(cfg.Content.DBPath)
	if err != nil {
		return fmt.Errorf("open section store: %w", err)
	}
	defer st.Close()

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	locator := source.NewLocator(cfg.Content.SourceRoots...)
	pipeline := resolve.NewPipeline(st, locator, resolve.WithRecorder(recorder))

	var transport propagate.Transport
	if cfg.Propagation.Enabled {
		nt, err := propagate.NewNATSTransport(cfg.Propagation.NATSURL, cfg.Propagation.Subject)
		if err != nil {
			return fmt.Errorf("connect propagation transport: %w", err)
		}
		transport = nt
	} else {
		transport = propagate.NewMemoryTransport()
	}
	defer transport.Close()

	cache := propagate.NewContentCache()
	bus := propagate.NewBus(transport, cache, pipelineFetcher{pipeline: pipeline},
		propagate.WithRecorder(recorder),
		propagate.WithNotifier(func(page string) {
			slog.Info("content updated", "page", page)
		}),
	)
	if err := bus.Start(ctx); err != nil {
		return fmt.Errorf("start propagation bus: %w", err)
	}
	defer bus.Stop()

	languages, err := section.NewLanguageResolver(cfg.Content.PrimaryLanguage, cfg.Content.SecondaryLanguage)
	if err != nil {
		return fmt.Errorf("configure languages: %w", err)
	}

	srv := httpserver.New(&cfg.Server, httpserver.Options{
		Sections: handlers.NewSectionHandlers(pipeline, st, bus, translate.Noop{}, languages),
		Health:   handlers.NewHealthHandlers(st),
		Registry: registry,
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}

	if cfg.Watch.Enabled {
		watcher, err := watch.NewWatcher(cfg.Content.SourceRoots, pipeline, bus)
		if err != nil {
			return fmt.Errorf("create source watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("start source watcher: %w", err)
		}
		defer func() { _ = watcher.Stop(context.Background()) }()
	}

	if cfg.Reseed.Schedule != "" {
		reseeder, err := reseed.NewReseeder(cfg.Reseed.Schedule, cfg.Reseed.Pages, pipeline, bus)
		if err != nil {
			return fmt.Errorf("create reseeder: %w", err)
		}
		reseeder.Start(ctx)
		defer func() { _ = reseeder.Stop(context.Background()) }()
	}

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runScrape(cfg *config.Config, pages []string) error {
	st, err := store.NewSQLiteStore(cfg.Content.DBPath)
	if err != nil {
		return fmt.Errorf("open section store: %w", err)
	}
	defer st.Close()

	locator := source.NewLocator(cfg.Content.SourceRoots...)
	pipeline := resolve.NewPipeline(st, locator)

	ctx := context.Background()
	for _, page := range pages {
		result, err := pipeline.Refresh(ctx, page)
		if err != nil {
			return fmt.Errorf("scrape %s: %w", page, err)
		}
		fmt.Printf("%s: %d sections (%s)\n", result.Page, len(result.Sections), result.Provenance)
	}
	return nil
}

func runFetch(baseURL, page string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	content, err := client.New(baseURL).FetchPage(ctx, page)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(content)
}

const defaultConfig = `# sectiond configuration
server:
  port: 8080
  admin_port: 8081
  # auth_token: set SECTIOND_AUTH_TOKEN instead of committing a secret

content:
  source_roots:
    - .
    - public
    - dist
    - views
  db_path: sections.db
  primary_language: en
  secondary_language: ta

propagation:
  enabled: false
  nats_url: nats://127.0.0.1:4222
  subject: sectiond.content.update

watch:
  enabled: false

reseed:
  schedule: ""
  pages: []
`

func runInit(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("write configuration file: %w", err)
	}
	slog.Info("Configuration file created", "path", path)
	return nil
}
