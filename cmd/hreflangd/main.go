package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/421news/hreflangd/config"
	"github.com/421news/hreflangd/ghost"
	"github.com/421news/hreflangd/hreflang"
	"github.com/421news/hreflangd/recompute"
	"github.com/421news/hreflangd/storage"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "hreflangd",
		Short:        "Hreflang pairing and related-posts service for a bilingual Ghost site",
		SilenceUsage: true,
		Version:      version,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newRelatedCmd(&configPath),
		newSweepCmd(&configPath),
		newPairCmd(&configPath),
	)
	return root
}

// app holds the components shared by every subcommand.
type app struct {
	cfg     config.Config
	store   *storage.Store
	content *ghost.ContentClient
	handler *hreflang.Handler
	sweeper *hreflang.Sweeper
	related *recompute.Scheduler
}

// newApp loads config and builds the components. Logs go to logOut so the
// one-shot commands can keep stdout for their results.
func newApp(configPath string, logOut io.Writer) (*app, error) {
	// Structured JSON logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, nil)))

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	setLogLevel(logOut, cfg.LogLevel)
	slog.Info("config loaded", "ghost_url", cfg.GhostURL, "site_url", cfg.SiteURL, "include_body", cfg.IncludeBody)

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	slog.Info("storage initialized", "db_path", cfg.DBPath)

	httpClient := &http.Client{Timeout: cfg.FetchTimeout()}
	content := ghost.NewContentClient(httpClient, cfg.GhostURL, cfg.ContentKey, cfg.RetryBackoff())
	admin, err := ghost.NewAdminClient(httpClient, cfg.GhostURL, cfg.AdminKey, cfg.AdminRatePerSec)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating admin client: %w", err)
	}

	handler := hreflang.NewHandler(content, hreflang.NewInjector(admin, cfg.SiteURL), hreflang.HandlerConfig{
		CandidateLimit: cfg.CandidateLimit,
		Threshold:      cfg.PairThreshold,
	})

	rel := recompute.New(content, store, &http.Client{Timeout: cfg.BootstrapTimeout()}, recompute.Config{
		Debounce:         cfg.Debounce(),
		RelatedCount:     cfg.RelatedCount,
		IncludeBody:      cfg.IncludeBody,
		BootstrapURL:     cfg.BootstrapURL,
		BootstrapTimeout: cfg.BootstrapTimeout(),
	})

	return &app{
		cfg:     cfg,
		store:   store,
		content: content,
		handler: handler,
		sweeper: hreflang.NewSweeper(content, handler, cfg.SweepLimit),
		related: rel,
	}, nil
}

// Close waits for background recomputes, then closes storage.
func (a *app) Close() {
	a.related.Close()
	if err := a.store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

func setLogLevel(w io.Writer, level string) {
	switch level {
	case "debug":
		slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
	case "warn":
		slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn})))
	case "error":
		slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelError})))
	}
}
