package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/421news/hreflangd/scheduler"
	"github.com/421news/hreflangd/server"
)

const (
	shutdownTimeout = 15 * time.Second
	// webhookDrainTimeout bounds how long accepted webhooks may keep running
	// after the listener has closed.
	webhookDrainTimeout = 10 * time.Second
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook receivers, the related-posts endpoint and the periodic sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(parent context.Context, configPath string) error {
	a, err := newApp(configPath, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Periodic hreflang sweep
	sched, err := scheduler.New(a.cfg.Timezone)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	defer sched.Stop()

	sweep := func(ctx context.Context) {
		if _, err := a.sweeper.Run(ctx); err != nil {
			slog.Error("hreflang sweep failed", "error", err)
		}
	}
	if err := sched.Schedule(a.cfg.SweepSchedule, sweep); err != nil {
		return fmt.Errorf("scheduling sweep: %w", err)
	}
	sched.RunAfter(time.Duration(a.cfg.SweepInitialDelaySecs)*time.Second, sweep)
	next := sched.Next()
	sched.Start()
	slog.Info("scheduler started", "sweep_schedule", a.cfg.SweepSchedule, "timezone", a.cfg.Timezone, "next_sweep", next)

	// The listener comes up before bootstrap finishes; the snapshot
	// endpoint answers 503 until then.
	go a.related.Bootstrap(ctx)

	webhookCtx, cancelWebhooks := context.WithCancel(context.Background())
	defer cancelWebhooks()

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(webhookCtx, a.related, a.handler, server.Config{
		AllowedOrigin: a.cfg.AllowedOrigin,
		Version:       version,
	})
	httpServer := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", a.cfg.ListenAddr, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}

		drain := time.AfterFunc(webhookDrainTimeout, cancelWebhooks)
		srv.Wait()
		drain.Stop()
		return nil
	})

	err = g.Wait()
	slog.Info("shutdown complete")
	return err
}
