// Package server exposes the webhook receivers and the related-posts
// snapshot over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/421news/hreflangd/hreflang"
	"github.com/421news/hreflangd/metrics"
	"github.com/421news/hreflangd/recompute"
)

// ServiceName is reported by the status route.
const ServiceName = "hreflangd"

// Snapshots serves and refreshes the related-posts map.
// *recompute.Scheduler satisfies it.
type Snapshots interface {
	Current() *recompute.Snapshot
	Ready() bool
	State() recompute.State
	Trigger()
}

// PairHandler runs hreflang pairing for one webhook payload.
// *hreflang.Handler satisfies it.
type PairHandler interface {
	Handle(ctx context.Context, payload hreflang.Payload) (*hreflang.Outcome, error)
}

// Config holds HTTP surface settings.
type Config struct {
	AllowedOrigin string
	Version       string
}

// Server wires routes to the engine. Webhook work accepted for background
// processing runs on the server's own context so it outlives the request.
type Server struct {
	snapshots Snapshots
	pairer    PairHandler
	config    Config

	ctx context.Context
	wg  sync.WaitGroup
}

// New creates a Server. ctx bounds background webhook processing.
func New(ctx context.Context, snapshots Snapshots, pairer PairHandler, cfg Config) *Server {
	return &Server{
		snapshots: snapshots,
		pairer:    pairer,
		config:    cfg,
		ctx:       ctx,
	}
}

// Router builds the gin engine with all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog())

	r.GET("/", s.status)
	r.POST("/webhook/hreflang", s.hreflangWebhook)
	r.POST("/test", s.hreflangTest)
	r.POST("/webhook/related-posts", s.relatedWebhook)
	r.GET("/api/related-posts.json", s.relatedSnapshot)
	r.OPTIONS("/api/related-posts.json", s.relatedPreflight)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// Wait blocks until all background webhook work has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) status(c *gin.Context) {
	related := "not ready"
	if s.snapshots.Ready() {
		related = "ready"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   ServiceName,
		"version":   s.config.Version,
		"related":   related,
		"recompute": s.snapshots.State().String(),
	})
}

// hreflangWebhook acknowledges at once so Ghost does not time out, then
// pairs the post in the background.
func (s *Server) hreflangWebhook(c *gin.Context) {
	id := c.GetString(requestIDKey)

	var payload hreflang.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		metrics.WebhooksTotal.WithLabelValues(hreflang.StatusIgnored).Inc()
		slog.Warn("hreflang webhook ignored", "delivery_id", id, "reason", "invalid payload", "error", err)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		out, err := s.pairer.Handle(s.ctx, payload)
		if err != nil {
			slog.Error("hreflang webhook failed", "delivery_id", id, "error", err)
			return
		}
		slog.Info("hreflang webhook handled", "delivery_id", id, "status", out.Status, "reason", out.Reason)
	}()
}

// hreflangTest runs pairing synchronously and returns the outcome.
func (s *Server) hreflangTest(c *gin.Context) {
	var payload hreflang.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := s.pairer.Handle(c.Request.Context(), payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) relatedWebhook(c *gin.Context) {
	s.snapshots.Trigger()
	slog.Info("related webhook received", "delivery_id", c.GetString(requestIDKey))
	c.JSON(http.StatusAccepted, gin.H{"received": true})
}

// relatedSnapshot writes the pre-encoded bytes of a single snapshot, so a
// response never mixes two computations.
func (s *Server) relatedSnapshot(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", s.config.AllowedOrigin)
	c.Header("Cache-Control", "public, max-age=60")

	snap := s.snapshots.Current()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "not ready yet"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", snap.JSON)
}

func (s *Server) relatedPreflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", s.config.AllowedOrigin)
	c.Header("Access-Control-Allow-Methods", "GET")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
	c.Status(http.StatusNoContent)
}

const requestIDKey = "request_id"

// requestID tags every request with an ID, reusing X-Request-ID when the
// caller sent one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.FullPath() == "/metrics" {
			return
		}
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		)
	}
}
