// Package recompute owns the served related-posts snapshot. Change
// notifications are debounced into a single recompute, recomputes never
// overlap, and readers always see one complete snapshot.
package recompute

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/421news/hreflangd/ghost"
	"github.com/421news/hreflangd/metrics"
	"github.com/421news/hreflangd/related"
	"github.com/421news/hreflangd/storage"
	"github.com/421news/hreflangd/textextract"
)

// State is the scheduler's position in its Idle, Debouncing, Computing cycle.
type State int

const (
	Idle State = iota
	Debouncing
	Computing
)

func (s State) String() string {
	switch s {
	case Debouncing:
		return "debouncing"
	case Computing:
		return "computing"
	default:
		return "idle"
	}
}

// PostSource fetches every published post. *ghost.ContentClient satisfies it.
type PostSource interface {
	ListAllPosts(ctx context.Context, params ghost.ListParams) ([]ghost.Post, error)
}

// SnapshotStore persists the last computed snapshot. *storage.Store satisfies it.
type SnapshotStore interface {
	SaveSnapshot(name string, body []byte) error
	LoadSnapshot(name string) (*storage.Snapshot, error)
}

// Config holds recompute settings.
type Config struct {
	Debounce         time.Duration
	RelatedCount     int
	IncludeBody      bool
	BootstrapURL     string
	BootstrapTimeout time.Duration
}

// Scheduler debounces recompute requests and publishes snapshots.
type Scheduler struct {
	posts  PostSource
	store  SnapshotStore
	client *http.Client
	config Config

	current atomic.Pointer[Snapshot]

	// computeMu serializes recomputes.
	computeMu sync.Mutex
	computing atomic.Bool

	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	closed bool
	wg     sync.WaitGroup
}

// New creates a Scheduler. store may be nil to disable local persistence.
// client is used for the bootstrap fetch.
func New(posts PostSource, store SnapshotStore, client *http.Client, cfg Config) *Scheduler {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.RelatedCount <= 0 {
		cfg.RelatedCount = related.DefaultCount
	}
	return &Scheduler{
		posts:  posts,
		store:  store,
		client: client,
		config: cfg,
	}
}

// Current returns the published snapshot, or nil before the first one.
func (s *Scheduler) Current() *Snapshot {
	return s.current.Load()
}

// Ready reports whether a snapshot has been published.
func (s *Scheduler) Ready() bool {
	return s.current.Load() != nil
}

// State reports the current cycle position. A recompute in progress wins
// over a pending debounce timer.
func (s *Scheduler) State() State {
	if s.computing.Load() {
		return Computing
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		return Debouncing
	}
	return Idle
}

// Trigger schedules a recompute after the debounce delay, restarting the
// delay if one is already pending. It never blocks on the recompute.
func (s *Scheduler) Trigger() {
	metrics.TriggersTotal.Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.config.Debounce, func() { s.fire(gen) })
	slog.Info("related recompute scheduled", "debounce", s.config.Debounce)
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	if _, err := s.Recompute(context.Background()); err != nil {
		slog.Error("related recompute failed", "error", err)
	}
}

// Bootstrap publishes the best snapshot available without computing, then
// starts a fresh recompute in the background whatever the outcome. The
// remote published file is tried first and the local store second.
func (s *Scheduler) Bootstrap(ctx context.Context) {
	if snap, err := s.fetchRemote(ctx); err == nil {
		s.publish(snap)
		slog.Info("bootstrap loaded remote snapshot", "posts", snap.Len())
	} else {
		slog.Warn("bootstrap from remote failed", "error", err)
		if snap, err := s.loadLocal(); err == nil {
			s.publish(snap)
			slog.Info("bootstrap loaded local snapshot", "posts", snap.Len(), "generated_at", snap.GeneratedAt)
		} else if !errors.Is(err, storage.ErrNoSnapshot) {
			slog.Warn("bootstrap from local store failed", "error", err)
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		if _, err := s.Recompute(context.Background()); err != nil {
			slog.Error("initial related recompute failed", "error", err)
		}
	}()
}

// Close cancels any pending debounce and waits for a running recompute to
// finish.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Recompute fetches all posts, ranks each language partition and publishes
// the merged result. Calls are serialized. On error the previous snapshot
// keeps serving.
func (s *Scheduler) Recompute(ctx context.Context) (*Snapshot, error) {
	s.computeMu.Lock()
	defer s.computeMu.Unlock()
	s.computing.Store(true)
	defer s.computing.Store(false)

	start := time.Now()
	slog.Info("related recompute starting")

	snap, err := s.compute(ctx)
	metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RecomputeTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RecomputeTotal.WithLabelValues("success").Inc()

	s.publish(snap)
	if s.store != nil {
		if err := s.store.SaveSnapshot(storage.RelatedPostsSnapshot, snap.JSON); err != nil {
			slog.Error("failed to persist snapshot", "error", err)
		}
	}

	slog.Info("related recompute complete", "posts", snap.Len(), "elapsed", time.Since(start).Round(100*time.Millisecond))
	return snap, nil
}

func (s *Scheduler) compute(ctx context.Context) (*Snapshot, error) {
	params := ghost.ListParams{
		Include: "tags",
		Fields:  []string{"slug", "title", "excerpt", "custom_excerpt"},
	}
	if s.config.IncludeBody {
		params.Fields = append(params.Fields, "html")
		params.Formats = "html"
	}

	posts, err := s.posts.ListAllPosts(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetching posts: %w", err)
	}

	es, en := Partition(posts, s.config.IncludeBody)
	slog.Info("fetched posts for related", "total", len(posts), "es", len(es), "en", len(en))

	var esRes, enRes related.Result
	g := new(errgroup.Group)
	g.Go(func() error {
		esRes = related.Compute(es, related.SpanishStopwords, s.config.RelatedCount)
		return nil
	})
	g.Go(func() error {
		enRes = related.Compute(en, related.EnglishStopwords, s.config.RelatedCount)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return newSnapshot(related.Merge(esRes, enRes), SourceComputed, time.Now())
}

func (s *Scheduler) publish(snap *Snapshot) {
	s.current.Store(snap)
	metrics.SnapshotPosts.Set(float64(snap.Len()))
}

func (s *Scheduler) fetchRemote(ctx context.Context) (*Snapshot, error) {
	if s.config.BootstrapURL == "" {
		return nil, errors.New("no bootstrap url configured")
	}
	if s.config.BootstrapTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.BootstrapTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.BootstrapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating bootstrap request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", s.config.BootstrapURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", s.config.BootstrapURL, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.config.BootstrapURL, err)
	}
	return decodeSnapshot(body, SourceRemote, time.Now())
}

func (s *Scheduler) loadLocal() (*Snapshot, error) {
	if s.store == nil {
		return nil, storage.ErrNoSnapshot
	}
	saved, err := s.store.LoadSnapshot(storage.RelatedPostsSnapshot)
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(saved.Body, SourceLocal, saved.GeneratedAt)
}

// Partition splits posts into Spanish and English engine inputs by language
// tag, preserving order. Posts carrying neither tag are dropped.
func Partition(posts []ghost.Post, includeBody bool) (es, en []related.Post) {
	for i := range posts {
		p := &posts[i]
		isES, isEN := p.HasTag(ghost.TagSpanish), p.HasTag(ghost.TagEnglish)
		if !isES && !isEN {
			continue
		}
		in := toEngineInput(p, includeBody)
		if isES {
			es = append(es, in)
		}
		if isEN {
			en = append(en, in)
		}
	}
	return es, en
}

func toEngineInput(p *ghost.Post, includeBody bool) related.Post {
	excerpt := p.CustomExcerpt
	if excerpt == "" {
		excerpt = p.Excerpt
	}

	var tags []string
	for _, t := range p.Tags {
		if t.Visibility == "public" {
			tags = append(tags, t.Name)
		}
	}

	in := related.Post{
		Slug:    p.Slug,
		Title:   p.Title,
		Excerpt: textextract.StripHTML(excerpt),
		Tags:    tags,
	}
	if includeBody && p.HTML != "" {
		body, err := textextract.BodyText(p.HTML)
		if err != nil {
			slog.Warn("body extraction failed, using excerpt only", "slug", p.Slug, "error", err)
		} else {
			in.Body = body
		}
	}
	return in
}
