package hreflang

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/421news/hreflangd/ghost"
	"github.com/421news/hreflangd/metrics"
)

// PostLister lists published posts. *ghost.ContentClient satisfies it.
type PostLister interface {
	ListPosts(ctx context.Context, params ghost.ListParams) (*ghost.PostsPage, error)
}

// Outcome statuses.
const (
	StatusMatched = "matched"
	StatusNoMatch = "no-match"
	StatusIgnored = "ignored"
)

// Payload is a Ghost post webhook body.
type Payload struct {
	Post struct {
		Current *ghost.Post `json:"current"`
	} `json:"post"`
}

// Pair names both sides of a matched translation.
type Pair struct {
	ES string `json:"es"`
	EN string `json:"en"`
}

// Outcome reports what the handler did with one post. Scores are rendered
// with three decimals.
type Outcome struct {
	Status       string                  `json:"status"`
	Reason       string                  `json:"reason,omitempty"`
	Score        string                  `json:"score,omitempty"`
	BestScore    string                  `json:"bestScore,omitempty"`
	Pair         *Pair                   `json:"pair,omitempty"`
	Injection    map[string]InjectResult `json:"injection,omitempty"`
	SelfHreflang bool                    `json:"selfHreflang,omitempty"`
}

// HandlerConfig tunes candidate selection.
type HandlerConfig struct {
	CandidateLimit int
	Threshold      float64
}

// Handler pairs a freshly published post with its translation and injects
// markup into both.
type Handler struct {
	content  PostLister
	injector *Injector
	config   HandlerConfig
}

// NewHandler creates a Handler.
func NewHandler(content PostLister, injector *Injector, cfg HandlerConfig) *Handler {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 50
	}
	return &Handler{content: content, injector: injector, config: cfg}
}

// Handle processes one webhook payload. Injection failures are reported in
// the outcome and never abort the other post; only a failed candidate
// listing returns an error.
func (h *Handler) Handle(ctx context.Context, payload Payload) (*Outcome, error) {
	post := payload.Post.Current
	if post == nil {
		metrics.WebhooksTotal.WithLabelValues(StatusIgnored).Inc()
		return &Outcome{Status: StatusIgnored, Reason: "no post data in payload"}, nil
	}
	if post.PublishedAt == nil {
		metrics.WebhooksTotal.WithLabelValues(StatusIgnored).Inc()
		return &Outcome{Status: StatusIgnored, Reason: "no published_at"}, nil
	}

	lang := LangOf(post)
	slog.Info("pairing post", "slug", post.Slug, "lang", lang, "title", post.Title)

	page, err := h.content.ListPosts(ctx, ghost.ListParams{
		Filter:  candidateFilter(lang),
		Limit:   h.config.CandidateLimit,
		Order:   "published_at desc",
		Include: "tags",
		Fields:  []string{"id", "slug", "title", "published_at"},
	})
	if err != nil {
		metrics.WebhooksTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("listing %s candidates: %w", lang.Other(), err)
	}
	slog.Info("found candidates", "slug", post.Slug, "count", len(page.Posts))

	best, score := BestMatch(post, page.Posts)
	if best == nil || score < h.config.Threshold {
		slog.Info("no translation match", "slug", post.Slug, "best_score", formatScore(score))
		res := h.inject(ctx, post.ID, lang, post.Slug, "")
		metrics.WebhooksTotal.WithLabelValues(StatusNoMatch).Inc()
		return &Outcome{
			Status:       StatusNoMatch,
			BestScore:    formatScore(score),
			SelfHreflang: true,
			Injection:    map[string]InjectResult{"self": res},
		}, nil
	}

	es, en := post, best
	if lang == English {
		es, en = best, post
	}
	slog.Info("translation matched", "es", es.Slug, "en", en.Slug, "score", formatScore(score))

	out := &Outcome{
		Status:    StatusMatched,
		Score:     formatScore(score),
		Pair:      &Pair{ES: es.Slug, EN: en.Slug},
		Injection: make(map[string]InjectResult, 2),
	}
	out.Injection["es"] = h.inject(ctx, es.ID, Spanish, es.Slug, en.Slug)
	out.Injection["en"] = h.inject(ctx, en.ID, English, en.Slug, es.Slug)
	metrics.WebhooksTotal.WithLabelValues(StatusMatched).Inc()
	return out, nil
}

// inject isolates one post's failure so the caller can continue.
func (h *Handler) inject(ctx context.Context, id string, lang Lang, slug, pairSlug string) InjectResult {
	res, err := h.injector.Inject(ctx, id, lang, slug, pairSlug)
	if err != nil {
		slog.Error("injection failed", "slug", slug, "lang", lang, "error", err)
		return InjectResult{Error: err.Error()}
	}
	if res.Skipped {
		slog.Info("injection skipped", "slug", slug, "lang", lang, "reason", res.Reason)
	} else {
		slog.Info("injection written", "slug", slug, "lang", lang, "tags", res.Tags)
	}
	return res
}

func candidateFilter(lang Lang) string {
	if lang == English {
		return "tag:-" + ghost.TagEnglish
	}
	return "tag:" + ghost.TagEnglish
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
