package hreflang

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/421news/hreflangd/ghost"
)

// SweepReport summarizes one sweep.
type SweepReport struct {
	Checked int
	Skipped int
	Updated int
	Failed  int
}

// Sweeper re-runs pairing for recent posts that lack complete markup, which
// catches translations published after their counterpart's webhook fired.
type Sweeper struct {
	content PostLister
	handler *Handler
	limit   int
}

// NewSweeper creates a Sweeper over the latest limit posts.
func NewSweeper(content PostLister, handler *Handler, limit int) *Sweeper {
	if limit <= 0 {
		limit = 10
	}
	return &Sweeper{content: content, handler: handler, limit: limit}
}

// Run checks the most recent posts once. A post counts as updated when it
// was paired, or when it received its first self link.
func (s *Sweeper) Run(ctx context.Context) (SweepReport, error) {
	slog.Info("hreflang sweep starting", "limit", s.limit)

	page, err := s.content.ListPosts(ctx, ghost.ListParams{
		Limit:   s.limit,
		Order:   "published_at desc",
		Include: "tags",
		Fields:  []string{"id", "slug", "title", "published_at", "codeinjection_head"},
	})
	if err != nil {
		return SweepReport{}, fmt.Errorf("listing recent posts: %w", err)
	}

	var report SweepReport
	for i := range page.Posts {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		post := page.Posts[i]
		report.Checked++

		hasLink, hasMeta := HasAlternateMarkup(post.CodeinjectionHead, LangOf(&post))
		if hasLink && hasMeta {
			report.Skipped++
			continue
		}

		var payload Payload
		payload.Post.Current = &ghost.Post{
			ID:          post.ID,
			Slug:        post.Slug,
			Title:       post.Title,
			PublishedAt: post.PublishedAt,
			Tags:        post.Tags,
		}
		out, err := s.handler.Handle(ctx, payload)
		if err != nil {
			slog.Error("sweep pairing failed", "slug", post.Slug, "error", err)
			report.Failed++
			continue
		}

		switch {
		case out.Status == StatusMatched:
			report.Updated++
			slog.Info("sweep paired posts", "es", out.Pair.ES, "en", out.Pair.EN)
		case out.Status == StatusNoMatch && !hasLink:
			report.Updated++
			slog.Info("sweep added self link", "slug", post.Slug)
		}
	}

	slog.Info("hreflang sweep complete", "checked", report.Checked, "updated", report.Updated, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}
