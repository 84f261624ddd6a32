package hreflang

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/421news/hreflangd/ghost"
	"github.com/421news/hreflangd/metrics"
)

// PostEditor reads and rewrites a post's head injection with optimistic
// concurrency. *ghost.AdminClient satisfies it.
type PostEditor interface {
	GetPost(ctx context.Context, id string) (*ghost.AdminPost, error)
	UpdatePostHead(ctx context.Context, id, head, updatedAt string) error
}

// ReasonAlreadyTagged is reported when the post already carries exactly the
// markup that would be written.
const ReasonAlreadyTagged = "already-tagged"

// InjectResult is the outcome of one post injection.
type InjectResult struct {
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
	Tags    int    `json:"tags,omitempty"`
	Error   string `json:"error,omitempty"`
}

const lockStripes = 64

// Injector writes hreflang markup into post head injections. Writes for the
// same post never overlap, and identical concurrent requests share one
// read-modify-write.
type Injector struct {
	editor PostEditor
	markup Markup
	group  singleflight.Group
	locks  [lockStripes]sync.Mutex
}

// NewInjector creates an Injector that renders links under siteURL.
func NewInjector(editor PostEditor, siteURL string) *Injector {
	return &Injector{
		editor: editor,
		markup: Markup{SiteURL: siteURL},
	}
}

// Markup returns the renderer the injector uses.
func (in *Injector) Markup() Markup {
	return in.markup
}

// Inject makes the head of post id carry the markup for slug in lang, paired
// with pairSlug when it is non-empty. A post whose head would not change is
// left alone and reported as skipped. An update rejected because the post
// changed since it was read is retried once with a fresh read.
func (in *Injector) Inject(ctx context.Context, id string, lang Lang, slug, pairSlug string) (InjectResult, error) {
	tags := in.markup.Tags(lang, slug, pairSlug)
	key := id + "\x00" + strings.Join(tags, "\n")

	v, err, shared := in.group.Do(key, func() (any, error) {
		mu := in.lockFor(id)
		mu.Lock()
		defer mu.Unlock()

		res, err := in.apply(ctx, id, tags)
		if err != nil && ghost.IsConflict(err) {
			slog.Warn("post changed during injection, retrying", "post_id", id, "error", err)
			res, err = in.apply(ctx, id, tags)
		}
		return res, err
	})
	if shared {
		slog.Debug("injection shared with concurrent caller", "post_id", id)
	}
	if err != nil {
		metrics.InjectionsTotal.WithLabelValues("error").Inc()
		return InjectResult{}, err
	}

	res := v.(InjectResult)
	if res.Skipped {
		metrics.InjectionsTotal.WithLabelValues("skipped").Inc()
	} else {
		metrics.InjectionsTotal.WithLabelValues("injected").Inc()
	}
	return res, nil
}

func (in *Injector) apply(ctx context.Context, id string, tags []string) (InjectResult, error) {
	post, err := in.editor.GetPost(ctx, id)
	if err != nil {
		return InjectResult{}, fmt.Errorf("reading post %s: %w", id, err)
	}

	updated := Rebuild(post.CodeinjectionHead, tags)
	if updated == strings.TrimSpace(post.CodeinjectionHead) {
		return InjectResult{Skipped: true, Reason: ReasonAlreadyTagged}, nil
	}

	if err := in.editor.UpdatePostHead(ctx, id, updated, post.UpdatedAt); err != nil {
		return InjectResult{}, fmt.Errorf("writing post %s: %w", id, err)
	}
	return InjectResult{Tags: len(tags)}, nil
}

func (in *Injector) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &in.locks[h.Sum32()%lockStripes]
}
