package ghost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/421news/hreflangd/metrics"
)

// PageSize is the page size used by ListAllPosts.
const PageSize = 100

// ListParams are the Content API listing parameters the service uses.
// Zero values are omitted from the query string.
type ListParams struct {
	Filter  string
	Limit   int
	Page    int
	Order   string
	Include string
	Fields  []string
	Formats string
}

func (p ListParams) encode(key string) string {
	q := url.Values{}
	q.Set("key", key)
	if p.Filter != "" {
		q.Set("filter", p.Filter)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Order != "" {
		q.Set("order", p.Order)
	}
	if p.Include != "" {
		q.Set("include", p.Include)
	}
	if len(p.Fields) > 0 {
		q.Set("fields", strings.Join(p.Fields, ","))
	}
	if p.Formats != "" {
		q.Set("formats", p.Formats)
	}
	return q.Encode()
}

// ContentClient reads published posts from the Ghost Content API.
type ContentClient struct {
	client       *http.Client
	baseURL      string
	key          string
	retryBackoff time.Duration
}

// NewContentClient creates a Content API client. baseURL is the Ghost site
// root, e.g. https://example.ghost.io. retryBackoff is the delay before the
// single retry ListAllPosts makes on a transient failure.
func NewContentClient(client *http.Client, baseURL, key string, retryBackoff time.Duration) *ContentClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &ContentClient{
		client:       client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		key:          key,
		retryBackoff: retryBackoff,
	}
}

// ListPosts fetches a single page of posts.
func (c *ContentClient) ListPosts(ctx context.Context, params ListParams) (*PostsPage, error) {
	u := fmt.Sprintf("%s/ghost/api/content/posts/?%s", c.baseURL, params.encode(c.key))

	var body postsResponse
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	if err := body.validate(); err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	page := &PostsPage{Posts: *body.Posts}
	if body.Meta != nil {
		page.Pagination = body.Meta.Pagination
	}
	return page, nil
}

// ListAllPosts walks every page of the listing described by params, ignoring
// params.Limit and params.Page. A transient failure on any page is retried
// once after the configured backoff; a second failure aborts the whole fetch.
func (c *ContentClient) ListAllPosts(ctx context.Context, params ListParams) ([]Post, error) {
	params.Limit = PageSize

	var all []Post
	page := 1
	for {
		params.Page = page
		res, err := c.ListPosts(ctx, params)
		if err != nil && IsTransient(err) {
			slog.Warn("transient error fetching posts, retrying", "page", page, "backoff", c.retryBackoff, "error", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryBackoff):
			}
			res, err = c.ListPosts(ctx, params)
		}
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}

		all = append(all, res.Posts...)

		next := res.Pagination.Next
		if next == nil || *next <= page {
			break
		}
		page = *next
	}
	return all, nil
}

// PostBySlug fetches one post with its tags. It returns ErrNotFound when the
// slug matches no published post.
func (c *ContentClient) PostBySlug(ctx context.Context, slug string) (*Post, error) {
	q := url.Values{}
	q.Set("key", c.key)
	q.Set("include", "tags")
	u := fmt.Sprintf("%s/ghost/api/content/posts/slug/%s/?%s", c.baseURL, url.PathEscape(slug), q.Encode())

	var body postsResponse
	if err := c.getJSON(ctx, u, &body); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("post %q: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("fetching post %q: %w", slug, err)
	}
	if err := body.validate(); err != nil {
		return nil, fmt.Errorf("fetching post %q: %w", slug, err)
	}
	if len(*body.Posts) == 0 {
		return nil, fmt.Errorf("post %q: %w", slug, ErrNotFound)
	}
	p := (*body.Posts)[0]
	return &p, nil
}

func (c *ContentClient) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.GhostRequests.WithLabelValues("content", "error").Inc()
		return err
	}
	defer resp.Body.Close()
	metrics.GhostRequests.WithLabelValues("content", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{API: "content", Status: resp.StatusCode, Body: truncateBody(b)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
