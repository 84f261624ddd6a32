package ghost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/421news/hreflangd/metrics"
)

// AdminClient reads and updates post head injections through the Ghost
// Admin API. Every request carries a freshly signed token and waits on a
// shared rate limiter.
type AdminClient struct {
	client  *http.Client
	baseURL string
	signer  *adminSigner
	limiter *rate.Limiter
}

// NewAdminClient creates an Admin API client. adminKey must have the form
// id:secret with a hex secret. ratePerSec caps outgoing requests; values
// <= 0 disable the limit.
func NewAdminClient(client *http.Client, baseURL, adminKey string, ratePerSec float64) (*AdminClient, error) {
	if client == nil {
		client = http.DefaultClient
	}
	signer, err := newAdminSigner(adminKey)
	if err != nil {
		return nil, err
	}
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &AdminClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		signer:  signer,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// GetPost fetches the current head injection and updated_at token of a post.
func (c *AdminClient) GetPost(ctx context.Context, id string) (*AdminPost, error) {
	var env adminPostsEnvelope
	if err := c.do(ctx, http.MethodGet, c.postURL(id), nil, &env); err != nil {
		return nil, fmt.Errorf("getting admin post %s: %w", id, err)
	}
	if len(env.Posts) == 0 {
		return nil, fmt.Errorf("getting admin post %s: %w", id, ErrNotFound)
	}
	p := env.Posts[0]
	return &p, nil
}

// UpdatePostHead replaces the post's head injection. updatedAt must be the
// value last read; Ghost rejects the write with 409 if the post has changed.
func (c *AdminClient) UpdatePostHead(ctx context.Context, id, head, updatedAt string) error {
	body := adminUpdateEnvelope{Posts: []adminUpdatePost{{
		CodeinjectionHead: head,
		UpdatedAt:         updatedAt,
	}}}
	if err := c.do(ctx, http.MethodPut, c.postURL(id), body, nil); err != nil {
		return fmt.Errorf("updating admin post %s: %w", id, err)
	}
	return nil
}

func (c *AdminClient) postURL(id string) string {
	return fmt.Sprintf("%s/ghost/api/admin/posts/%s/", c.baseURL, url.PathEscape(id))
}

func (c *AdminClient) do(ctx context.Context, method, u string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := c.signer.sign()
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Ghost "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.GhostRequests.WithLabelValues("admin", "error").Inc()
		return err
	}
	defer resp.Body.Close()
	metrics.GhostRequests.WithLabelValues("admin", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{API: "admin", Status: resp.StatusCode, Body: truncateBody(b)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
