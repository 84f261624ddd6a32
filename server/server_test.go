package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/421news/hreflangd/hreflang"
	"github.com/421news/hreflangd/recompute"
	"github.com/421news/hreflangd/related"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSnapshots struct {
	mu       sync.Mutex
	snap     *recompute.Snapshot
	state    recompute.State
	triggers int
}

func (f *fakeSnapshots) Current() *recompute.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSnapshots) Ready() bool {
	return f.Current() != nil
}

func (f *fakeSnapshots) State() recompute.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSnapshots) Trigger() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers++
}

type fakePairer struct {
	mu       sync.Mutex
	payloads []hreflang.Payload
	out      *hreflang.Outcome
	err      error
	done     chan struct{}
}

func (f *fakePairer) Handle(ctx context.Context, payload hreflang.Payload) (*hreflang.Outcome, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	if f.done != nil {
		defer close(f.done)
	}
	return f.out, f.err
}

func snapshotOf(t *testing.T, res related.Result) *recompute.Snapshot {
	t.Helper()
	body, err := json.Marshal(res)
	require.NoError(t, err)
	return &recompute.Snapshot{Result: res, JSON: body, Source: recompute.SourceComputed}
}

func newTestServer(snaps *fakeSnapshots, pairer *fakePairer) (*Server, *gin.Engine) {
	s := New(context.Background(), snaps, pairer, Config{AllowedOrigin: "https://www.421.news", Version: "test"})
	return s, s.Router()
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const webhookBody = `{"post":{"current":{"id":"1","slug":"hola","published_at":"2024-05-10T12:00:00.000Z","tags":[{"slug":"hash-es","name":"#es"}]}}}`

func TestStatus(t *testing.T) {
	snaps := &fakeSnapshots{}
	_, r := newTestServer(snaps, &fakePairer{})

	w := do(r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, ServiceName, body["service"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, "not ready", body["related"])
	assert.Equal(t, recompute.Idle.String(), body["recompute"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	snaps.snap = snapshotOf(t, related.Result{"a": {}})
	snaps.state = recompute.Computing
	w = do(r, http.MethodGet, "/", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["related"])
	assert.Equal(t, recompute.Computing.String(), body["recompute"])
}

func TestRelatedSnapshot_NotReady(t *testing.T) {
	_, r := newTestServer(&fakeSnapshots{}, &fakePairer{})

	w := do(r, http.MethodGet, "/api/related-posts.json", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"not ready yet"}`, w.Body.String())
	assert.Equal(t, "https://www.421.news", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
}

func TestRelatedSnapshot_Ready(t *testing.T) {
	snap := snapshotOf(t, related.Result{"a": {"b", "c"}, "b": {"a"}})
	_, r := newTestServer(&fakeSnapshots{snap: snap}, &fakePairer{})

	w := do(r, http.MethodGet, "/api/related-posts.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(snap.JSON), w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "https://www.421.news", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
}

func TestRelatedPreflight(t *testing.T) {
	_, r := newTestServer(&fakeSnapshots{}, &fakePairer{})

	w := do(r, http.MethodOptions, "/api/related-posts.json", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://www.421.news", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestRelatedWebhook_AcceptsAndTriggers(t *testing.T) {
	snaps := &fakeSnapshots{}
	_, r := newTestServer(snaps, &fakePairer{})

	for i := 0; i < 3; i++ {
		w := do(r, http.MethodPost, "/webhook/related-posts", `{"post":{}}`)
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.JSONEq(t, `{"received":true}`, w.Body.String())
	}
	assert.Equal(t, 3, snaps.triggers)
}

func TestHreflangWebhook_HandledInBackground(t *testing.T) {
	pairer := &fakePairer{out: &hreflang.Outcome{Status: hreflang.StatusNoMatch}, done: make(chan struct{})}
	s, r := newTestServer(&fakeSnapshots{}, pairer)

	w := do(r, http.MethodPost, "/webhook/hreflang", webhookBody)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())

	select {
	case <-pairer.done:
	case <-time.After(time.Second):
		t.Fatal("payload was not handled")
	}
	s.Wait()

	require.Len(t, pairer.payloads, 1)
	require.NotNil(t, pairer.payloads[0].Post.Current)
	assert.Equal(t, "hola", pairer.payloads[0].Post.Current.Slug)
	assert.NotNil(t, pairer.payloads[0].Post.Current.PublishedAt)
}

func TestHreflangWebhook_InvalidJSONStillAcknowledged(t *testing.T) {
	pairer := &fakePairer{}
	s, r := newTestServer(&fakeSnapshots{}, pairer)

	w := do(r, http.MethodPost, "/webhook/hreflang", `{not json`)
	assert.Equal(t, http.StatusOK, w.Code)
	s.Wait()
	assert.Empty(t, pairer.payloads)
}

func TestHreflangTest(t *testing.T) {
	t.Run("returns outcome", func(t *testing.T) {
		out := &hreflang.Outcome{Status: hreflang.StatusMatched, Score: "1.000", Pair: &hreflang.Pair{ES: "hola", EN: "hello"}}
		_, r := newTestServer(&fakeSnapshots{}, &fakePairer{out: out})

		w := do(r, http.MethodPost, "/test", webhookBody)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"matched","score":"1.000","pair":{"es":"hola","en":"hello"}}`, w.Body.String())
	})

	t.Run("handler error is 500", func(t *testing.T) {
		_, r := newTestServer(&fakeSnapshots{}, &fakePairer{err: errors.New("content API 502: bad gateway")})

		w := do(r, http.MethodPost, "/test", webhookBody)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "content API 502")
	})

	t.Run("bad json is 400", func(t *testing.T) {
		_, r := newTestServer(&fakeSnapshots{}, &fakePairer{})

		w := do(r, http.MethodPost, "/test", `[`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRequestID_Propagated(t *testing.T) {
	_, r := newTestServer(&fakeSnapshots{}, &fakePairer{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestMetricsRoute(t *testing.T) {
	_, r := newTestServer(&fakeSnapshots{}, &fakePairer{})

	w := do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hreflangd_related_triggers_total")
}
