package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

type countingGate struct {
	calls atomic.Int32
	err   error
}

func (g *countingGate) Throttle(context.Context) (time.Time, error) {
	g.calls.Add(1)
	return time.Now(), g.err
}

func TestFetchSendsIdentityHeadersAndQuery(t *testing.T) {
	t.Parallel()

	var seen http.Header
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ul":[],"ip":[]}`))
	}))
	defer srv.Close()

	gate := &countingGate{}
	f := New(Config{
		UserAgents: []string{"agent-a", "agent-b"},
		Referer:    "https://registry.example",
	}, gate, zap.NewNop())
	f.pick = func(int) int { return 1 }

	resp, err := f.Fetch(context.Background(), registry.FetchRequest{
		URL:   srv.URL + "/ajax.php",
		Query: url.Values{"query": {"7700000000"}, "action": {"search"}},
		Kind:  registry.FetchSearch,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ul":[],"ip":[]}`, string(resp.Body))
	assert.Equal(t, int32(1), gate.calls.Load())

	assert.Equal(t, "agent-b", seen.Get("User-Agent"))
	assert.Equal(t, "application/json, text/html, */*", seen.Get("Accept"))
	assert.Equal(t, "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7", seen.Get("Accept-Language"))
	assert.Equal(t, "https://registry.example", seen.Get("Referer"))
	assert.Equal(t, "7700000000", query.Get("query"))
	assert.Equal(t, "search", query.Get("action"))
}

func TestFetchReportsFinalURLAfterRedirect(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/id/123", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/id/123-acme", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/id/123-acme", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := New(Config{}, &countingGate{}, nil)
	resp, err := f.Fetch(context.Background(), registry.FetchRequest{URL: srv.URL + "/id/123", Kind: registry.FetchPage})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/id/123-acme", resp.URL)
	assert.Contains(t, string(resp.Body), "ok")
}

func TestFetchNon2xxIsUpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := New(Config{}, &countingGate{}, zap.NewNop())
	_, err := f.Fetch(context.Background(), registry.FetchRequest{URL: srv.URL, Kind: registry.FetchSearch})
	require.Error(t, err)

	var upstream *registry.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.Equal(t, registry.FetchSearch, upstream.Kind)
}

func TestFetchStopsWhenGateFails(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	gate := &countingGate{err: context.Canceled}
	f := New(Config{}, gate, zap.NewNop())
	_, err := f.Fetch(context.Background(), registry.FetchRequest{URL: srv.URL, Kind: registry.FetchPage})
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, hits.Load())
}

func TestFetchConnectionFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f := New(Config{SearchTimeout: time.Second}, &countingGate{}, zap.NewNop())
	_, err := f.Fetch(context.Background(), registry.FetchRequest{URL: addr, Kind: registry.FetchSearch})
	require.Error(t, err)
	assert.True(t, registry.IsUpstream(err))
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{UserAgents: []string{"only-agent"}}, &countingGate{}, zap.NewNop())
	start := time.Unix(0, 0)
	var result registry.FetchResponse
	var fetchErr error

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, start, &result, &fetchErr)
	if hooks.onRequest == nil || hooks.onResponse == nil || hooks.onError == nil {
		t.Fatal("expected hooks to be registered")
	}

	collyReq := &colly.Request{Headers: &http.Header{}}
	hooks.onRequest(collyReq)
	assert.Equal(t, "only-agent", collyReq.Headers.Get("User-Agent"))
	assert.Empty(t, collyReq.Headers.Get("Referer"))

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusCreated,
		Body:       []byte("body"),
		Headers:    &http.Header{"X-Resp": {"ok"}},
		Request: &colly.Request{
			URL: mustParseURL(t, "https://example.com/id/1"),
		},
	})
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Equal(t, "body", string(result.Body))
	assert.Equal(t, "ok", result.Headers.Get("X-Resp"))
	assert.Equal(t, "https://example.com/id/1", result.URL)

	hooks.onError(&colly.Response{StatusCode: http.StatusBadGateway}, errors.New("boom"))
	require.EqualError(t, fetchErr, "boom")
	assert.Equal(t, http.StatusBadGateway, result.StatusCode)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", raw, err)
	}
	return u
}

type stubHooks struct {
	onRequest  colly.RequestCallback
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnRequest(cb colly.RequestCallback) {
	s.onRequest = cb
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
