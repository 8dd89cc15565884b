package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/company-registry-scraper/internal/config"
	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

func TestServer_CompanyByTaxID_Succeeds(t *testing.T) {
	t.Parallel()

	svc := &fakeService{record: registry.CompanyRecord{TaxID: "7700000000", Name: "Acme"}}
	rec := serve(t, newTestServer(svc), "/company/id/7700000000")

	require.Equal(t, http.StatusOK, rec.Code)
	var got registry.CompanyRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Acme", got.Name)

	call := svc.lastCall()
	assert.Equal(t, registry.Identifier{Kind: registry.KindTaxID, Value: "7700000000"}, call.id)
	assert.False(t, call.force)
}

func TestServer_CompanyRoutesAndAliases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want registry.Identifier
	}{
		{"/company/inn/770000000012", registry.Identifier{Kind: registry.KindTaxID, Value: "770000000012"}},
		{"/company/reg/1027700132195", registry.Identifier{Kind: registry.KindRegistrationNumber, Value: "1027700132195"}},
		{"/company/ogrn/304770000000012", registry.Identifier{Kind: registry.KindRegistrationNumber, Value: "304770000000012"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			svc := &fakeService{}
			rec := serve(t, newTestServer(svc), tt.path)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, svc.lastCall().id)
		})
	}
}

func TestServer_CompanyForceFlag(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	rec := serve(t, newTestServer(svc), "/company/id/7700000000?force=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.lastCall().force)

	rec = serve(t, newTestServer(svc), "/company/id/7700000000?force=maybe")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "force")
}

func TestServer_CompanyRejectsMalformedIdentifiers(t *testing.T) {
	t.Parallel()

	paths := []string{
		"/company/id/12345",
		"/company/id/77000000001",
		"/company/id/77000000ab",
		"/company/reg/" + gofakeit.Numerify("##########"),
		"/company/ogrn/10277001321950",
	}
	for _, path := range paths {
		svc := &fakeService{}
		rec := serve(t, newTestServer(svc), path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Empty(t, svc.calls, path)
	}
}

func TestServer_CompanyErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("lookup: %w", registry.ErrNotFound), http.StatusNotFound},
		{"upstream", &registry.UpstreamError{Kind: registry.FetchSearch, StatusCode: http.StatusTooManyRequests}, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(t, newTestServer(&fakeService{err: tt.err}), "/company/id/7700000000")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestServer_Search(t *testing.T) {
	t.Parallel()

	svc := &fakeService{results: []registry.SearchResult{{TaxID: "7700000000", Name: "Acme"}}}
	rec := serve(t, newTestServer(svc), "/search?q=acme")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []registry.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0].Name)
	assert.Equal(t, "acme", svc.lastQuery())
}

func TestServer_SearchValidationAndEmpty(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	server := newTestServer(svc)

	assert.Equal(t, http.StatusBadRequest, serve(t, server, "/search").Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, server, "/search?q=%20a%20").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, server, "/search?q=%D0%AF%D0%BD").Code)
	assert.Equal(t, "Ян", svc.lastQuery())

	failing := &fakeService{err: &registry.UpstreamError{Kind: registry.FetchSearch, Err: errors.New("reset")}}
	assert.Equal(t, http.StatusBadGateway, serve(t, newTestServer(failing), "/search?q=acme").Code)
}

func TestServer_Stats(t *testing.T) {
	t.Parallel()

	oldest := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	svc := &fakeService{stats: registry.Stats{TotalCached: 3, OldestEntry: &oldest, NewestEntry: &oldest}}
	rec := serve(t, newTestServer(svc), "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_cached":3`)

	down := &fakeService{err: fmt.Errorf("%w: %w", registry.ErrCacheUnavailable, errors.New("dial tcp"))}
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, newTestServer(down), "/stats").Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeService{})
	for _, path := range []string{"/", "/healthz", "/metrics"} {
		assert.Equal(t, http.StatusOK, serve(t, server, path).Code, path)
	}
}

func TestServer_RecoversFromPanics(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestServer(&fakeService{panics: true}), "/company/id/7700000000")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestServer_APIKeyMiddleware(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Auth: config.AuthConfig{Enabled: true, APIKey: "secret"}}
	server := NewServer(&fakeService{}, nil, cfg, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestServer(&fakeService{}), "/healthz")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	fixed := NewServer(&fakeService{}, fixedIDs{id: "req-fixed"}, config.Config{}, zap.NewNop())
	rec = serve(t, fixed, "/healthz")
	require.Equal(t, "req-fixed", rec.Header().Get("X-Request-ID"))

	failing := NewServer(&fakeService{}, fixedIDs{err: errors.New("entropy")}, config.Config{}, zap.NewNop())
	rec = serve(t, failing, "/healthz")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	newTestServer(&fakeService{}).Handler().ServeHTTP(rec, req)
	require.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestResponseWriterHijackBehavior(t *testing.T) {
	t.Parallel()

	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	if _, _, err := rw.Hijack(); err == nil || err.Error() != "hijacker not supported" {
		t.Fatalf("expected unsupported hijacker error, got %v", err)
	}

	h := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}
	rw = &responseWriter{ResponseWriter: h}
	conn, buf, err := rw.Hijack()
	if err != nil {
		t.Fatalf("expected successful hijack, got %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close hijacked conn: %v", err)
	}
	if err := h.CloseClient(); err != nil {
		t.Fatalf("close hijacked client: %v", err)
	}
	if buf == nil {
		t.Fatal("expected buf to be non-nil")
	}
}

// --- helpers/fakes ---

type companyCall struct {
	id    registry.Identifier
	force bool
}

type fakeService struct {
	mu      sync.Mutex
	record  registry.CompanyRecord
	results []registry.SearchResult
	stats   registry.Stats
	err     error
	panics  bool
	calls   []companyCall
	queries []string
}

func (f *fakeService) Company(_ context.Context, id registry.Identifier, force bool) (registry.CompanyRecord, error) {
	if f.panics {
		panic("extractor exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, companyCall{id: id, force: force})
	if f.err != nil {
		return registry.CompanyRecord{}, f.err
	}
	rec := f.record
	if rec.TaxID == "" {
		rec.TaxID = id.Value
	}
	return rec, nil
}

func (f *fakeService) Search(_ context.Context, query string) ([]registry.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeService) Stats(context.Context) (registry.Stats, error) {
	if f.err != nil {
		return registry.Stats{}, f.err
	}
	return f.stats, nil
}

func (f *fakeService) lastCall() companyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return companyCall{}
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeService) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return ""
	}
	return f.queries[len(f.queries)-1]
}

type fixedIDs struct {
	id  string
	err error
}

func (f fixedIDs) NewID() (string, error) { return f.id, f.err }

type hijackableRecorder struct {
	*httptest.ResponseRecorder
	client net.Conn
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	server, client := net.Pipe()
	h.client = client
	return server, bufio.NewReadWriter(bufio.NewReader(client), bufio.NewWriter(client)), nil
}

func (h *hijackableRecorder) CloseClient() error {
	if h.client != nil {
		if err := h.client.Close(); err != nil {
			return fmt.Errorf("close hijacker client: %w", err)
		}
	}
	return nil
}

func newTestServer(svc CompanyService) *Server {
	cfg := config.Config{
		Server:  config.ServerConfig{Port: 8080, RequestTimeout: 5 * time.Second},
		Logging: config.LoggingConfig{Development: true},
	}
	return NewServer(svc, nil, cfg, zap.NewNop())
}

func serve(t *testing.T, server *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}
