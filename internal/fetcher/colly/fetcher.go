// Package collyfetcher implements registry.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/company-registry-scraper/internal/metrics"
	"github.com/JakeFAU/company-registry-scraper/internal/registry"
)

// DefaultUserAgents is the identity pool used when none is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:134.0) Gecko/20100101 Firefox/134.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.0.0",
}

// Config controls collector behavior.
type Config struct {
	UserAgents       []string
	Accept           string
	AcceptLanguage   string
	Referer          string
	SearchTimeout    time.Duration
	PageTimeout      time.Duration
	MaxBodyBytes     int
	CloudflareBypass bool
}

// Throttler is the outbound request gate every fetch passes through.
type Throttler interface {
	Throttle(ctx context.Context) (time.Time, error)
}

// Fetcher implements registry.Fetcher on top of Colly. One base collector is
// kept per request kind so timeouts never have to be mutated per call.
type Fetcher struct {
	cfg        Config
	gate       Throttler
	logger     *zap.Logger
	collectors map[registry.FetchKind]*colly.Collector
	pick       func(n int) int
	backoff    []time.Duration
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. gate must be shared by every component that talks to the upstream.
func New(cfg Config, gate Throttler, logger *zap.Logger) *Fetcher {
	return newFetcher(cfg, gate, logger, newHTTPTransport())
}

func newFetcher(cfg Config, gate Throttler, logger *zap.Logger, transport http.RoundTripper) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = DefaultUserAgents
	}
	if cfg.Accept == "" {
		cfg.Accept = "application/json, text/html, */*"
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7"
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = 15 * time.Second
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 20 * time.Second
	}

	if cfg.CloudflareBypass {
		transport = cloudflarebp.AddCloudFlareByPass(transport)
	}

	return &Fetcher{
		cfg:    cfg,
		gate:   gate,
		logger: logger.Named("fetcher"),
		collectors: map[registry.FetchKind]*colly.Collector{
			registry.FetchSearch: newCollector(cfg, transport, cfg.SearchTimeout),
			registry.FetchPage:   newCollector(cfg, transport, cfg.PageTimeout),
		},
		pick:    rand.IntN,
		backoff: handshakeRetryBackoff,
	}
}

func newCollector(cfg Config, transport http.RoundTripper, timeout time.Duration) *colly.Collector {
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	c.ParseHTTPErrorResponse = true
	if cfg.MaxBodyBytes > 0 {
		c.MaxBodySize = cfg.MaxBodyBytes
	}
	c.WithTransport(transport)
	c.SetRequestTimeout(timeout)
	return c
}

// Fetch executes a single HTTP GET using Colly. Every attempt, retries
// included, waits on the gate first. Non-2xx answers are reported as
// *registry.UpstreamError.
func (f *Fetcher) Fetch(ctx context.Context, request registry.FetchRequest) (registry.FetchResponse, error) {
	target := request.URL
	if len(request.Query) > 0 {
		target += "?" + request.Query.Encode()
	}
	for attempt := 0; ; attempt++ {
		result, err := f.fetchOnce(ctx, request, target)
		if err == nil || attempt >= len(f.backoff) || !retryable(ctx, err) {
			return result, err
		}
		metrics.ObserveHandshakeRetry()
		f.logger.Debug("retrying upstream fetch",
			zap.String("kind", string(request.Kind)),
			zap.String("url", target),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if err := sleepWithContext(ctx, f.backoff[attempt]); err != nil {
			return registry.FetchResponse{}, &registry.UpstreamError{Kind: request.Kind, URL: target, Err: err}
		}
	}
}

func (f *Fetcher) fetchOnce(
	ctx context.Context,
	request registry.FetchRequest,
	target string,
) (registry.FetchResponse, error) {
	if _, err := f.gate.Throttle(ctx); err != nil {
		return registry.FetchResponse{}, fmt.Errorf("fetch %s: %w", request.Kind, err)
	}

	var (
		result   registry.FetchResponse
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(request, start, &result, &fetchErr)
	canceled, err := f.runCollector(ctx, collector, target, &fetchErr)
	if canceled {
		// The collector goroutine may still write result; leave it alone.
		metrics.ObserveUpstream(string(request.Kind), 0, 0, time.Since(start))
		return registry.FetchResponse{}, &registry.UpstreamError{Kind: request.Kind, URL: target, Err: err}
	}
	metrics.ObserveUpstream(string(request.Kind), result.StatusCode, len(result.Body), time.Since(start))
	if err != nil {
		return registry.FetchResponse{}, &registry.UpstreamError{
			Kind:       request.Kind,
			URL:        target,
			StatusCode: result.StatusCode,
			Err:        err,
		}
	}
	if result.StatusCode < 200 || result.StatusCode > 299 {
		return registry.FetchResponse{}, &registry.UpstreamError{
			Kind:       request.Kind,
			URL:        target,
			StatusCode: result.StatusCode,
		}
	}
	f.logger.Debug("upstream fetch complete",
		zap.String("kind", string(request.Kind)),
		zap.String("url", result.URL),
		zap.Int("status", result.StatusCode),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (f *Fetcher) buildCollector(
	request registry.FetchRequest,
	start time.Time,
	result *registry.FetchResponse,
	fetchErr *error,
) *colly.Collector {
	base, ok := f.collectors[request.Kind]
	if !ok {
		base = f.collectors[registry.FetchPage]
	}
	collector := base.Clone()
	f.configureCollectorHooks(collector, start, result, fetchErr)
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	start time.Time,
	result *registry.FetchResponse,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		f.setIdentityHeaders(r)
	})

	hooks.OnResponse(func(r *colly.Response) {
		*result = registry.FetchResponse{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		*fetchErr = err
	})
}

func (f *Fetcher) setIdentityHeaders(r *colly.Request) {
	r.Headers.Set("User-Agent", f.userAgent())
	r.Headers.Set("Accept", f.cfg.Accept)
	r.Headers.Set("Accept-Language", f.cfg.AcceptLanguage)
	if f.cfg.Referer != "" {
		r.Headers.Set("Referer", f.cfg.Referer)
	}
}

func (f *Fetcher) userAgent() string {
	return f.cfg.UserAgents[f.pick(len(f.cfg.UserAgents))]
}

func (f *Fetcher) runCollector(
	ctx context.Context,
	collector *colly.Collector,
	url string,
	fetchErr *error,
) (bool, error) {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return true, fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return false, fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		if err != nil {
			return false, fmt.Errorf("colly visit failed: %w", err)
		}
		return false, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
