// Package fetch retrieves remote resources and packages web pages into
// self-contained documents for archival.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"jasper-go/internal/jasper"
)

const (
	DefaultUserAgent    = "jasper/1.0"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 50 << 20
)

// ErrTooLarge is returned when a response body exceeds the configured limit.
var ErrTooLarge = errors.New("response body too large")

// StatusError is returned for HTTP responses with status >= 400.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Options configures an HTTPFetcher. Zero values select the defaults;
// RequestsPerSecond <= 0 disables throttling.
type Options struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxBodyBytes      int64
}

// HTTPFetcher fetches and probes URLs, throttled by a token bucket shared
// across all requests.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	maxBody   int64
}

// NewHTTPFetcher creates a fetcher. client may be nil.
func NewHTTPFetcher(opts Options, client *http.Client) *HTTPFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	limit, burst := rate.Inf, opts.Burst
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}

	return &HTTPFetcher{
		client:    client,
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
	}
}

func (f *HTTPFetcher) do(ctx context.Context, method, url string) (*http.Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	return f.client.Do(req)
}

// Fetch downloads url, following redirects.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*jasper.FetchResult, error) {
	resp, err := f.do(ctx, http.MethodGet, url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("fetching %s: %w (limit %d bytes)", url, ErrTooLarge, f.maxBody)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return &jasper.FetchResult{
		URL:         resp.Request.URL.String(),
		Body:        body,
		ContentType: contentType,
	}, nil
}

// Probe reports whether url answers. It tries HEAD and falls back to GET for
// servers that reject HEAD.
func (f *HTTPFetcher) Probe(ctx context.Context, url string) error {
	resp, err := f.do(ctx, http.MethodHead, url)
	if err == nil {
		resp.Body.Close()
		if resp.StatusCode < 400 {
			return nil
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	resp, err = f.do(ctx, http.MethodGet, url)
	if err != nil {
		return fmt.Errorf("probing %s: %w", url, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 400 {
		return &StatusError{URL: url, Code: resp.StatusCode}
	}
	return nil
}

var (
	_ jasper.Fetcher = (*HTTPFetcher)(nil)
	_ jasper.Prober  = (*HTTPFetcher)(nil)
)
