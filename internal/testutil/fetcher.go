package testutil

import (
	"context"
	"fmt"
	"sync"

	"jasper-go/internal/jasper"
)

// StubFetcher serves canned documents by URL and records requests. URLs in
// Down fail both Fetch and Probe.
type StubFetcher struct {
	mu        sync.Mutex
	documents map[string]*jasper.FetchResult
	down      map[string]bool
	requests  []string
}

func NewStubFetcher() *StubFetcher {
	return &StubFetcher{
		documents: make(map[string]*jasper.FetchResult),
		down:      make(map[string]bool),
	}
}

// Serve registers body under url.
func (f *StubFetcher) Serve(url, contentType string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents[url] = &jasper.FetchResult{URL: url, Body: body, ContentType: contentType}
	delete(f.down, url)
}

// TakeDown makes url unreachable.
func (f *StubFetcher) TakeDown(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down[url] = true
}

func (f *StubFetcher) Fetch(ctx context.Context, url string) (*jasper.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, url)
	doc, ok := f.documents[url]
	if !ok || f.down[url] {
		return nil, fmt.Errorf("GET %s: 404 Not Found", url)
	}
	copied := *doc
	return &copied, nil
}

func (f *StubFetcher) Probe(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, url)
	if f.down[url] {
		return fmt.Errorf("HEAD %s: connection refused", url)
	}
	return nil
}

// Requests returns the URLs fetched or probed so far.
func (f *StubFetcher) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

var (
	_ jasper.Fetcher = (*StubFetcher)(nil)
	_ jasper.Prober  = (*StubFetcher)(nil)
)
