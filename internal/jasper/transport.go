package jasper

import (
	"context"
	"io"
)

// Transport pushes bytes to a permanent, content-addressed archival network.
// Implementations must honour ctx cancellation and only return a nil error
// once the network has accepted the upload.
type Transport interface {
	// Name identifies the transport in logs and errors.
	Name() string

	// Upload reads size bytes from r and stores them with the given tags.
	Upload(ctx context.Context, r io.Reader, size int64, tags map[string]string) (*UploadResult, error)

	// Link returns a URL a browser can use to retrieve the archived address.
	Link(address string) string

	// ValidateSetup verifies that the transport is reachable and configured.
	ValidateSetup(ctx context.Context) error
}

// UploadResult is the transport's confirmation of an upload.
type UploadResult struct {
	Address string
	Size    int64
	Cost    float64 // 0 when the transport does not report cost
}

// CostEstimator is implemented by transports that can price an upload.
type CostEstimator interface {
	EstimateCost(ctx context.Context, size int64) (float64, error)
}

// Fetcher retrieves remote content.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// FetchResult is a fetched document.
type FetchResult struct {
	URL         string // final URL after redirects
	Body        []byte
	ContentType string
}

// Prober checks whether a remote location answers.
type Prober interface {
	Probe(ctx context.Context, url string) error
}

// Packager turns fetched content into a self-contained, offline-renderable
// document by inlining its subresources.
type Packager interface {
	Package(ctx context.Context, doc *FetchResult) (*Package, error)
}

// Package is a self-contained document ready for upload.
type Package struct {
	Body        []byte
	ContentType string
	Inlined     int // number of subresources embedded
}
