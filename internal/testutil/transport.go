package testutil

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"jasper-go/internal/jasper"
	"jasper-go/internal/transport"
)

// NewTestTransport returns an in-memory transport named "test".
func NewTestTransport() *transport.MemoryTransport {
	return transport.NewMemoryTransport("test", "https://gateway.test")
}

// ErrUploadRejected is the default failure of FailingTransport.
var ErrUploadRejected = errors.New("upload rejected by network")

// FailingTransport rejects every upload.
type FailingTransport struct {
	Err   error
	calls atomic.Int32
}

func (f *FailingTransport) Name() string { return "failing" }

func (f *FailingTransport) Upload(ctx context.Context, r io.Reader, size int64, tags map[string]string) (*jasper.UploadResult, error) {
	f.calls.Add(1)
	if f.Err != nil {
		return nil, f.Err
	}
	return nil, ErrUploadRejected
}

func (f *FailingTransport) Link(address string) string { return "failing://" + address }

func (f *FailingTransport) ValidateSetup(ctx context.Context) error { return f.Err }

// Calls returns how many uploads were attempted.
func (f *FailingTransport) Calls() int { return int(f.calls.Load()) }

// BlockingTransport holds each upload until Release is called or the upload's
// context ends. Started receives one value per upload that has begun.
type BlockingTransport struct {
	inner   jasper.Transport
	Started chan struct{}
	release chan struct{}
	once    sync.Once
}

// NewBlockingTransport wraps inner, which performs the upload once released.
func NewBlockingTransport(inner jasper.Transport) *BlockingTransport {
	return &BlockingTransport{
		inner:   inner,
		Started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (b *BlockingTransport) Name() string { return "blocking" }

func (b *BlockingTransport) Upload(ctx context.Context, r io.Reader, size int64, tags map[string]string) (*jasper.UploadResult, error) {
	b.Started <- struct{}{}
	select {
	case <-b.release:
		return b.inner.Upload(ctx, r, size, tags)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release lets every pending and future upload proceed.
func (b *BlockingTransport) Release() {
	b.once.Do(func() { close(b.release) })
}

func (b *BlockingTransport) Link(address string) string { return b.inner.Link(address) }

func (b *BlockingTransport) ValidateSetup(ctx context.Context) error {
	return b.inner.ValidateSetup(ctx)
}

// PricedTransport reports a fixed cost per upload and estimate.
type PricedTransport struct {
	*transport.MemoryTransport
	PerByte float64
}

func (p *PricedTransport) Upload(ctx context.Context, r io.Reader, size int64, tags map[string]string) (*jasper.UploadResult, error) {
	res, err := p.MemoryTransport.Upload(ctx, r, size, tags)
	if err != nil {
		return nil, err
	}
	res.Cost = float64(size) * p.PerByte
	return res, nil
}

func (p *PricedTransport) EstimateCost(ctx context.Context, size int64) (float64, error) {
	return float64(size) * p.PerByte, nil
}

var (
	_ jasper.Transport     = (*FailingTransport)(nil)
	_ jasper.Transport     = (*BlockingTransport)(nil)
	_ jasper.CostEstimator = (*PricedTransport)(nil)
)
