package transport

import (
	"context"
	"fmt"
	"io"
	"maps"
	"sync"

	"jasper-go/internal/jasper"
)

// Object is an upload held by MemoryTransport.
type Object struct {
	Data []byte
	Tags map[string]string
}

// MemoryTransport keeps uploads in memory. It is safe for concurrent use
// and is used for tests and dry runs.
type MemoryTransport struct {
	name    string
	gateway string

	mu      sync.RWMutex
	objects map[string]Object
	uploads int
}

// NewMemoryTransport creates a new in-memory transport with the given name.
func NewMemoryTransport(name, gateway string) *MemoryTransport {
	return &MemoryTransport{
		name:    name,
		gateway: gateway,
		objects: make(map[string]Object),
	}
}

func (m *MemoryTransport) Name() string { return m.name }

// Upload stores the payload under its content address. Re-uploading identical
// bytes is accepted and replaces the tags.
func (m *MemoryTransport) Upload(ctx context.Context, r io.Reader, size int64, tags map[string]string) (*jasper.UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := readPayload(r, size)
	if err != nil {
		return nil, err
	}
	addr := Address(data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[addr] = Object{Data: data, Tags: maps.Clone(tags)}
	m.uploads++

	return &jasper.UploadResult{Address: addr, Size: size}, nil
}

func (m *MemoryTransport) Link(address string) string {
	if m.gateway != "" {
		return gatewayLink(m.gateway, address)
	}
	return fmt.Sprintf("memory://%s/%s", m.name, address)
}

// ValidateSetup always succeeds for the in-memory transport.
func (m *MemoryTransport) ValidateSetup(ctx context.Context) error {
	return nil
}

// Get returns the object stored at address.
func (m *MemoryTransport) Get(address string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[address]
	return obj, ok
}

// Uploads returns how many uploads have been accepted.
func (m *MemoryTransport) Uploads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uploads
}

var _ jasper.Transport = (*MemoryTransport)(nil)
