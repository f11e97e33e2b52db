package transport

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"jasper-go/internal/config"
	"jasper-go/internal/jasper"
)

func TestAddress(t *testing.T) {
	a := Address([]byte("hello world"))
	if len(a) != AddressLen {
		t.Errorf("len(Address()) = %d, want %d", len(a), AddressLen)
	}
	if !ValidAddress(a) {
		t.Errorf("ValidAddress(%q) = false", a)
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("Address() = %q, want URL-safe unpadded", a)
	}
	if a != Address([]byte("hello world")) {
		t.Error("Address() is not deterministic")
	}
	if a == Address([]byte("hello world!")) {
		t.Error("different payloads share an address")
	}

	for _, bad := range []string{"", "short", strings.Repeat("!", AddressLen)} {
		if ValidAddress(bad) {
			t.Errorf("ValidAddress(%q) = true", bad)
		}
	}
}

// transportContract runs the behaviour every transport must share.
func transportContract(t *testing.T, tr jasper.Transport) {
	t.Helper()
	ctx := context.Background()

	data := []byte("<html>archived</html>")
	tags := map[string]string{jasper.TagResourceID: "r-1", jasper.TagContentType: "text/html"}

	res, err := tr.Upload(ctx, bytes.NewReader(data), int64(len(data)), tags)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.Address != Address(data) {
		t.Errorf("Address = %q, want %q", res.Address, Address(data))
	}
	if res.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", res.Size, len(data))
	}
	if !strings.Contains(tr.Link(res.Address), res.Address) {
		t.Errorf("Link() = %q does not contain address", tr.Link(res.Address))
	}

	if _, err := tr.Upload(ctx, bytes.NewReader(data), int64(len(data)), tags); err != nil {
		t.Errorf("re-Upload() error = %v", err)
	}

	if _, err := tr.Upload(ctx, bytes.NewReader(data), 999, tags); err == nil {
		t.Error("Upload() with wrong size expected error")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := tr.Upload(cancelled, bytes.NewReader(data), int64(len(data)), tags); err == nil {
		t.Error("Upload() with cancelled context expected error")
	}

	if err := tr.ValidateSetup(ctx); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
}

func TestMemoryTransport(t *testing.T) {
	m := NewMemoryTransport("mem", "")
	transportContract(t, m)

	data := []byte("payload")
	res, _ := m.Upload(context.Background(), bytes.NewReader(data), int64(len(data)), map[string]string{"Title": "x"})
	obj, ok := m.Get(res.Address)
	if !ok {
		t.Fatal("Get() object missing")
	}
	if string(obj.Data) != "payload" || obj.Tags["Title"] != "x" {
		t.Errorf("object = %+v", obj)
	}
	if m.Link(res.Address) != "memory://mem/"+res.Address {
		t.Errorf("Link() = %q", m.Link(res.Address))
	}
	if g := NewMemoryTransport("mem", "https://gw.example/"); g.Link("abc") != "https://gw.example/abc" {
		t.Errorf("gateway Link() = %q", g.Link("abc"))
	}
}

func TestMemoryTransport_Concurrent(t *testing.T) {
	m := NewMemoryTransport("mem", "")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data := bytes.Repeat([]byte{byte(i)}, 64)
			if _, err := m.Upload(context.Background(), bytes.NewReader(data), 64, nil); err != nil {
				t.Errorf("Upload() error = %v", err)
			}
		}(i)
	}
	wg.Wait()
	if m.Uploads() != 20 {
		t.Errorf("Uploads() = %d, want 20", m.Uploads())
	}
}

func TestFileSystemTransport(t *testing.T) {
	root := filepath.Join(t.TempDir(), "archive")
	fs, err := NewFileSystemTransport("local", root, "")
	if err != nil {
		t.Fatalf("NewFileSystemTransport() error = %v", err)
	}
	transportContract(t, fs)

	t.Run("stores object and tags", func(t *testing.T) {
		data := []byte("file payload")
		res, err := fs.Upload(context.Background(), bytes.NewReader(data), int64(len(data)), map[string]string{"Title": "Doc"})
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}

		var buf bytes.Buffer
		if err := fs.Read(res.Address, &buf); err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if buf.String() != "file payload" {
			t.Errorf("Read() = %q", buf.String())
		}
		tags, err := fs.Tags(res.Address)
		if err != nil {
			t.Fatalf("Tags() error = %v", err)
		}
		if tags["Title"] != "Doc" {
			t.Errorf("Tags() = %v", tags)
		}
		if !strings.HasPrefix(fs.Link(res.Address), "file://") {
			t.Errorf("Link() = %q, want file URL", fs.Link(res.Address))
		}
	})

	t.Run("leaves no temp files", func(t *testing.T) {
		entries, _ := os.ReadDir(filepath.Join(root, "objects"))
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".tmp-") {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
	})

	t.Run("read of unknown address", func(t *testing.T) {
		var buf bytes.Buffer
		err := fs.Read(Address([]byte("never uploaded")), &buf)
		if err == nil || !strings.Contains(err.Error(), "object not found") {
			t.Errorf("Read() error = %v, want object not found", err)
		}
		if err := fs.Read("../etc/passwd", &buf); err == nil {
			t.Error("Read() accepted a path as address")
		}
	})

	t.Run("validate fails when root is removed", func(t *testing.T) {
		dir := t.TempDir()
		gone, _ := NewFileSystemTransport("gone", filepath.Join(dir, "x"), "")
		os.RemoveAll(filepath.Join(dir, "x"))
		if err := gone.ValidateSetup(context.Background()); err == nil {
			t.Error("ValidateSetup() expected error")
		}
	})
}

func TestNewTransportFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TransportConfig
		wantErr bool
	}{
		{"memory transport", config.TransportConfig{Type: "memory", Name: "m"}, false},
		{"filesystem transport", config.TransportConfig{Type: "filesystem", FSRoot: t.TempDir()}, false},
		{"filesystem without root", config.TransportConfig{Type: "filesystem"}, true},
		{"s3 without bucket", config.TransportConfig{Type: "s3"}, true},
		{"unknown transport type", config.TransportConfig{Type: "carrier-pigeon"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTransportFromConfig(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewTransportFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && got != nil {
				t.Error("NewTransportFromConfig() should return nil on error")
			}
			if !tt.wantErr && got.Name() == "" {
				t.Error("transport has no name")
			}
		})
	}
}
