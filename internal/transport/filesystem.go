package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"jasper-go/internal/jasper"
)

// FileSystemTransport stores uploads as files in a directory structure:
//
//	<root>/
//	  objects/
//	    <address>        (payload, named by content address)
//	  tags/
//	    <address>.json   (tags of the latest upload)
type FileSystemTransport struct {
	name      string
	root      string
	objectDir string
	tagDir    string
	gateway   string
}

// NewFileSystemTransport creates a transport rooted at root, creating its directories.
func NewFileSystemTransport(name, root, gateway string) (*FileSystemTransport, error) {
	objectDir := filepath.Join(root, "objects")
	tagDir := filepath.Join(root, "tags")

	for _, dir := range []string{objectDir, tagDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create transport directory: %w", err)
		}
	}

	return &FileSystemTransport{
		name:      name,
		root:      root,
		objectDir: objectDir,
		tagDir:    tagDir,
		gateway:   gateway,
	}, nil
}

func (v *FileSystemTransport) Name() string { return v.name }

// Upload writes the payload under its content address. An existing object
// with the same address is left in place; its tags are replaced.
func (v *FileSystemTransport) Upload(ctx context.Context, r io.Reader, size int64, tags map[string]string) (*jasper.UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := readPayload(r, size)
	if err != nil {
		return nil, err
	}
	addr := Address(data)

	objectPath := filepath.Join(v.objectDir, addr)
	if _, err := os.Stat(objectPath); err != nil {
		if err := writeFile(objectPath, bytes.NewReader(data)); err != nil {
			return nil, err
		}
	}

	meta, err := json.MarshalIndent(tags, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding tags: %w", err)
	}
	if err := writeFile(filepath.Join(v.tagDir, addr+".json"), bytes.NewReader(meta)); err != nil {
		return nil, err
	}

	return &jasper.UploadResult{Address: addr, Size: size}, nil
}

// Link returns a gateway URL when one is configured, otherwise a file URL.
func (v *FileSystemTransport) Link(address string) string {
	if v.gateway != "" {
		return gatewayLink(v.gateway, address)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(v.objectDir, address))}).String()
}

// Read copies the object at address to w.
func (v *FileSystemTransport) Read(address string, w io.Writer) error {
	if !ValidAddress(address) {
		return fmt.Errorf("invalid address: %q", address)
	}
	f, err := os.Open(filepath.Join(v.objectDir, address))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("object not found: %s", address)
		}
		return fmt.Errorf("failed to open object: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}
	return nil
}

// Tags returns the tags recorded for address.
func (v *FileSystemTransport) Tags(address string) (map[string]string, error) {
	if !ValidAddress(address) {
		return nil, fmt.Errorf("invalid address: %q", address)
	}
	data, err := os.ReadFile(filepath.Join(v.tagDir, address+".json"))
	if err != nil {
		return nil, fmt.Errorf("reading tags: %w", err)
	}
	var tags map[string]string
	if err := json.Unmarshal(data, &tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	return tags, nil
}

// ValidateSetup verifies that the transport directories are accessible.
func (v *FileSystemTransport) ValidateSetup(ctx context.Context) error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("transport root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("transport root is not a directory: %s", v.root)
	}

	for _, dir := range []string{v.objectDir, v.tagDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("transport directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("transport path is not a directory: %s", dir)
		}
	}
	return nil
}

// writeFile writes r to destPath via a temp file in the same directory and a rename.
func writeFile(destPath string, r io.Reader) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ jasper.Transport = (*FileSystemTransport)(nil)
