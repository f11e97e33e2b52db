// Package transport implements archival transports: permanent,
// content-addressed stores that uploads are pushed to.
package transport

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// AddressLen is the length of a content address: unpadded URL-safe base64
// of a SHA-256 digest.
const AddressLen = 43

// Address derives the content address of data.
func Address(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// ValidAddress reports whether s has the shape of a content address.
func ValidAddress(s string) bool {
	if len(s) != AddressLen {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil
}

// readPayload reads exactly size bytes from r.
func readPayload(r io.Reader, size int64) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	if int64(len(data)) != size {
		return nil, fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}
	return data, nil
}

// gatewayLink joins a gateway URL and an address.
func gatewayLink(gateway, address string) string {
	return strings.TrimRight(gateway, "/") + "/" + address
}
