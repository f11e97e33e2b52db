package testutil

import (
	"jasper-go/internal/encryption"
	"jasper-go/internal/jasper"
)

// NewTestEncryptor returns the reversible header-only encryptor.
func NewTestEncryptor() jasper.Encryptor {
	return encryption.NewTestEncryptor()
}
