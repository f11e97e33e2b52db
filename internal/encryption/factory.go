package encryption

import (
	"fmt"

	"jasper-go/internal/config"
	"jasper-go/internal/jasper"
)

// NewEncryptorFromConfig creates the Encryptor named by cfg.Type.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (jasper.Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}

// Sniff reports whether head looks like the output of any supported encryptor.
func Sniff(head []byte) bool {
	return IsEncrypted(head) || IsTestEncrypted(head)
}
