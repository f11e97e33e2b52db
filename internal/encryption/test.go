package encryption

import (
	"bytes"
	"fmt"
	"io"

	"jasper-go/internal/jasper"
)

// testHeader marks output of TestEncryptor. It is eight bytes so it cannot be
// mistaken for an age header or a compression frame.
var testHeader = []byte("JSPTEST\x00")

// TestEncryptor is a reversible, key-less stand-in for AgeEncryptor. It
// prepends testHeader on Encrypt and strips it on Decrypt.
type TestEncryptor struct {
	setupCalled bool
	passphrase  string
}

var _ jasper.Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.setupCalled = true
	e.passphrase = passphrase
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

// Unlock rejects a passphrase that differs from the one given to Setup.
func (e *TestEncryptor) Unlock(passphrase string) (jasper.DecryptionContext, error) {
	if e.setupCalled && passphrase != e.passphrase {
		return nil, fmt.Errorf("wrong passphrase")
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool { return true }

// IsTestEncrypted reports whether head starts with the test header.
func IsTestEncrypted(head []byte) bool {
	return bytes.HasPrefix(head, testHeader)
}

// TestDecryptionContext strips the test header.
type TestDecryptionContext struct{}

var _ jasper.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
