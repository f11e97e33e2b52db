package jasper

import "io"

// Encryptor protects export files. Encryption needs only the public key;
// decryption needs the passphrase-protected private key.
type Encryptor interface {
	// Setup generates a key pair, protecting the private key with passphrase.
	Setup(passphrase string) error

	// Encrypt writes the ciphertext of r to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key for the rest of the session.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
