package encryption

import "io"

// Encryptor seals image blobs before they reach the blob store.
// Sealing needs only the public key; opening needs the private key, which
// is protected by a passphrase and unlocked once per session.
type Encryptor interface {
	// Setup generates and stores a key pair, protecting the private key with
	// passphrase. Called once by `feedgrid init`.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock opens the private key with passphrase. It fails if the
	// passphrase is wrong.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory for the
// lifetime of a session. It is never written to disk.
type DecryptionContext interface {
	// Decrypt reads ciphertext from r and writes plaintext to w.
	Decrypt(r io.Reader, w io.Writer) error
}
