package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"feedgrid/internal/encryption"
	"feedgrid/internal/gallery"
)

// EncryptedStore seals blobs with an Encryptor before handing them to the
// wrapped store, and opens them with a DecryptionContext on the way out.
// Writes need only the public key; reads need an unlocked session.
type EncryptedStore struct {
	inner gallery.BlobStore
	enc   encryption.Encryptor
	dc    encryption.DecryptionContext
}

// NewEncryptedStore wraps inner. dc may be nil for write-only use, in which
// case Get fails.
func NewEncryptedStore(inner gallery.BlobStore, enc encryption.Encryptor, dc encryption.DecryptionContext) *EncryptedStore {
	return &EncryptedStore{inner: inner, enc: enc, dc: dc}
}

func (s *EncryptedStore) Put(ctx context.Context, id string, r io.Reader, size int64) error {
	plain, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read blob: %w", err)
	}
	if int64(len(plain)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(plain))
	}

	var sealed bytes.Buffer
	if err := s.enc.Encrypt(bytes.NewReader(plain), &sealed); err != nil {
		return fmt.Errorf("encrypting blob %s: %w", id, err)
	}
	return s.inner.Put(ctx, id, &sealed, int64(sealed.Len()))
}

func (s *EncryptedStore) Get(ctx context.Context, id string, w io.Writer) (bool, error) {
	if s.dc == nil {
		return false, fmt.Errorf("blob store is locked")
	}

	var sealed bytes.Buffer
	found, err := s.inner.Get(ctx, id, &sealed)
	if err != nil || !found {
		return found, err
	}
	if err := s.dc.Decrypt(&sealed, w); err != nil {
		return true, fmt.Errorf("decrypting blob %s: %w", id, err)
	}
	return true, nil
}

func (s *EncryptedStore) Delete(ctx context.Context, id string) error {
	return s.inner.Delete(ctx, id)
}

func (s *EncryptedStore) ValidateSetup(ctx context.Context) error {
	if !s.enc.IsConfigured() {
		return fmt.Errorf("encryption keys not configured; run 'feedgrid init'")
	}
	return s.inner.ValidateSetup(ctx)
}

var _ gallery.BlobStore = (*EncryptedStore)(nil)
