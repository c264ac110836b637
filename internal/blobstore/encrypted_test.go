package blobstore

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"feedgrid/internal/encryption"
	"feedgrid/internal/gallery"
)

func TestEncryptedStore(t *testing.T) {
	testBlobStore(t, func(t *testing.T) gallery.BlobStore {
		enc := encryption.NewTestEncryptor()
		dc, err := enc.Unlock("")
		if err != nil {
			t.Fatal(err)
		}
		return NewEncryptedStore(NewMemoryStore(), enc, dc)
	})
}

func TestEncryptedStore_SealsAtRest(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	enc := encryption.NewTestEncryptor()
	dc, _ := enc.Unlock("")
	s := NewEncryptedStore(inner, enc, dc)

	data := "GIF89a"
	if err := s.Put(ctx, "img-1", strings.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var raw bytes.Buffer
	if _, err := inner.Get(ctx, "img-1", &raw); err != nil {
		t.Fatal(err)
	}
	if raw.String() == data {
		t.Error("inner store holds plaintext")
	}
}

func TestEncryptedStore_Locked(t *testing.T) {
	ctx := context.Background()
	s := NewEncryptedStore(NewMemoryStore(), encryption.NewTestEncryptor(), nil)

	if err := s.Put(ctx, "img-1", strings.NewReader("x"), 1); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := s.Get(ctx, "img-1", &bytes.Buffer{}); err == nil {
		t.Error("Get() expected error without decryption context")
	}
}
