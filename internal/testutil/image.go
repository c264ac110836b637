package testutil

import (
	"bytes"
	"context"
	"testing"

	"feedgrid/internal/gallery"
	"feedgrid/internal/preview"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// PNG returns bytes sniffed as image/png, distinguished by tag.
func PNG(tag string) []byte {
	return append(append([]byte(nil), pngSignature...), tag...)
}

// GIF returns bytes sniffed as image/gif, distinguished by tag.
func GIF(tag string) []byte {
	return append([]byte("GIF89a"), tag...)
}

// Fixture bundles a gallery with inspectable test doubles.
type Fixture struct {
	Gallery *gallery.Gallery
	Blobs   *FaultyBlobStore
	Order   *MemoryOrderStore
	Handles *preview.MemoryFactory
}

// NewFixture creates a gallery over fresh doubles and hydrates it from
// persisted, whose IDs are given content PNG(id) in the blob store.
// Handles still open at the end of the test are released.
func NewFixture(t *testing.T, persisted ...string) *Fixture {
	t.Helper()

	f := &Fixture{
		Blobs:   NewFaultyBlobStore(),
		Order:   NewMemoryOrderStore(persisted...),
		Handles: preview.NewMemoryFactory(),
	}
	for _, id := range persisted {
		b := PNG(id)
		if err := f.Blobs.MemoryStore.Put(context.Background(), id, bytes.NewReader(b), int64(len(b))); err != nil {
			t.Fatalf("seeding blob %s: %v", id, err)
		}
	}

	f.Gallery = gallery.New(f.Blobs, f.Order, f.Handles, gallery.NewNopLogger())
	if err := f.Gallery.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	t.Cleanup(func() {
		f.Gallery.Close()
	})
	return f
}
