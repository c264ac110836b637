package gallery

import (
	"context"
	"io"
)

// BlobStore provides durable storage for image content keyed by item ID.
// Content is streamed through io.Reader/io.Writer like the other storage
// backends in this repository.
type BlobStore interface {
	// Put stores content for id, replacing any existing content.
	// size is the number of bytes that will be read from r.
	Put(ctx context.Context, id string, r io.Reader, size int64) error

	// Get writes the content stored for id to w.
	// Absence is not an error: Get returns false and writes nothing.
	Get(ctx context.Context, id string, w io.Writer) (bool, error)

	// Delete removes the content stored for id. Deleting an absent id is a no-op.
	Delete(ctx context.Context, id string) error

	// ValidateSetup verifies that the store is accessible and properly configured.
	ValidateSetup(ctx context.Context) error
}

// OrderStore persists the gallery's ordered list of item IDs as a single
// record that is overwritten on every save.
type OrderStore interface {
	// SaveOrder replaces the persisted order with ids.
	SaveOrder(ctx context.Context, ids []string) error

	// LoadOrder returns the persisted order, or an empty list if none was saved.
	LoadOrder(ctx context.Context) ([]string, error)
}
