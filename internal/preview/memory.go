package preview

import (
	"fmt"
	"sync"

	"feedgrid/internal/gallery"
)

// MemoryFactory opens handles that keep blob content in memory.
// It counts open handles, which makes leaks visible in tests.
// This implementation is safe for concurrent use.
type MemoryFactory struct {
	mu     sync.Mutex
	opened int
	open   map[*MemoryHandle]bool
}

// NewMemoryFactory creates a new in-memory handle factory.
func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{open: make(map[*MemoryHandle]bool)}
}

// Open creates a handle holding a copy of content.
func (f *MemoryFactory) Open(id string, content []byte) (gallery.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.opened++
	h := &MemoryHandle{
		factory: f,
		id:      id,
		uri:     fmt.Sprintf("mem://%s/%d", id, f.opened),
		content: append([]byte(nil), content...),
	}
	f.open[h] = true
	return h, nil
}

// Opened returns the number of handles ever opened.
func (f *MemoryFactory) Opened() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

// Outstanding returns the number of handles opened but not yet released.
func (f *MemoryFactory) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.open)
}

// OutstandingIDs returns the item IDs of handles not yet released.
func (f *MemoryFactory) OutstandingIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.open))
	for h := range f.open {
		ids = append(ids, h.id)
	}
	return ids
}

func (f *MemoryFactory) release(h *MemoryHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.open, h)
}

// MemoryHandle is a display handle backed by an in-memory copy of the content.
type MemoryHandle struct {
	factory  *MemoryFactory
	id       string
	uri      string
	content  []byte
	released bool
	mu       sync.Mutex
}

func (h *MemoryHandle) URI() string { return h.uri }

// Content returns the handle's content, or nil once released.
func (h *MemoryHandle) Content() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.content
}

// Released reports whether Release has been called.
func (h *MemoryHandle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release drops the content. Subsequent calls are no-ops.
func (h *MemoryHandle) Release() error {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return nil
	}
	h.released = true
	h.content = nil
	h.mu.Unlock()

	h.factory.release(h)
	return nil
}

// Compile-time check that MemoryFactory implements gallery.HandleFactory interface
var _ gallery.HandleFactory = (*MemoryFactory)(nil)
