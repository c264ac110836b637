package testutil

import (
	"context"
	"io"
	"sync"

	"feedgrid/internal/blobstore"
	"feedgrid/internal/gallery"
)

// FaultyBlobStore wraps an in-memory blob store and fails selected calls.
// Each Fail* field, when set, is returned instead of performing the call.
// BeforeGet, when set, runs before every Get; tests use it to cancel a
// context part way through hydration.
type FaultyBlobStore struct {
	*blobstore.MemoryStore

	mu         sync.Mutex
	FailPut    func(id string) error
	FailGet    func(id string) error
	FailDelete func(id string) error
	BeforeGet  func(id string)

	puts, gets, deletes []string
}

// NewFaultyBlobStore creates a FaultyBlobStore that initially never fails.
func NewFaultyBlobStore() *FaultyBlobStore {
	return &FaultyBlobStore{MemoryStore: blobstore.NewMemoryStore()}
}

func (s *FaultyBlobStore) Put(ctx context.Context, id string, r io.Reader, size int64) error {
	s.record(&s.puts, id)
	if s.FailPut != nil {
		if err := s.FailPut(id); err != nil {
			return err
		}
	}
	return s.MemoryStore.Put(ctx, id, r, size)
}

func (s *FaultyBlobStore) Get(ctx context.Context, id string, w io.Writer) (bool, error) {
	s.record(&s.gets, id)
	if s.BeforeGet != nil {
		s.BeforeGet(id)
	}
	if s.FailGet != nil {
		if err := s.FailGet(id); err != nil {
			return false, err
		}
	}
	return s.MemoryStore.Get(ctx, id, w)
}

func (s *FaultyBlobStore) Delete(ctx context.Context, id string) error {
	s.record(&s.deletes, id)
	if s.FailDelete != nil {
		if err := s.FailDelete(id); err != nil {
			return err
		}
	}
	return s.MemoryStore.Delete(ctx, id)
}

// Puts returns the IDs passed to Put, in call order.
func (s *FaultyBlobStore) Puts() []string { return s.calls(s.puts) }

// Gets returns the IDs passed to Get, in call order.
func (s *FaultyBlobStore) Gets() []string { return s.calls(s.gets) }

// Deletes returns the IDs passed to Delete, in call order.
func (s *FaultyBlobStore) Deletes() []string { return s.calls(s.deletes) }

func (s *FaultyBlobStore) record(calls *[]string, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*calls = append(*calls, id)
}

func (s *FaultyBlobStore) calls(c []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), c...)
}

var _ gallery.BlobStore = (*FaultyBlobStore)(nil)
