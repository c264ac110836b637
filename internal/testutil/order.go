package testutil

import (
	"context"
	"sync"

	"feedgrid/internal/gallery"
)

// MemoryOrderStore is an in-memory gallery.OrderStore that records every save.
type MemoryOrderStore struct {
	mu    sync.Mutex
	ids   []string
	saved bool
	saves int

	// FailSave, when set, is returned by SaveOrder and the stored order is kept.
	FailSave error
}

// NewMemoryOrderStore creates an order store holding ids, as if saved earlier.
// Pass no ids for a store that has never been written.
func NewMemoryOrderStore(ids ...string) *MemoryOrderStore {
	s := &MemoryOrderStore{}
	if len(ids) > 0 {
		s.ids = append([]string(nil), ids...)
		s.saved = true
	}
	return s
}

func (s *MemoryOrderStore) SaveOrder(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSave != nil {
		return s.FailSave
	}
	s.ids = append([]string(nil), ids...)
	s.saved = true
	s.saves++
	return nil
}

func (s *MemoryOrderStore) LoadOrder(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.ids...), nil
}

// Order returns the stored IDs.
func (s *MemoryOrderStore) Order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.ids...)
}

// Saves returns the number of successful SaveOrder calls.
func (s *MemoryOrderStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

var _ gallery.OrderStore = (*MemoryOrderStore)(nil)
