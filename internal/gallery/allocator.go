package gallery

import (
	"fmt"
	"strconv"
	"strings"
)

// idPrefix is the fixed prefix of every allocated item ID.
const idPrefix = "img-"

// Allocator hands out item IDs of the form "img-<n>" with n strictly
// increasing. It is owned by a single Gallery and seeded from the persisted
// order when the gallery is hydrated.
type Allocator struct {
	next int
}

// NewAllocator returns an allocator whose first ID is "img-1".
func NewAllocator() *Allocator {
	return &Allocator{next: 1}
}

// Seed advances the counter past the largest numeric suffix found in ids.
// IDs that do not match the "img-<n>" pattern are skipped. Seed never moves
// the counter backwards, so IDs already issued are never reissued.
func (a *Allocator) Seed(ids []string) {
	max := 0
	for _, id := range ids {
		if n, ok := ParseID(id); ok && n > max {
			max = n
		}
	}
	if max+1 > a.next {
		a.next = max + 1
	}
}

// Next returns a fresh ID.
func (a *Allocator) Next() string {
	id := FormatID(a.next)
	a.next++
	return id
}

// FormatID renders n as an item ID.
func FormatID(n int) string {
	return fmt.Sprintf("%s%d", idPrefix, n)
}

// ParseID extracts the numeric suffix of an item ID.
// Returns false when id is not of the form "img-<n>" with n >= 0.
func ParseID(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, idPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
