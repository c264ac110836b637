package gallery

// Handle is a displayable reference to an item's blob content, such as a
// temporary file or an in-memory view. Handles are scarce: exactly one is
// opened per loaded or uploaded item, and it must be released exactly once
// when the item is removed from the gallery.
type Handle interface {
	// URI locates the displayable content.
	URI() string

	// Release frees the underlying resource. Calling Release more than once
	// is safe; only the first call has an effect.
	Release() error
}

// HandleFactory opens display handles for blob content.
type HandleFactory interface {
	// Open creates a handle for the content of the item with the given ID.
	Open(id string, content []byte) (Handle, error)
}

// Item is one entry of the gallery. Items are values: a change to the
// gallery produces a new ordering, never an in-place edit of an Item.
type Item struct {
	ID string
	// Source is nil for an item brought back by undoing its removal: the
	// removal already released its handle and deleted its blob.
	Source Handle
}

// Snapshot is an immutable copy of the gallery's item list at one point in
// time. The zero Snapshot is an empty gallery.
type Snapshot struct {
	items []Item
}

// NewSnapshot copies items into a new Snapshot. Later changes to the
// argument slice do not affect the snapshot.
func NewSnapshot(items []Item) Snapshot {
	return Snapshot{items: cloneItems(items)}
}

// Items returns a copy of the snapshot's items.
func (s Snapshot) Items() []Item {
	return cloneItems(s.items)
}

// IDs returns the snapshot's item IDs in order.
func (s Snapshot) IDs() []string {
	return itemIDs(s.items)
}

// Len returns the number of items in the snapshot.
func (s Snapshot) Len() int {
	return len(s.items)
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func itemIDs(items []Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
