package gallery

// History is a linear undo/redo timeline of gallery snapshots.
//
// It holds an ordered list of snapshots and a cursor to the current one.
// Pushing while the cursor is not at the end discards every snapshot after
// the cursor, so there is never more than one redo branch.
// History is not safe for concurrent use; Gallery guards it together with
// the live item list.
type History struct {
	entries []Snapshot
	cursor  int
}

// NewHistory returns an empty timeline. Call Reset to set the baseline.
func NewHistory() *History {
	return &History{}
}

// Reset drops all entries and makes baseline the only snapshot.
func (h *History) Reset(baseline Snapshot) {
	h.entries = []Snapshot{baseline}
	h.cursor = 0
}

// Push records snap as the new current snapshot, truncating any redo branch.
// It returns the snapshots that were discarded from the redo branch.
func (h *History) Push(snap Snapshot) []Snapshot {
	var dropped []Snapshot
	if len(h.entries) > 0 {
		dropped = append(dropped, h.entries[h.cursor+1:]...)
		h.entries = h.entries[:h.cursor+1]
	}
	h.entries = append(h.entries, snap)
	h.cursor = len(h.entries) - 1
	return dropped
}

// Undo moves the cursor back one step and returns the snapshot there.
// Returns false and leaves the cursor alone if there is nothing to undo.
func (h *History) Undo() (Snapshot, bool) {
	if !h.CanUndo() {
		return Snapshot{}, false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Redo moves the cursor forward one step and returns the snapshot there.
// Returns false and leaves the cursor alone if there is nothing to redo.
func (h *History) Redo() (Snapshot, bool) {
	if !h.CanRedo() {
		return Snapshot{}, false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// CanUndo reports whether the cursor is past the baseline.
func (h *History) CanUndo() bool {
	return len(h.entries) > 0 && h.cursor > 0
}

// CanRedo reports whether the cursor is before the last entry.
func (h *History) CanRedo() bool {
	return len(h.entries) > 0 && h.cursor < len(h.entries)-1
}

// Current returns the snapshot at the cursor, or false if the timeline is empty.
func (h *History) Current() (Snapshot, bool) {
	if len(h.entries) == 0 {
		return Snapshot{}, false
	}
	return h.entries[h.cursor], true
}

// Snapshots returns every snapshot in the timeline, oldest first.
func (h *History) Snapshots() []Snapshot {
	out := make([]Snapshot, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of snapshots in the timeline.
func (h *History) Len() int {
	return len(h.entries)
}

// Cursor returns the index of the current snapshot.
func (h *History) Cursor() int {
	return h.cursor
}
