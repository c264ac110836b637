package gallery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

var (
	// ErrNotHydrated is returned by mutations issued before the gallery was loaded.
	ErrNotHydrated = errors.New("gallery not hydrated")

	// ErrInvalidOrdering is returned when a reorder is not a permutation of the
	// current item IDs. The gallery is left unchanged.
	ErrInvalidOrdering = errors.New("ordering is not a permutation of the gallery")

	// ErrUnknownItem is returned when a drag references an ID not in the gallery.
	ErrUnknownItem = errors.New("unknown item")

	// ErrNotImage is returned when uploaded content is not recognised as an image.
	ErrNotImage = errors.New("content is not an image")

	// ErrOrderNotPersisted wraps an order store failure that happened after a
	// mutation was accepted. The in-memory gallery holds the new state; only
	// its durability is compromised.
	ErrOrderNotPersisted = errors.New("order not persisted")

	// ErrClosed is returned by a hydration that was overtaken by Close.
	// Its results are discarded.
	ErrClosed = errors.New("gallery closed during hydration")
)

// Gallery owns the ordered list of items, mirrors every accepted mutation to
// the order store (and the blob store for creates and deletes) and keeps the
// undo/redo timeline consistent with it.
//
// The live list and the history are guarded by one mutex so that a mutation
// and its history push are atomic with respect to undo and redo.
type Gallery struct {
	blobs   BlobStore
	order   OrderStore
	handles HandleFactory
	logger  Logger

	mu       sync.Mutex
	items    []Item
	history  *History
	ids      *Allocator
	hydrated bool

	// generation is bumped by Close. A hydration started under an older
	// generation must not install its results.
	generation uint64

	// gone holds IDs whose handle was released and blob deleted by Remove.
	// Snapshots still reference them; undo restores them without a Source.
	gone map[string]bool
}

// New creates an empty, unhydrated gallery. Call Load or Hydrate before
// mutating it.
func New(blobs BlobStore, order OrderStore, handles HandleFactory, logger Logger) *Gallery {
	return &Gallery{
		blobs:   blobs,
		order:   order,
		handles: handles,
		logger:  logger,
		history: NewHistory(),
		ids:     NewAllocator(),
		gone:    make(map[string]bool),
	}
}

// Load reads the persisted order and hydrates the gallery from it.
func (g *Gallery) Load(ctx context.Context) error {
	ids, err := g.order.LoadOrder(ctx)
	if err != nil {
		return fmt.Errorf("loading order: %w", err)
	}
	return g.Hydrate(ctx, ids)
}

// Hydrate fetches the blob for each persisted ID, in order, and replaces the
// live gallery with the items that could be loaded. IDs whose blob is missing
// are dropped; the order store is not rewritten, so the stale reference stays
// persisted until the next mutation.
//
// If ctx is done or Close is called before hydration finishes, the handles
// opened so far are released and the live gallery is left untouched.
func (g *Gallery) Hydrate(ctx context.Context, ids []string) error {
	g.mu.Lock()
	gen := g.generation
	g.mu.Unlock()

	loaded := make([]Item, 0, len(ids))
	abort := func() {
		for _, it := range loaded {
			g.releaseHandle(it)
		}
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			abort()
			return fmt.Errorf("hydration cancelled: %w", err)
		}
		if seen[id] {
			g.logger.Warn("duplicate id in persisted order", "id", id)
			continue
		}
		seen[id] = true

		var buf bytes.Buffer
		found, err := g.blobs.Get(ctx, id, &buf)
		if cerr := ctx.Err(); cerr != nil {
			abort()
			return fmt.Errorf("hydration cancelled: %w", cerr)
		}
		if err != nil {
			abort()
			return fmt.Errorf("loading blob %s: %w", id, err)
		}
		if !found {
			g.logger.Debug("blob missing, skipping", "id", id)
			continue
		}

		h, err := g.handles.Open(id, buf.Bytes())
		if err != nil {
			abort()
			return fmt.Errorf("opening handle for %s: %w", id, err)
		}
		loaded = append(loaded, Item{ID: id, Source: h})
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.generation != gen {
		abort()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		abort()
		return fmt.Errorf("hydration cancelled: %w", err)
	}

	if g.hydrated {
		g.releaseAll()
	}
	g.gone = make(map[string]bool)
	g.ids.Seed(ids)
	g.items = loaded
	g.history.Reset(NewSnapshot(loaded))
	g.hydrated = true

	g.logger.Info("gallery hydrated", "persisted", len(ids), "loaded", len(loaded))
	return nil
}

// Append stores each blob under a freshly allocated ID and inserts the new
// items at the front of the gallery, most recent first: the last blob of the
// call ends up in position 0. It returns the created items in input order.
//
// Every blob must be an image. If storing any blob fails, the blobs already
// stored by this call are removed and the gallery is unchanged.
func (g *Gallery) Append(ctx context.Context, blobs [][]byte) ([]Item, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.hydrated {
		return nil, ErrNotHydrated
	}
	if len(blobs) == 0 {
		return nil, nil
	}
	for i, b := range blobs {
		if ct := ContentType(b); !strings.HasPrefix(ct, "image/") {
			return nil, fmt.Errorf("blob %d (%s): %w", i, ct, ErrNotImage)
		}
	}

	created := make([]Item, 0, len(blobs))
	rollback := func() {
		for _, it := range created {
			g.releaseHandle(it)
			if err := g.blobs.Delete(ctx, it.ID); err != nil {
				g.logger.Warn("rollback: blob not deleted", "id", it.ID, "error", err)
			}
		}
	}

	for _, b := range blobs {
		id := g.ids.Next()
		if err := g.blobs.Put(ctx, id, bytes.NewReader(b), int64(len(b))); err != nil {
			rollback()
			return nil, fmt.Errorf("storing blob %s: %w", id, err)
		}
		h, err := g.handles.Open(id, b)
		if err != nil {
			if derr := g.blobs.Delete(ctx, id); derr != nil {
				g.logger.Warn("rollback: blob not deleted", "id", id, "error", derr)
			}
			rollback()
			return nil, fmt.Errorf("opening handle for %s: %w", id, err)
		}
		created = append(created, Item{ID: id, Source: h})
	}

	next := make([]Item, 0, len(created)+len(g.items))
	for i := len(created) - 1; i >= 0; i-- {
		next = append(next, created[i])
	}
	next = append(next, g.items...)

	err := g.commit(ctx, next)
	g.logger.Info("items added", "count", len(created))
	return cloneItems(created), err
}

// Reorder replaces the gallery order with ids, which must be a permutation
// of the current IDs. Every accepted reorder is written and recorded, even
// one equal to the current order.
func (g *Gallery) Reorder(ctx context.Context, ids []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.hydrated {
		return ErrNotHydrated
	}
	return g.reorderLocked(ctx, ids)
}

// Move handles a completed drag: movedID is taken out of its position and
// reinserted at targetID's position, shifting the items in between.
// Dropping an item onto itself is a no-op.
func (g *Gallery) Move(ctx context.Context, movedID, targetID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.hydrated {
		return ErrNotHydrated
	}
	from := g.indexOf(movedID)
	if from < 0 {
		return fmt.Errorf("moved %s: %w", movedID, ErrUnknownItem)
	}
	to := g.indexOf(targetID)
	if to < 0 {
		return fmt.Errorf("target %s: %w", targetID, ErrUnknownItem)
	}
	if from == to {
		return nil
	}
	return g.reorderLocked(ctx, MoveIDs(itemIDs(g.items), from, to))
}

// Remove deletes the item with the given ID: its display handle is released,
// it is dropped from the gallery, the new order is persisted and its blob is
// deleted. Removing an ID that is not in the gallery is a no-op.
func (g *Gallery) Remove(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.hydrated {
		return ErrNotHydrated
	}
	idx := g.indexOf(id)
	if idx < 0 {
		return nil
	}

	g.releaseHandle(g.items[idx])
	g.gone[id] = true

	next := make([]Item, 0, len(g.items)-1)
	next = append(next, g.items[:idx]...)
	next = append(next, g.items[idx+1:]...)

	g.items = next
	persistErr := g.persist(ctx)

	// An undeleted blob is an orphan nothing references; it is not worth
	// failing the removal over.
	if err := g.blobs.Delete(ctx, id); err != nil {
		g.logger.Warn("blob not deleted", "id", id, "error", err)
	}

	g.reclaim(ctx, g.history.Push(NewSnapshot(next)))
	g.logger.Info("item removed", "id", id)
	return persistErr
}

// Undo restores the previous snapshot and persists its order.
// Returns false if there was nothing to undo.
func (g *Gallery) Undo(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.hydrated {
		return false, ErrNotHydrated
	}
	snap, ok := g.history.Undo()
	if !ok {
		return false, nil
	}
	g.items = g.restore(snap)
	g.logger.Debug("undo", "cursor", g.history.Cursor())
	return true, g.persist(ctx)
}

// Redo re-applies the next snapshot and persists its order.
// Returns false if there was nothing to redo.
func (g *Gallery) Redo(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.hydrated {
		return false, ErrNotHydrated
	}
	snap, ok := g.history.Redo()
	if !ok {
		return false, nil
	}
	g.items = g.restore(snap)
	g.logger.Debug("redo", "cursor", g.history.Cursor())
	return true, g.persist(ctx)
}

// Items returns a copy of the live item list.
func (g *Gallery) Items() []Item {
	g.mu.Lock()
	defer g.mu.Unlock()
	return cloneItems(g.items)
}

// IDs returns the live item IDs in order.
func (g *Gallery) IDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return itemIDs(g.items)
}

// CanUndo reports whether Undo would change the gallery.
func (g *Gallery) CanUndo() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.history.CanUndo()
}

// CanRedo reports whether Redo would change the gallery.
func (g *Gallery) CanRedo() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.history.CanRedo()
}

// Hydrated reports whether the gallery has been loaded.
func (g *Gallery) Hydrated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hydrated
}

// Close releases every display handle held by the gallery or its history.
// Persisted state is untouched. The gallery must be hydrated again before use.
// A hydration still running when Close is called returns ErrClosed.
func (g *Gallery) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.releaseAll()
	g.items = nil
	g.history = NewHistory()
	g.gone = make(map[string]bool)
	g.hydrated = false
	g.generation++
	return nil
}

// MoveIDs returns a copy of ids with the element at from moved to position to.
func MoveIDs(ids []string, from, to int) []string {
	out := make([]string, 0, len(ids))
	out = append(out, ids[:from]...)
	out = append(out, ids[from+1:]...)
	moved := ids[from]
	out = append(out[:to], append([]string{moved}, out[to:]...)...)
	return out
}

// ContentType sniffs the MIME type of blob content. SVG is recognised on
// top of what http.DetectContentType knows.
func ContentType(b []byte) string {
	ct := http.DetectContentType(b)
	if strings.HasPrefix(ct, "text/") && isSVG(b) {
		return "image/svg+xml"
	}
	return ct
}

// isSVG reports whether the first element of b, after any XML prolog,
// comments and doctype, is <svg>.
func isSVG(b []byte) bool {
	head := bytes.TrimPrefix(b[:min(len(b), sniffLen)], []byte("\xef\xbb\xbf"))
	for {
		head = bytes.TrimSpace(head)
		var end []byte
		switch {
		case bytes.HasPrefix(head, []byte("<?")):
			end = []byte("?>")
		case bytes.HasPrefix(head, []byte("<!--")):
			end = []byte("-->")
		case bytes.HasPrefix(head, []byte("<!")):
			end = []byte(">")
		default:
			return len(head) >= 4 && bytes.EqualFold(head[:4], []byte("<svg"))
		}
		i := bytes.Index(head, end)
		if i < 0 {
			return false
		}
		head = head[i+len(end):]
	}
}

// sniffLen bounds how much content isSVG inspects.
const sniffLen = 1024

// reorderLocked validates ids against the live list and commits the new order.
func (g *Gallery) reorderLocked(ctx context.Context, ids []string) error {
	if len(ids) != len(g.items) {
		return fmt.Errorf("got %d ids for %d items: %w", len(ids), len(g.items), ErrInvalidOrdering)
	}

	byID := make(map[string]Item, len(g.items))
	for _, it := range g.items {
		byID[it.ID] = it
	}

	next := make([]Item, 0, len(ids))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok {
			return fmt.Errorf("id %q not in gallery or repeated: %w", id, ErrInvalidOrdering)
		}
		delete(byID, id)
		next = append(next, it)
	}

	err := g.commit(ctx, next)
	g.logger.Info("items reordered", "count", len(next))
	return err
}

// commit makes next the live list, persists it and records a snapshot.
// The snapshot is recorded even when persisting fails: the mutation has
// been accepted in memory.
func (g *Gallery) commit(ctx context.Context, next []Item) error {
	g.items = next
	err := g.persist(ctx)
	g.reclaim(ctx, g.history.Push(NewSnapshot(next)))
	return err
}

// persist writes the live order to the order store.
func (g *Gallery) persist(ctx context.Context) error {
	ids := itemIDs(g.items)
	if err := g.order.SaveOrder(ctx, ids); err != nil {
		g.logger.Warn("order not persisted", "count", len(ids), "error", err)
		return fmt.Errorf("%w: %w", ErrOrderNotPersisted, err)
	}
	return nil
}

// reclaim releases items that only existed in discarded redo snapshots.
// Such items were added and then undone, so nothing can reach them anymore:
// their handles are released and their blobs deleted.
func (g *Gallery) reclaim(ctx context.Context, dropped []Snapshot) {
	if len(dropped) == 0 {
		return
	}
	reachable := g.reachable()
	for _, snap := range dropped {
		for _, it := range snap.items {
			if reachable[it.ID] || g.gone[it.ID] {
				continue
			}
			reachable[it.ID] = true
			g.releaseHandle(it)
			if err := g.blobs.Delete(ctx, it.ID); err != nil {
				g.logger.Warn("orphan blob not deleted", "id", it.ID, "error", err)
			}
			g.logger.Debug("reclaimed item from discarded redo branch", "id", it.ID)
		}
	}
}

// restore returns the items of snap for the live list. Items removed since
// the snapshot was taken come back without a Source.
func (g *Gallery) restore(snap Snapshot) []Item {
	items := snap.Items()
	for i, it := range items {
		if g.gone[it.ID] {
			items[i].Source = nil
		}
	}
	return items
}

// reachable returns the set of IDs referenced by the live list or the history.
func (g *Gallery) reachable() map[string]bool {
	ids := make(map[string]bool, len(g.items))
	for _, it := range g.items {
		ids[it.ID] = true
	}
	for _, snap := range g.history.Snapshots() {
		for _, it := range snap.items {
			ids[it.ID] = true
		}
	}
	return ids
}

// releaseAll releases the handle of every item in the live list or history.
func (g *Gallery) releaseAll() {
	released := make(map[string]bool)
	release := func(it Item) {
		if released[it.ID] || g.gone[it.ID] {
			return
		}
		released[it.ID] = true
		g.releaseHandle(it)
	}
	for _, it := range g.items {
		release(it)
	}
	for _, snap := range g.history.Snapshots() {
		for _, it := range snap.items {
			release(it)
		}
	}
}

func (g *Gallery) releaseHandle(it Item) {
	if it.Source == nil {
		return
	}
	if err := it.Source.Release(); err != nil {
		g.logger.Warn("handle not released", "id", it.ID, "error", err)
	}
}

func (g *Gallery) indexOf(id string) int {
	for i, it := range g.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
