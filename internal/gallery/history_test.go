package gallery

import (
	"reflect"
	"testing"
)

func snap(ids ...string) Snapshot {
	items := make([]Item, len(ids))
	for i, id := range ids {
		items[i] = Item{ID: id}
	}
	return NewSnapshot(items)
}

func TestHistory_UndoRedo(t *testing.T) {
	h := NewHistory()
	h.Reset(snap())
	h.Push(snap("img-1"))
	h.Push(snap("img-2", "img-1"))

	if !h.CanUndo() || h.CanRedo() {
		t.Fatalf("CanUndo/CanRedo = %v/%v, want true/false", h.CanUndo(), h.CanRedo())
	}

	s, ok := h.Undo()
	if !ok || !reflect.DeepEqual(s.IDs(), []string{"img-1"}) {
		t.Errorf("Undo() = %v, %v", s.IDs(), ok)
	}
	s, ok = h.Undo()
	if !ok || s.Len() != 0 {
		t.Errorf("second Undo() = %v, %v, want baseline", s.IDs(), ok)
	}
	if _, ok := h.Undo(); ok {
		t.Error("Undo() past baseline returned true")
	}
	if h.Cursor() != 0 {
		t.Errorf("Cursor() = %d, want 0", h.Cursor())
	}

	s, ok = h.Redo()
	if !ok || !reflect.DeepEqual(s.IDs(), []string{"img-1"}) {
		t.Errorf("Redo() = %v, %v", s.IDs(), ok)
	}
}

func TestHistory_PushTruncatesRedo(t *testing.T) {
	h := NewHistory()
	h.Reset(snap())
	h.Push(snap("img-1"))
	h.Push(snap("img-2", "img-1"))
	h.Undo()
	h.Undo()

	dropped := h.Push(snap("img-3"))
	if len(dropped) != 2 {
		t.Fatalf("Push() dropped %d snapshots, want 2", len(dropped))
	}
	if !reflect.DeepEqual(dropped[1].IDs(), []string{"img-2", "img-1"}) {
		t.Errorf("dropped[1] = %v", dropped[1].IDs())
	}
	if h.Len() != 2 || h.CanRedo() {
		t.Errorf("Len() = %d, CanRedo() = %v, want 2, false", h.Len(), h.CanRedo())
	}
	if cur, _ := h.Current(); !reflect.DeepEqual(cur.IDs(), []string{"img-3"}) {
		t.Errorf("Current() = %v", cur.IDs())
	}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory()
	if h.CanUndo() || h.CanRedo() {
		t.Error("empty history reports undo or redo available")
	}
	if _, ok := h.Current(); ok {
		t.Error("Current() on empty history returned true")
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	items := []Item{{ID: "img-1"}, {ID: "img-2"}}
	s := NewSnapshot(items)
	items[0].ID = "img-9"

	if got := s.IDs(); !reflect.DeepEqual(got, []string{"img-1", "img-2"}) {
		t.Errorf("snapshot changed with its source: %v", got)
	}

	out := s.Items()
	out[1].ID = "img-9"
	if got := s.IDs(); !reflect.DeepEqual(got, []string{"img-1", "img-2"}) {
		t.Errorf("snapshot changed through Items(): %v", got)
	}
}

func TestMoveIDs(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	tests := []struct {
		from, to int
		want     []string
	}{
		{0, 2, []string{"b", "c", "a", "d"}},
		{3, 0, []string{"d", "a", "b", "c"}},
		{1, 1, []string{"a", "b", "c", "d"}},
		{2, 3, []string{"a", "b", "d", "c"}},
	}
	for _, tt := range tests {
		got := MoveIDs(ids, tt.from, tt.to)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("MoveIDs(%d, %d) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c", "d"}) {
		t.Errorf("MoveIDs modified its input: %v", ids)
	}
}
