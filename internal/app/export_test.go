package app

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFeedApp_Export(t *testing.T) {
	ctx := context.Background()
	a := openTestApp(t, newTestConfig(t))

	if _, err := a.Add(ctx, writeImages(t, "one.png", "two.png")); err != nil {
		t.Fatal(err)
	}
	if _, err := a.CycleGridOffset(ctx); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(t.TempDir(), "out")
	m, err := a.Export(ctx, dir)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	wantFiles := []string{"001-img-2.png", "002-img-1.png"}
	var gotFiles []string
	for _, it := range m.Items {
		gotFiles = append(gotFiles, it.File)
		if _, err := os.Stat(filepath.Join(dir, it.File)); err != nil {
			t.Errorf("exported file missing: %v", err)
		}
	}
	if !reflect.DeepEqual(gotFiles, wantFiles) {
		t.Errorf("files = %v, want %v", gotFiles, wantFiles)
	}
	if m.GridOffset != 1 {
		t.Errorf("GridOffset = %d, want 1", m.GridOffset)
	}
	if _, err := os.Stat(filepath.Join(dir, m.Database)); err != nil {
		t.Errorf("database copy missing: %v", err)
	}

	read, err := ReadManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		t.Fatalf("ReadManifest() error = %v", err)
	}
	if !reflect.DeepEqual(read.Items, m.Items) || read.Session != a.SessionID() {
		t.Errorf("ReadManifest() = %+v, want %+v", read, m)
	}

	// Exporting twice into the same directory replaces the database copy.
	if _, err := a.Export(ctx, dir); err != nil {
		t.Fatalf("second Export() error = %v", err)
	}
}

func TestFeedApp_ExportListsMissingBlobs(t *testing.T) {
	ctx := context.Background()
	a := openTestApp(t, newTestConfig(t))

	if _, err := a.Add(ctx, writeImages(t, "one.png", "two.png")); err != nil {
		t.Fatal(err)
	}
	if err := a.Remove(ctx, "img-1"); err != nil {
		t.Fatal(err)
	}
	// Undoing a removal brings back the ID, not the deleted blob.
	if _, err := a.Undo(ctx); err != nil {
		t.Fatal(err)
	}

	m, err := a.Export(ctx, t.TempDir())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !reflect.DeepEqual(m.Missing, []string{"img-1"}) {
		t.Errorf("Missing = %v, want [img-1]", m.Missing)
	}
	if len(m.Items) != 1 || m.Items[0].ID != "img-2" {
		t.Errorf("Items = %+v", m.Items)
	}
}
