package preview

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestFileSystemFactory_OpenWritesFile(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFileSystemFactory(filepath.Join(dir, "preview"))
	if err != nil {
		t.Fatalf("NewFileSystemFactory() error = %v", err)
	}

	h, err := f.Open("img-3", pngHeader)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	fh := h.(*FileHandle)
	if !strings.HasPrefix(filepath.Base(fh.Path()), "img-3-") {
		t.Errorf("Path() = %q, want img-3- prefix", fh.Path())
	}
	if filepath.Ext(fh.Path()) != ".png" {
		t.Errorf("extension = %q, want .png", filepath.Ext(fh.Path()))
	}
	if !strings.HasPrefix(h.URI(), "file://") {
		t.Errorf("URI() = %q, want file:// prefix", h.URI())
	}

	data, err := os.ReadFile(fh.Path())
	if err != nil {
		t.Fatalf("reading preview file: %v", err)
	}
	if string(data) != string(pngHeader) {
		t.Errorf("preview file content mismatch")
	}
}

func TestFileSystemFactory_ReleaseRemovesFile(t *testing.T) {
	f, err := NewFileSystemFactory(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemFactory() error = %v", err)
	}

	h, err := f.Open("img-1", pngHeader)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	path := h.(*FileHandle).Path()

	if err := h.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("preview file still exists after Release(): %v", err)
	}

	// Second release is a no-op.
	if err := h.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
}

func TestFileSystemFactory_SameIDTwice(t *testing.T) {
	f, err := NewFileSystemFactory(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemFactory() error = %v", err)
	}

	a, _ := f.Open("img-1", pngHeader)
	b, _ := f.Open("img-1", pngHeader)
	if a.URI() == b.URI() {
		t.Fatalf("handles share URI %q", a.URI())
	}

	a.Release()
	if _, err := os.Stat(b.(*FileHandle).Path()); err != nil {
		t.Errorf("releasing one handle removed the other's file: %v", err)
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    string
	}{
		{name: "png", content: pngHeader, want: ".png"},
		{name: "jpeg", content: []byte("\xFF\xD8\xFF\xE0\x00\x10JFIF"), want: ".jpg"},
		{name: "gif", content: []byte("GIF89a\x01\x00"), want: ".gif"},
		{name: "svg", content: []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), want: ".svg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Extension(tt.content); got != tt.want {
				t.Errorf("Extension() = %q, want %q", got, tt.want)
			}
		})
	}
}
