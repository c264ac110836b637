package preview

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sync"

	"feedgrid/internal/gallery"
)

// FileSystemFactory materialises blob content as files in a cache directory
// so that external viewers can open them:
//
//	<cache_dir>/
//	  <id>-<random><ext>
//
// Each handle owns exactly one file, removed when the handle is released.
type FileSystemFactory struct {
	dir string
}

// NewFileSystemFactory creates a factory writing into dir.
func NewFileSystemFactory(dir string) (*FileSystemFactory, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create preview directory: %w", err)
	}
	return &FileSystemFactory{dir: dir}, nil
}

// Open writes content to a new file in the cache directory.
func (f *FileSystemFactory) Open(id string, content []byte) (gallery.Handle, error) {
	tmp, err := os.CreateTemp(f.dir, id+"-*"+Extension(content))
	if err != nil {
		return nil, fmt.Errorf("failed to create preview file: %w", err)
	}
	path := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write preview file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to close preview file: %w", err)
	}

	return &FileHandle{path: path}, nil
}

// Dir returns the cache directory.
func (f *FileSystemFactory) Dir() string {
	return f.dir
}

// FileHandle is a display handle backed by a file on disk.
type FileHandle struct {
	path string
	once sync.Once
}

func (h *FileHandle) URI() string { return "file://" + filepath.ToSlash(h.path) }

// Path returns the location of the preview file.
func (h *FileHandle) Path() string { return h.path }

// Release removes the preview file. Subsequent calls are no-ops.
func (h *FileHandle) Release() error {
	var err error
	h.once.Do(func() {
		if rerr := os.Remove(h.path); rerr != nil && !os.IsNotExist(rerr) {
			err = fmt.Errorf("failed to remove preview file: %w", rerr)
		}
	})
	return err
}

// Extension picks a file extension from the sniffed content type.
func Extension(content []byte) string {
	ct := gallery.ContentType(content)
	switch ct {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "image/svg+xml":
		return ".svg"
	}
	exts, err := mime.ExtensionsByType(ct)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

// Compile-time check that FileSystemFactory implements gallery.HandleFactory interface
var _ gallery.HandleFactory = (*FileSystemFactory)(nil)
