package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"feedgrid/internal/gallery"
	"feedgrid/internal/preview"
)

// ManifestFile is the name of the manifest written by Export.
const ManifestFile = "manifest.yaml"

// Manifest describes an exported arrangement.
type Manifest struct {
	ExportedAt time.Time       `yaml:"exported_at"`
	Session    string          `yaml:"session"`
	DarkMode   bool            `yaml:"dark_mode"`
	GridOffset int             `yaml:"grid_offset"`
	Items      []ManifestEntry `yaml:"items"`
	Missing    []string        `yaml:"missing,omitempty"`
	Database   string          `yaml:"database,omitempty"`
}

// ManifestEntry is one exported image.
type ManifestEntry struct {
	Position    int    `yaml:"position"`
	ID          string `yaml:"id"`
	File        string `yaml:"file"`
	ContentType string `yaml:"content_type"`
	Size        int    `yaml:"size"`
}

// Export writes the current arrangement to dir: one numbered file per item
// in display order, a copy of the database, and manifest.yaml. Items whose
// blob has gone missing are listed under "missing" instead of failing.
func (a *FeedApp) Export(ctx context.Context, dir string) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	dark, err := a.prefs.DarkMode(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading dark mode: %w", err)
	}
	offset, err := a.prefs.GridOffset(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading grid offset: %w", err)
	}

	m := &Manifest{
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		Session:    a.sessionID,
		DarkMode:   dark,
		GridOffset: offset,
		Items:      []ManifestEntry{},
	}

	for i, id := range a.gallery.IDs() {
		var buf bytes.Buffer
		found, err := a.blobs.Get(ctx, id, &buf)
		if err != nil {
			return nil, fmt.Errorf("reading blob %s: %w", id, err)
		}
		if !found {
			a.logger.Warn("blob missing during export", "id", id)
			m.Missing = append(m.Missing, id)
			continue
		}

		content := buf.Bytes()
		name := fmt.Sprintf("%03d-%s%s", i+1, id, preview.Extension(content))
		if err := os.WriteFile(filepath.Join(dir, name), content, 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		m.Items = append(m.Items, ManifestEntry{
			Position:    i + 1,
			ID:          id,
			File:        name,
			ContentType: gallery.ContentType(content),
			Size:        len(content),
		})
	}

	dbCopy := filepath.Join(dir, "feedgrid.db")
	if err := os.Remove(dbCopy); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("replacing database copy: %w", err)
	}
	if err := a.db.BackupTo(dbCopy); err != nil {
		return nil, err
	}
	m.Database = filepath.Base(dbCopy)

	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	a.logger.Info("gallery exported", "dir", dir, "items", len(m.Items), "missing", len(m.Missing))
	return m, nil
}

// ReadManifest loads a manifest written by Export.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}
