package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"feedgrid/internal/blobstore"
	"feedgrid/internal/config"
	"feedgrid/internal/database"
	"feedgrid/internal/encryption"
	"feedgrid/internal/gallery"
	"feedgrid/internal/preferences"
	"feedgrid/internal/preview"
)

// Options controls how a FeedApp is opened.
type Options struct {
	// Passphrase supplies the key passphrase when blobs are encrypted.
	// It is not called otherwise.
	Passphrase func() (string, error)

	// Console receives log records at ConsoleLevel or above. Defaults to os.Stderr.
	Console      io.Writer
	ConsoleLevel slog.Level
}

// FeedApp is the application layer between the CLI and the gallery.
// It constructs all dependencies from config, hydrates the gallery, records
// mutating commands in the operation journal, and releases everything on Close.
type FeedApp struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	blobs     gallery.BlobStore
	gallery   *gallery.Gallery
	prefs     *preferences.Preferences
	logger    *slog.Logger
	sessionID string
	logFile   *os.File
}

// NewFeedApp creates a fully wired FeedApp from the given config and loads
// the gallery. The caller must call Close when done.
func NewFeedApp(ctx context.Context, cfg *config.Config, opts Options) (*FeedApp, error) {
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	sessionID := uuid.New().String()
	logger, logFile, err := newLogger(cfg.LogDir, sessionID, opts.Console, opts.ConsoleLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a := &FeedApp{cfg: cfg, logger: logger, sessionID: sessionID, logFile: logFile}
	if err := a.open(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *FeedApp) open(ctx context.Context, opts Options) error {
	db, err := database.NewDatabaseFromConfig(a.cfg.Database)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	a.db = db

	if err := db.CheckMigrations(); err != nil {
		if errors.Is(err, database.ErrNeedsMigration) {
			return err
		}
		return fmt.Errorf("opening database: %w", err)
	}

	blobs, err := blobstore.NewBlobStoreFromConfig(ctx, a.cfg.BlobStore)
	if err != nil {
		return fmt.Errorf("creating blob store: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if enc != nil {
		if !enc.IsConfigured() {
			return fmt.Errorf("encryption keys not found, run 'feedgrid init'")
		}
		if opts.Passphrase == nil {
			return fmt.Errorf("blobs are encrypted but no passphrase source was given")
		}
		pass, err := opts.Passphrase()
		if err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}
		dc, err := enc.Unlock(pass)
		if err != nil {
			return fmt.Errorf("unlocking private key: %w", err)
		}
		blobs = blobstore.NewEncryptedStore(blobs, enc, dc)
	}
	a.blobs = blobs

	handles, err := preview.NewHandleFactoryFromConfig(a.cfg.Preview)
	if err != nil {
		return fmt.Errorf("creating preview handles: %w", err)
	}

	a.gallery = gallery.New(blobs, db, handles, &slogAdapter{l: a.logger})
	a.prefs = preferences.New(db, a.cfg.Appearance.PreferDark)

	if err := a.gallery.Load(ctx); err != nil {
		return fmt.Errorf("loading gallery: %w", err)
	}
	return nil
}

// track records name in the journal around fn. Journal failures are logged,
// never returned: the journal must not block gallery edits.
func (a *FeedApp) track(ctx context.Context, name, params string, fn func() error) error {
	op := NewOperation(name, params)
	if row, err := a.db.CreateOperation(ctx, op.Name, op.Parameters); err != nil {
		a.logger.Warn("operation not journaled", "operation", name, "error", err)
	} else {
		op.ID = row.ID
	}

	err := fn()
	op.Finish(err)

	if op.Persisted() {
		if ferr := a.db.FinishOperation(ctx, op.ID, op.Status); ferr != nil {
			a.logger.Warn("operation not finished in journal", "id", op.ID, "error", ferr)
		}
	}
	return err
}

// Items returns the gallery in display order.
func (a *FeedApp) Items() []gallery.Item {
	return a.gallery.Items()
}

// IDs returns the gallery IDs in display order.
func (a *FeedApp) IDs() []string {
	return a.gallery.IDs()
}

// Add reads each file and uploads them together. The last file ends up first.
func (a *FeedApp) Add(ctx context.Context, paths []string) ([]gallery.Item, error) {
	blobs := make([][]byte, 0, len(paths))
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		blobs = append(blobs, b)
		names = append(names, filepath.Base(p))
	}

	var created []gallery.Item
	err := a.track(ctx, "Add", strings.Join(names, " "), func() error {
		var err error
		created, err = a.gallery.Append(ctx, blobs)
		return err
	})
	return created, err
}

// Move drops movedID onto targetID's position.
func (a *FeedApp) Move(ctx context.Context, movedID, targetID string) error {
	return a.track(ctx, "Move", movedID+" "+targetID, func() error {
		return a.gallery.Move(ctx, movedID, targetID)
	})
}

// Reorder replaces the whole order.
func (a *FeedApp) Reorder(ctx context.Context, ids []string) error {
	return a.track(ctx, "Reorder", strings.Join(ids, " "), func() error {
		return a.gallery.Reorder(ctx, ids)
	})
}

// Remove deletes an item.
func (a *FeedApp) Remove(ctx context.Context, id string) error {
	return a.track(ctx, "Remove", id, func() error {
		return a.gallery.Remove(ctx, id)
	})
}

// Undo steps back one mutation. Returns false if there was nothing to undo.
func (a *FeedApp) Undo(ctx context.Context) (bool, error) {
	var changed bool
	err := a.track(ctx, "Undo", "", func() error {
		var err error
		changed, err = a.gallery.Undo(ctx)
		return err
	})
	return changed, err
}

// Redo re-applies one undone mutation. Returns false if there was nothing to redo.
func (a *FeedApp) Redo(ctx context.Context) (bool, error) {
	var changed bool
	err := a.track(ctx, "Redo", "", func() error {
		var err error
		changed, err = a.gallery.Redo(ctx)
		return err
	})
	return changed, err
}

// CanUndo reports whether Undo would change the gallery.
func (a *FeedApp) CanUndo() bool { return a.gallery.CanUndo() }

// CanRedo reports whether Redo would change the gallery.
func (a *FeedApp) CanRedo() bool { return a.gallery.CanRedo() }

// Preferences returns the UI preference store.
func (a *FeedApp) Preferences() *preferences.Preferences { return a.prefs }

// ToggleDarkMode flips and journals the dark mode preference.
func (a *FeedApp) ToggleDarkMode(ctx context.Context) (bool, error) {
	var on bool
	err := a.track(ctx, "ToggleDarkMode", "", func() error {
		var err error
		on, err = a.prefs.ToggleDarkMode(ctx)
		return err
	})
	return on, err
}

// CycleGridOffset advances and journals the grid offset preference.
func (a *FeedApp) CycleGridOffset(ctx context.Context) (int, error) {
	var n int
	err := a.track(ctx, "CycleGridOffset", "", func() error {
		var err error
		n, err = a.prefs.CycleGridOffset(ctx)
		return err
	})
	return n, err
}

// Journal returns the most recent journaled operations, newest first.
func (a *FeedApp) Journal(ctx context.Context, limit int) ([]*database.Operation, error) {
	return a.db.ListOperations(ctx, limit)
}

// SessionID identifies this process in the log file.
func (a *FeedApp) SessionID() string {
	return a.sessionID
}

// Close releases display handles and closes the database and log file.
func (a *FeedApp) Close() error {
	var errs []error
	if a.gallery != nil {
		if err := a.gallery.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing gallery: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return errors.Join(errs...)
}
