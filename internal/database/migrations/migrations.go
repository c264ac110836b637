package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

var (
	// ErrNeedsMigration means the schema is missing or older than this binary.
	// Running "feedgrid init" fixes it.
	ErrNeedsMigration = errors.New("database schema needs migration, run 'feedgrid init'")

	// ErrDirty means a previous migration stopped halfway.
	ErrDirty = errors.New("database schema is dirty, a previous migration failed")

	// ErrTooNew means the database was migrated by a newer feedgrid.
	ErrTooNew = errors.New("database schema is newer than this feedgrid binary")
)

// Status describes where a database stands relative to the embedded migrations.
// Version is 0 when no migration has ever been applied.
type Status struct {
	Version uint
	Latest  uint
	Dirty   bool
}

// Current reports whether the schema matches the embedded migrations exactly.
func (s Status) Current() bool {
	return !s.Dirty && s.Version == s.Latest
}

// ReadStatus returns the schema version of db and the latest embedded version.
func ReadStatus(db *sql.DB) (Status, error) {
	latest, err := latestVersion()
	if err != nil {
		return Status{}, err
	}

	// The migrate instance is not closed: closing it would close db,
	// which belongs to the caller.
	m, err := newMigrate(db)
	if err != nil {
		return Status{}, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{Latest: latest}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("reading schema version: %w", err)
	}
	return Status{Version: version, Latest: latest, Dirty: dirty}, nil
}

// Check returns nil when db is at the latest schema version and an error
// wrapping ErrNeedsMigration, ErrDirty or ErrTooNew otherwise.
func Check(db *sql.DB) error {
	st, err := ReadStatus(db)
	if err != nil {
		return err
	}
	switch {
	case st.Dirty:
		return fmt.Errorf("version %d: %w", st.Version, ErrDirty)
	case st.Version == 0:
		return fmt.Errorf("no schema version: %w", ErrNeedsMigration)
	case st.Version < st.Latest:
		return fmt.Errorf("version %d of %d: %w", st.Version, st.Latest, ErrNeedsMigration)
	case st.Version > st.Latest:
		return fmt.Errorf("version %d, binary knows %d: %w", st.Version, st.Latest, ErrTooNew)
	}
	return nil
}

// MigrateUp applies every pending migration. A database that is already
// current is left alone.
func MigrateUp(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("reading embedded migrations: %w", err)
	}

	dbDriver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", dbDriver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating migrate instance: %w", err)
	}
	return m, nil
}

// latestVersion walks the embedded migrations to the last one.
func latestVersion() (uint, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("reading embedded migrations: %w", err)
	}
	defer src.Close()
	return lastVersion(src)
}

func lastVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("finding first migration: %w", err)
	}
	for {
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, fmt.Errorf("finding migration after %d: %w", v, err)
		}
		v = next
	}
}
