package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"feedgrid/internal/database/migrations"
	"feedgrid/internal/gallery"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// OrderKey is the key-value record holding the gallery order as a JSON array.
const OrderKey = "image-order"

// Operation is one row of the operation journal.
type Operation struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Operation  string
	Parameters string
	Status     string
}

// SQLiteDatabase stores the gallery order, UI preferences and the
// operation journal in a single SQLite file.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *Queries
	path    string
}

// ErrNeedsMigration is returned by CheckMigrations when the schema is
// missing or behind; "feedgrid init" brings it up to date.
var ErrNeedsMigration = migrations.ErrNeedsMigration

var _ gallery.OrderStore = (*SQLiteDatabase)(nil)

// NewSQLiteDatabase opens the database at path, creating its directory
// if needed. path can be ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteDatabase{db: db, queries: NewQueries(db), path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db, queries: NewQueries(db)}
}

// OpenConnection opens and configures a SQLite connection.
// An in-memory database is pinned to a single connection so every query
// sees the same schema.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

// Order record

// SaveOrder overwrites the order record with ids.
func (s *SQLiteDatabase) SaveOrder(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding order: %w", err)
	}
	if err := s.put(ctx, OrderKey, string(data)); err != nil {
		return fmt.Errorf("saving order: %w", err)
	}
	return nil
}

// LoadOrder returns the stored order, or an empty list if none was saved.
func (s *SQLiteDatabase) LoadOrder(ctx context.Context) ([]string, error) {
	raw, ok, err := s.get(ctx, OrderKey)
	if err != nil {
		return nil, fmt.Errorf("loading order: %w", err)
	}
	if !ok {
		return []string{}, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decoding stored order: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Preferences

// GetPreference returns the stored value for key and whether it was set.
func (s *SQLiteDatabase) GetPreference(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("reading preference %s: %w", key, err)
	}
	return v, ok, nil
}

// SetPreference stores value under key.
func (s *SQLiteDatabase) SetPreference(ctx context.Context, key, value string) error {
	if err := s.put(ctx, key, value); err != nil {
		return fmt.Errorf("writing preference %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteDatabase) get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.queries.GetValue(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (s *SQLiteDatabase) put(ctx context.Context, key, value string) error {
	return s.queries.UpsertValue(ctx, UpsertValueParams{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	})
}

// Operation journal

// CreateOperation records the start of a mutating command.
func (s *SQLiteDatabase) CreateOperation(ctx context.Context, operation, parameters string) (*Operation, error) {
	op := &Operation{
		StartedAt:  time.Now().UTC(),
		Operation:  operation,
		Parameters: parameters,
		Status:     "running",
	}
	id, err := s.queries.CreateOperation(ctx, CreateOperationParams{
		StartedAt:  op.StartedAt,
		Operation:  op.Operation,
		Parameters: op.Parameters,
		Status:     op.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	op.ID = id
	return op, nil
}

// FinishOperation stamps the finish time and final status of an operation.
func (s *SQLiteDatabase) FinishOperation(ctx context.Context, id int64, status string) error {
	err := s.queries.FinishOperation(ctx, FinishOperationParams{
		FinishedAt: time.Now().UTC(),
		Status:     status,
		ID:         id,
	})
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

// ListOperations returns up to limit operations, newest first.
func (s *SQLiteDatabase) ListOperations(ctx context.Context, limit int) ([]*Operation, error) {
	ops, err := s.queries.ListOperations(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Migrate applies pending schema migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations returns nil when the schema matches this binary. A missing
// or outdated schema yields an error wrapping ErrNeedsMigration.
func (s *SQLiteDatabase) CheckMigrations() error {
	if err := migrations.Check(s.db); err != nil {
		return fmt.Errorf("checking schema of %s: %w", s.describe(), err)
	}
	return nil
}

// SchemaStatus reports the schema version against the embedded migrations.
func (s *SQLiteDatabase) SchemaStatus() (migrations.Status, error) {
	return migrations.ReadStatus(s.db)
}

func (s *SQLiteDatabase) describe() string {
	if s.path == "" {
		return "database"
	}
	return s.path
}

// BackupTo writes a consistent copy of the database to destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
