package database

import (
	"fmt"
	"path/filepath"

	"feedgrid/internal/config"
)

// DatabaseFile is the SQLite file name inside the configured data directory.
const DatabaseFile = "feedgrid.db"

// NewDatabaseFromConfig opens the database described by cfg.
// A "memory" database is migrated immediately since it starts empty on every run.
func NewDatabaseFromConfig(cfg config.DatabaseConfig) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		return NewSQLiteDatabase(filepath.Join(cfg.DataDir, DatabaseFile))
	case "memory":
		db, err := NewSQLiteDatabase(":memory:")
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating in-memory database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
