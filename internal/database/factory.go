package database

import (
	"fmt"
	"os"
	"path/filepath"

	"arc-go/internal/config"
)

// DatabaseFilename is the archive database file inside the data directory.
const DatabaseFilename = "archive.db"

// NewDatabaseFromConfig creates a SQLiteDatabase based on the database config type.
// The schema is not migrated; callers decide when to run Migrate.
func NewDatabaseFromConfig(cfg config.DatabaseConfig) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteDatabase(filepath.Join(cfg.DataDir, DatabaseFilename))
	case "memory":
		return NewSQLiteDatabase(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
