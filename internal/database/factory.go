package database

import (
	"fmt"
	"os"
	"path/filepath"

	"jasper-go/internal/config"
	"jasper-go/internal/jasper"
)

// NewDatabaseFromConfig opens the configured store and applies pending migrations.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, clock jasper.Clock, ids jasper.IDGenerator) (jasper.Database, error) {
	var path string
	switch cfg.Type {
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path required for sqlite database")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		path = cfg.Path
	case "memory":
		path = ":memory:"
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}

	db, err := NewSQLiteDatabase(path, clock, ids)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
