package store

import (
	"fmt"

	"github.com/iotlog/fleetengine/internal/config"
)

// NewBackend creates a voyage store based on configuration.
func NewBackend(cfg config.StoreConfig) (Backend, error) {
	switch cfg.Type {
	case "postgres":
		db, err := OpenPostgres(cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return NewGormStore(db, 0), nil
	case "sqlite":
		db, err := OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return NewGormStore(db, 0), nil
	case "memory":
		return NewMemoryStore(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
