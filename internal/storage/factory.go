package storage

import (
	"fmt"

	"github.com/hyperjump/photostory/internal/config"
)

// New returns the store selected by cfg.Driver.
func New(cfg *config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return NewMemoryStorage(), nil
	case config.DriverSQLite:
		return NewSQLiteStorage(cfg.DatabasePath)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
