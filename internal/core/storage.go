package core

import (
	"context"
	"fmt"

	"github.com/SeuMarco/program/internal/config"
	"github.com/SeuMarco/program/internal/infra/persistence/memory"
	"github.com/SeuMarco/program/internal/infra/persistence/postgres"
	"github.com/SeuMarco/program/internal/infra/persistence/sqlite"
	"github.com/SeuMarco/program/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// SnapshotStore is a persistent store whose whole state can be exported and
// replaced. All three backends satisfy it.
type SnapshotStore interface {
	domain.PersistentStore
	ExportState() memory.Snapshot
	Restore(ctx context.Context, snapshot memory.Snapshot) error
}

var (
	_ SnapshotStore = (*memory.Store)(nil)
	_ SnapshotStore = (*sqlite.Store)(nil)
	_ SnapshotStore = (*postgres.Store)(nil)
)

// OpenPersistentStore selects a backend from cfg. An empty driver selects
// sqlite. The returned store implements io.Closer for the sql backends.
func OpenPersistentStore(cfg config.Storage, engine *domain.RulesEngine) (SnapshotStore, error) {
	driver := StorageDriver(cfg.Driver)
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath, engine)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.NewStore(cfg.PostgresDSN, engine)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
