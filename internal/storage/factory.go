// Package storage selects the ledger store backend.
package storage

import (
	"fmt"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/storage/badger"
	"github.com/bobmcallan/papertrade/internal/storage/surrealdb"
)

// NewStorageManager opens the configured backend.
// Supported backends: "badger" (default), "surrealdb".
func NewStorageManager(logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	backend := config.Storage.Backend
	if backend == "" {
		backend = common.StorageBadger
	}

	switch backend {
	case common.StorageBadger:
		return badger.NewManager(logger, config.Storage.Badger.Path)
	case common.StorageSurrealDB:
		return surrealdb.NewManager(logger, config.Storage.SurrealDB)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: badger, surrealdb)", backend)
	}
}
