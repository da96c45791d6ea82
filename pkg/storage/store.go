package storage

import (
	"github.com/cuemby/storefront/pkg/types"
)

// Store defines the interface for control-plane state persistence.
// Implemented by BoltDB-backed storage.
type Store interface {
	// Stores
	CreateStore(store *types.Store) error
	GetStore(id string) (*types.Store, error)
	ListStores() ([]*types.Store, error)
	UpdateStore(store *types.Store) error

	// Aggregates
	ActiveCount() (int, error)
	StatusHistogram() (map[types.StoreStatus]int, error)
	RecentFailures(n int) ([]*types.Store, error)
	ProvisioningStats() (*types.ProvisioningStats, error)

	// Audit log (append-only)
	AppendAudit(entry *types.AuditEntry) error
	ListAudit(limit int) ([]*types.AuditEntry, error)
	ListAuditForStore(storeID string) ([]*types.AuditEntry, error)

	// Utility
	Close() error
}
