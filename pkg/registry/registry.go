package registry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cuemby/storefront/pkg/log"
	"github.com/cuemby/storefront/pkg/storage"
	"github.com/cuemby/storefront/pkg/types"
	"github.com/rs/zerolog"
)

// Registry is the durable record of store lifecycle intent. All mutations
// go through it: it stamps timestamps, enforces terminal-state rules, and
// emits audit entries write-through.
type Registry struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewRegistry creates a registry over the given storage backend
func NewRegistry(store storage.Store) *Registry {
	return &Registry{
		store:  store,
		logger: log.WithComponent("registry"),
	}
}

// Create inserts a new store at status queued and emits an audit create
// entry. The namespace and helm release names equal the generated id.
func (r *Registry) Create(name, engine string) (*types.Store, error) {
	now := time.Now()
	store := &types.Store{
		ID:          types.NewStoreID(),
		Name:        name,
		Engine:      engine,
		Status:      types.StatusQueued,
		Namespace:   "",
		HelmRelease: "",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	store.Namespace = store.ID
	store.HelmRelease = store.ID

	if err := r.store.CreateStore(store); err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	r.Append(store.ID, types.AuditCreate, map[string]any{
		"name":   name,
		"engine": engine,
	})
	return store, nil
}

// Get returns a store by id
func (r *Registry) Get(id string) (*types.Store, error) {
	return r.store.GetStore(id)
}

// List returns all stores, newest first
func (r *Registry) List() ([]*types.Store, error) {
	return r.store.ListStores()
}

// ActiveCount returns the number of stores counted toward the quota
func (r *Registry) ActiveCount() (int, error) {
	return r.store.ActiveCount()
}

// UpdateStatus transitions a store to the given status and emits an audit
// status_change entry. errorMessage is stored for failed transitions and
// cleared otherwise. Deleted stores reject all updates.
func (r *Registry) UpdateStatus(id string, status types.StoreStatus, errorMessage string) (*types.Store, error) {
	store, err := r.store.GetStore(id)
	if err != nil {
		return nil, err
	}
	if store.Status.IsTerminal() {
		return nil, fmt.Errorf("store %s is deleted and cannot change status", id)
	}

	from := store.Status
	store.Status = status
	store.UpdatedAt = time.Now()
	if status == types.StatusFailed {
		store.ErrorMessage = errorMessage
	} else {
		store.ErrorMessage = ""
	}

	if err := r.store.UpdateStore(store); err != nil {
		return nil, fmt.Errorf("failed to update store status: %w", err)
	}

	details := map[string]any{"from": from, "to": status}
	if store.ErrorMessage != "" {
		details["error"] = store.ErrorMessage
	}
	r.Append(id, types.AuditStatusChange, details)
	return store, nil
}

// MarkReady sets a store to ready with its computed URLs and clears any
// prior error message
func (r *Registry) MarkReady(id, storeURL, adminURL string) (*types.Store, error) {
	store, err := r.store.GetStore(id)
	if err != nil {
		return nil, err
	}
	if store.Status.IsTerminal() {
		return nil, fmt.Errorf("store %s is deleted and cannot be marked ready", id)
	}

	from := store.Status
	store.Status = types.StatusReady
	store.StoreURL = storeURL
	store.AdminURL = adminURL
	store.ErrorMessage = ""
	store.UpdatedAt = time.Now()

	if err := r.store.UpdateStore(store); err != nil {
		return nil, fmt.Errorf("failed to mark store ready: %w", err)
	}

	r.Append(id, types.AuditStatusChange, map[string]any{
		"from":      from,
		"to":        types.StatusReady,
		"store_url": storeURL,
	})
	return store, nil
}

// MarkDeleted sets a store to its terminal state and emits an audit delete
// entry
func (r *Registry) MarkDeleted(id string) (*types.Store, error) {
	store, err := r.store.GetStore(id)
	if err != nil {
		return nil, err
	}
	if store.Status.IsTerminal() {
		return nil, fmt.Errorf("store %s is already deleted", id)
	}

	store.Status = types.StatusDeleted
	store.ErrorMessage = ""
	store.UpdatedAt = time.Now()

	if err := r.store.UpdateStore(store); err != nil {
		return nil, fmt.Errorf("failed to mark store deleted: %w", err)
	}

	r.Append(id, types.AuditDelete, map[string]any{"namespace": store.Namespace})
	return store, nil
}

// RecentFailures returns the n most recently failed stores
func (r *Registry) RecentFailures(n int) ([]*types.Store, error) {
	return r.store.RecentFailures(n)
}

// StatusHistogram returns store counts per status
func (r *Registry) StatusHistogram() (map[types.StoreStatus]int, error) {
	return r.store.StatusHistogram()
}

// ProvisioningStats returns time-to-ready aggregates
func (r *Registry) ProvisioningStats() (*types.ProvisioningStats, error) {
	return r.store.ProvisioningStats()
}

// Append writes an audit entry. Audit is best-effort write-through: a
// failure here is logged but never rolls back the mutation that caused it.
func (r *Registry) Append(storeID string, action types.AuditAction, details map[string]any) {
	var blob string
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			r.logger.Warn().Err(err).Str("store_id", storeID).Msg("failed to encode audit details")
		} else {
			blob = string(data)
		}
	}

	entry := &types.AuditEntry{
		StoreID: storeID,
		Action:  action,
		Details: blob,
	}
	if err := r.store.AppendAudit(entry); err != nil {
		r.logger.Warn().Err(err).Str("store_id", storeID).Str("action", string(action)).
			Msg("failed to append audit entry")
	}
}

// Audit returns up to limit audit entries, newest first
func (r *Registry) Audit(limit int) ([]*types.AuditEntry, error) {
	return r.store.ListAudit(limit)
}

// AuditFor returns the audit trail for one store, newest first
func (r *Registry) AuditFor(storeID string) ([]*types.AuditEntry, error) {
	return r.store.ListAuditForStore(storeID)
}
