package registry

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/cuemby/storefront/pkg/log"
	"github.com/cuemby/storefront/pkg/storage"
	"github.com/cuemby/storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true})
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	s, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "storefront.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewRegistry(s)
}

func TestCreateStore(t *testing.T) {
	r := newTestRegistry(t)

	store, err := r.Create("Shop A", "woocommerce")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(store.ID, "store-"))
	assert.Len(t, store.ID, len("store-")+8)
	assert.Equal(t, types.StatusQueued, store.Status)
	assert.Equal(t, store.ID, store.Namespace)
	assert.Equal(t, store.ID, store.HelmRelease)
	assert.Empty(t, store.StoreURL)

	// Creation emits an audit create entry
	entries, err := r.AuditFor(store.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.AuditCreate, entries[0].Action)
	assert.Contains(t, entries[0].Details, "Shop A")
}

func TestUpdateStatusEmitsAudit(t *testing.T) {
	r := newTestRegistry(t)

	store, err := r.Create("Shop A", "woocommerce")
	require.NoError(t, err)

	updated, err := r.UpdateStatus(store.ID, types.StatusProvisioning, "")
	require.NoError(t, err)
	assert.Equal(t, types.StatusProvisioning, updated.Status)
	assert.True(t, updated.UpdatedAt.After(store.CreatedAt) || updated.UpdatedAt.Equal(store.CreatedAt))

	entries, err := r.AuditFor(store.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, types.AuditStatusChange, entries[0].Action)
	assert.Contains(t, entries[0].Details, "provisioning")
}

func TestFailedRequiresErrorMessage(t *testing.T) {
	r := newTestRegistry(t)

	store, err := r.Create("Shop A", "woocommerce")
	require.NoError(t, err)

	failed, err := r.UpdateStatus(store.ID, types.StatusFailed, "Provisioning timed out")
	require.NoError(t, err)
	assert.Equal(t, "Provisioning timed out", failed.ErrorMessage)

	// Transitioning away from failed clears the message
	retried, err := r.UpdateStatus(store.ID, types.StatusProvisioning, "")
	require.NoError(t, err)
	assert.Empty(t, retried.ErrorMessage)
}

func TestMarkReady(t *testing.T) {
	r := newTestRegistry(t)

	store, err := r.Create("Shop A", "woocommerce")
	require.NoError(t, err)

	_, err = r.UpdateStatus(store.ID, types.StatusFailed, "install blew up")
	require.NoError(t, err)

	ready, err := r.MarkReady(store.ID, "http://"+store.ID+".127.0.0.1.nip.io", "http://"+store.ID+".127.0.0.1.nip.io/wp-admin")
	require.NoError(t, err)
	assert.Equal(t, types.StatusReady, ready.Status)
	assert.NotEmpty(t, ready.StoreURL)
	assert.NotEmpty(t, ready.AdminURL)
	assert.Empty(t, ready.ErrorMessage)
}

func TestDeletedIsTerminal(t *testing.T) {
	r := newTestRegistry(t)

	store, err := r.Create("Shop A", "woocommerce")
	require.NoError(t, err)

	_, err = r.MarkDeleted(store.ID)
	require.NoError(t, err)

	// No mutation succeeds after deleted
	_, err = r.UpdateStatus(store.ID, types.StatusProvisioning, "")
	assert.Error(t, err)
	_, err = r.MarkReady(store.ID, "http://x", "http://x/wp-admin")
	assert.Error(t, err)
	_, err = r.MarkDeleted(store.ID)
	assert.Error(t, err)
}

func TestActiveCountExcludesFailedAndDeleted(t *testing.T) {
	r := newTestRegistry(t)

	a, err := r.Create("Shop A", "woocommerce")
	require.NoError(t, err)
	b, err := r.Create("Shop B", "woocommerce")
	require.NoError(t, err)
	_, err = r.Create("Shop C", "woocommerce")
	require.NoError(t, err)

	_, err = r.UpdateStatus(a.ID, types.StatusFailed, "boom")
	require.NoError(t, err)
	_, err = r.MarkDeleted(b.ID)
	require.NoError(t, err)

	count, err := r.ActiveCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAuditCausalOrderPerStore(t *testing.T) {
	r := newTestRegistry(t)

	store, err := r.Create("Shop A", "woocommerce")
	require.NoError(t, err)
	_, err = r.UpdateStatus(store.ID, types.StatusProvisioning, "")
	require.NoError(t, err)
	_, err = r.MarkReady(store.ID, "http://x", "http://x/wp-admin")
	require.NoError(t, err)
	_, err = r.UpdateStatus(store.ID, types.StatusDeleting, "")
	require.NoError(t, err)
	_, err = r.MarkDeleted(store.ID)
	require.NoError(t, err)

	entries, err := r.AuditFor(store.ID)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	// Newest first: delete, status_change(deleting), status_change(ready),
	// status_change(provisioning), create
	assert.Equal(t, types.AuditDelete, entries[0].Action)
	assert.Equal(t, types.AuditCreate, entries[4].Action)
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i].ID, entries[i-1].ID)
	}
}
