package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "storefront.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testStore(id string, status types.StoreStatus, created time.Time) *types.Store {
	return &types.Store{
		ID:          id,
		Name:        "Shop " + id,
		Engine:      "woocommerce",
		Status:      status,
		Namespace:   id,
		HelmRelease: id,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestCreateAndGetStore(t *testing.T) {
	s := newTestStore(t)

	store := testStore("store-aaaa0001", types.StatusQueued, time.Now())
	require.NoError(t, s.CreateStore(store))

	got, err := s.GetStore("store-aaaa0001")
	require.NoError(t, err)
	assert.Equal(t, store.ID, got.ID)
	assert.Equal(t, types.StatusQueued, got.Status)
	assert.Equal(t, store.ID, got.Namespace)
	assert.Equal(t, store.ID, got.HelmRelease)

	// Duplicate ids are rejected
	assert.Error(t, s.CreateStore(store))
}

func TestGetStoreNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetStore("store-missing1")
	assert.True(t, errors.Is(err, ErrStoreNotFound))
}

func TestUpdateStoreNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateStore(testStore("store-missing1", types.StatusReady, time.Now()))
	assert.True(t, errors.Is(err, ErrStoreNotFound))
}

func TestListStoresNewestFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Now()
	require.NoError(t, s.CreateStore(testStore("store-aaaa0001", types.StatusQueued, base.Add(-2*time.Hour))))
	require.NoError(t, s.CreateStore(testStore("store-aaaa0002", types.StatusQueued, base.Add(-1*time.Hour))))
	require.NoError(t, s.CreateStore(testStore("store-aaaa0003", types.StatusQueued, base)))

	stores, err := s.ListStores()
	require.NoError(t, err)
	require.Len(t, stores, 3)
	assert.Equal(t, "store-aaaa0003", stores[0].ID)
	assert.Equal(t, "store-aaaa0001", stores[2].ID)
}

func TestActiveCount(t *testing.T) {
	s := newTestStore(t)

	now := time.Now()
	require.NoError(t, s.CreateStore(testStore("store-aaaa0001", types.StatusQueued, now)))
	require.NoError(t, s.CreateStore(testStore("store-aaaa0002", types.StatusProvisioning, now)))
	require.NoError(t, s.CreateStore(testStore("store-aaaa0003", types.StatusReady, now)))
	require.NoError(t, s.CreateStore(testStore("store-aaaa0004", types.StatusDeleting, now)))
	require.NoError(t, s.CreateStore(testStore("store-aaaa0005", types.StatusFailed, now)))
	require.NoError(t, s.CreateStore(testStore("store-aaaa0006", types.StatusDeleted, now)))

	count, err := s.ActiveCount()
	require.NoError(t, err)
	// deleted and failed are excluded from the active count
	assert.Equal(t, 4, count)
}

func TestStatusHistogram(t *testing.T) {
	s := newTestStore(t)

	now := time.Now()
	require.NoError(t, s.CreateStore(testStore("store-aaaa0001", types.StatusReady, now)))
	require.NoError(t, s.CreateStore(testStore("store-aaaa0002", types.StatusReady, now)))
	require.NoError(t, s.CreateStore(testStore("store-aaaa0003", types.StatusFailed, now)))

	hist, err := s.StatusHistogram()
	require.NoError(t, err)
	assert.Equal(t, 2, hist[types.StatusReady])
	assert.Equal(t, 1, hist[types.StatusFailed])
	assert.Equal(t, 0, hist[types.StatusQueued])
}

func TestRecentFailures(t *testing.T) {
	s := newTestStore(t)

	base := time.Now()
	for i, id := range []string{"store-aaaa0001", "store-aaaa0002", "store-aaaa0003"} {
		store := testStore(id, types.StatusFailed, base)
		store.UpdatedAt = base.Add(time.Duration(i) * time.Minute)
		store.ErrorMessage = "Provisioning timed out"
		require.NoError(t, s.CreateStore(store))
	}
	require.NoError(t, s.CreateStore(testStore("store-aaaa0004", types.StatusReady, base)))

	failures, err := s.RecentFailures(2)
	require.NoError(t, err)
	require.Len(t, failures, 2)
	// Most recently updated failure first
	assert.Equal(t, "store-aaaa0003", failures[0].ID)
	assert.Equal(t, "store-aaaa0002", failures[1].ID)
}

func TestProvisioningStats(t *testing.T) {
	s := newTestStore(t)

	base := time.Now()

	fast := testStore("store-aaaa0001", types.StatusReady, base)
	fast.UpdatedAt = base.Add(30 * time.Second)
	require.NoError(t, s.CreateStore(fast))

	slow := testStore("store-aaaa0002", types.StatusReady, base)
	slow.UpdatedAt = base.Add(90 * time.Second)
	require.NoError(t, s.CreateStore(slow))

	// Non-ready stores are excluded
	require.NoError(t, s.CreateStore(testStore("store-aaaa0003", types.StatusFailed, base)))

	stats, err := s.ProvisioningStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProvisioned)
	assert.InDelta(t, 60.0, stats.AvgDurationSeconds, 0.001)
	assert.InDelta(t, 30.0, stats.MinDurationSeconds, 0.001)
	assert.InDelta(t, 90.0, stats.MaxDurationSeconds, 0.001)
}

func TestProvisioningStatsEmpty(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.ProvisioningStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalProvisioned)
	assert.Zero(t, stats.AvgDurationSeconds)
}

func TestAuditAppendMonotone(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		entry := &types.AuditEntry{StoreID: "store-aaaa0001", Action: types.AuditStatusChange}
		require.NoError(t, s.AppendAudit(entry))
		assert.Equal(t, uint64(i+1), entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())
	}

	entries, err := s.ListAudit(100)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	// Newest first, ids strictly decreasing, no duplicates
	seen := make(map[uint64]bool)
	for i, e := range entries {
		assert.False(t, seen[e.ID])
		seen[e.ID] = true
		if i > 0 {
			assert.Less(t, e.ID, entries[i-1].ID)
		}
	}
}

func TestListAuditLimit(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 10; i++ {
		require.NoError(t, s.AppendAudit(&types.AuditEntry{Action: types.AuditCreate}))
	}

	entries, err := s.ListAudit(3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(10), entries[0].ID)
	assert.Equal(t, uint64(8), entries[2].ID)
}

func TestListAuditForStore(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AppendAudit(&types.AuditEntry{StoreID: "store-aaaa0001", Action: types.AuditCreate}))
	require.NoError(t, s.AppendAudit(&types.AuditEntry{StoreID: "store-aaaa0002", Action: types.AuditCreate}))
	require.NoError(t, s.AppendAudit(&types.AuditEntry{StoreID: "store-aaaa0001", Action: types.AuditDelete}))

	entries, err := s.ListAuditForStore("store-aaaa0001")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, types.AuditDelete, entries[0].Action)
	assert.Equal(t, types.AuditCreate, entries[1].Action)
}
