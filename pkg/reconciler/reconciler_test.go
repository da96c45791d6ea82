package reconciler

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/cuemby/storefront/pkg/engine"
	"github.com/cuemby/storefront/pkg/log"
	"github.com/cuemby/storefront/pkg/registry"
	"github.com/cuemby/storefront/pkg/storage"
	"github.com/cuemby/storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true})
}

type fakeChecker struct {
	ready map[string]bool
	err   error
}

func (f *fakeChecker) AllPodsReady(ctx context.Context, namespace string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.ready[namespace], nil
}

func newTestReconciler(t *testing.T, checker ReadinessChecker) (*Reconciler, *registry.Registry) {
	t.Helper()

	s, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "storefront.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	engines := engine.NewRegistry()
	engines.Register(engine.NewWooCommerce(engine.WooCommerceConfig{
		ChartPath:  "./charts/woocommerce",
		BaseDomain: "test.local",
	}))

	reg := registry.NewRegistry(s)
	return New(reg, engines, checker), reg
}

func TestRunRecoversReadyStore(t *testing.T) {
	checker := &fakeChecker{ready: map[string]bool{}}
	r, reg := newTestReconciler(t, checker)

	store, err := reg.Create("Shop A", "woocommerce")
	require.NoError(t, err)
	_, err = reg.UpdateStatus(store.ID, types.StatusProvisioning, "")
	require.NoError(t, err)
	checker.ready[store.Namespace] = true

	require.NoError(t, r.Run(context.Background()))

	got, err := reg.Get(store.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusReady, got.Status)
	assert.Equal(t, fmt.Sprintf("http://%s.test.local", store.ID), got.StoreURL)

	entries, err := reg.AuditFor(store.ID)
	require.NoError(t, err)
	assert.Equal(t, types.AuditRecovery, entries[0].Action)
	assert.Contains(t, entries[0].Details, "marked_ready")
}

func TestRunFailsUnreadyStore(t *testing.T) {
	checker := &fakeChecker{ready: map[string]bool{}}
	r, reg := newTestReconciler(t, checker)

	store, err := reg.Create("Shop A", "woocommerce")
	require.NoError(t, err)
	_, err = reg.UpdateStatus(store.ID, types.StatusProvisioning, "")
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))

	got, err := reg.Get(store.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, got.Status)
	assert.Equal(t, "API restarted during provisioning. Click retry to re-attempt.", got.ErrorMessage)

	entries, err := reg.AuditFor(store.ID)
	require.NoError(t, err)
	assert.Equal(t, types.AuditRecovery, entries[0].Action)
	assert.Contains(t, entries[0].Details, "marked_failed")
}

func TestRunRecoversQueuedStore(t *testing.T) {
	checker := &fakeChecker{ready: map[string]bool{}}
	r, reg := newTestReconciler(t, checker)

	// A store that never got past queued is settled the same way
	store, err := reg.Create("Shop A", "woocommerce")
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))

	got, err := reg.Get(store.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, got.Status)
}

func TestRunInspectorError(t *testing.T) {
	checker := &fakeChecker{err: fmt.Errorf("kubectl command failed: connection refused")}
	r, reg := newTestReconciler(t, checker)

	store, err := reg.Create("Shop A", "woocommerce")
	require.NoError(t, err)
	_, err = reg.UpdateStatus(store.ID, types.StatusProvisioning, "")
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))

	got, err := reg.Get(store.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "Recovery failed: ")
	assert.Contains(t, got.ErrorMessage, "connection refused")
}

func TestRunLeavesSettledStoresAlone(t *testing.T) {
	checker := &fakeChecker{ready: map[string]bool{}}
	r, reg := newTestReconciler(t, checker)

	ready, err := reg.Create("Shop A", "woocommerce")
	require.NoError(t, err)
	_, err = reg.MarkReady(ready.ID, "http://a.test.local", "http://a.test.local/wp-admin")
	require.NoError(t, err)

	failed, err := reg.Create("Shop B", "woocommerce")
	require.NoError(t, err)
	_, err = reg.UpdateStatus(failed.ID, types.StatusFailed, "Provisioning timed out")
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background()))

	got, err := reg.Get(ready.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusReady, got.Status)

	got, err = reg.Get(failed.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, got.Status)
	assert.Equal(t, "Provisioning timed out", got.ErrorMessage)
}
