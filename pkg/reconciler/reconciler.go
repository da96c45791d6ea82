package reconciler

import (
	"context"
	"fmt"

	"github.com/cuemby/storefront/pkg/engine"
	"github.com/cuemby/storefront/pkg/log"
	"github.com/cuemby/storefront/pkg/metrics"
	"github.com/cuemby/storefront/pkg/registry"
	"github.com/cuemby/storefront/pkg/types"
	"github.com/rs/zerolog"
)

const restartFailureMessage = "API restarted during provisioning. Click retry to re-attempt."

// ReadinessChecker reports whether a store's namespace is fully up
type ReadinessChecker interface {
	AllPodsReady(ctx context.Context, namespace string) (bool, error)
}

// Reconciler converges stores left mid-provision by a previous process.
// It runs once at startup: each store stuck in queued or provisioning is
// settled to ready or failed based on what is actually in the cluster.
// It never resumes provisioning on its own; retry is an operator action.
type Reconciler struct {
	registry *registry.Registry
	engines  *engine.Registry
	cluster  ReadinessChecker
	logger   zerolog.Logger
}

// New creates a reconciler
func New(reg *registry.Registry, engines *engine.Registry, cluster ReadinessChecker) *Reconciler {
	return &Reconciler{
		registry: reg,
		engines:  engines,
		cluster:  cluster,
		logger:   log.WithComponent("reconciler"),
	}
}

// Run performs one reconciliation pass. Per-store errors are settled into
// the store records; only a failure to list stores is returned.
func (r *Reconciler) Run(ctx context.Context) error {
	stores, err := r.registry.List()
	if err != nil {
		return fmt.Errorf("failed to list stores: %w", err)
	}

	recovered := 0
	for _, store := range stores {
		if store.Status != types.StatusProvisioning && store.Status != types.StatusQueued {
			continue
		}
		r.recover(ctx, store)
		recovered++
	}

	if recovered > 0 {
		r.logger.Info().Int("stores", recovered).Msg("startup reconciliation complete")
	}
	return nil
}

func (r *Reconciler) recover(ctx context.Context, store *types.Store) {
	logger := r.logger.With().Str("store_id", store.ID).Logger()

	ready, err := r.cluster.AllPodsReady(ctx, store.Namespace)
	if err != nil {
		msg := fmt.Sprintf("Recovery failed: %v", err)
		if _, uerr := r.registry.UpdateStatus(store.ID, types.StatusFailed, msg); uerr != nil {
			logger.Error().Err(uerr).Msg("failed to record recovery failure")
			return
		}
		metrics.RecoveriesTotal.WithLabelValues("marked_failed").Inc()
		r.registry.Append(store.ID, types.AuditRecovery, map[string]any{"result": "marked_failed", "error": msg})
		logger.Warn().Err(err).Msg("recovery query failed, store marked failed")
		return
	}

	if ready {
		storeURL, adminURL := r.urls(store)
		if _, err := r.registry.MarkReady(store.ID, storeURL, adminURL); err != nil {
			logger.Error().Err(err).Msg("failed to mark recovered store ready")
			return
		}
		metrics.RecoveriesTotal.WithLabelValues("marked_ready").Inc()
		r.registry.Append(store.ID, types.AuditRecovery, map[string]any{"result": "marked_ready"})
		logger.Info().Msg("store recovered as ready")
		return
	}

	if _, err := r.registry.UpdateStatus(store.ID, types.StatusFailed, restartFailureMessage); err != nil {
		logger.Error().Err(err).Msg("failed to mark recovered store failed")
		return
	}
	metrics.RecoveriesTotal.WithLabelValues("marked_failed").Inc()
	r.registry.Append(store.ID, types.AuditRecovery, map[string]any{"result": "marked_failed"})
	logger.Info().Msg("store recovered as failed, awaiting retry")
}

// urls computes the store's public URLs. An unknown engine yields empty
// URLs rather than blocking recovery.
func (r *Reconciler) urls(store *types.Store) (string, string) {
	eng, err := r.engines.Resolve(store.Engine)
	if err != nil {
		return "", ""
	}
	return eng.URLs(store.ID)
}
