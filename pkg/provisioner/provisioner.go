package provisioner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cuemby/storefront/pkg/engine"
	"github.com/cuemby/storefront/pkg/helm"
	"github.com/cuemby/storefront/pkg/kubectl"
	"github.com/cuemby/storefront/pkg/log"
	"github.com/cuemby/storefront/pkg/metrics"
	"github.com/cuemby/storefront/pkg/oplock"
	"github.com/cuemby/storefront/pkg/registry"
	"github.com/cuemby/storefront/pkg/types"
	"github.com/rs/zerolog"
)

// Restart count above which a pod is treated as crash-looping
const maxPodRestarts = 5

// Number of namespace events included in a fail-fast message
const failureEventCount = 5

// ChartDeployer installs and removes store releases
type ChartDeployer interface {
	Install(ctx context.Context, req helm.InstallRequest) (*helm.InstallResult, error)
	Uninstall(ctx context.Context, release, namespace string, wait bool) (*helm.UninstallResult, error)
}

// ClusterInspector observes and tears down store namespaces
type ClusterInspector interface {
	PodStatuses(ctx context.Context, namespace string) ([]types.PodStatus, error)
	Events(ctx context.Context, namespace string, limit int) ([]types.Event, error)
	DeleteNamespace(ctx context.Context, namespace string, wait bool) error
}

// ErrOperationInProgress is returned when a delete is requested while
// another operation holds the store's lock
var ErrOperationInProgress = fmt.Errorf("another operation is in progress for this store")

// Provisioner drives store lifecycle operations against the cluster. All
// entry points are safe to call from API goroutines: each operation claims
// the store's lock first and releases it on every exit path.
type Provisioner struct {
	registry     *registry.Registry
	engines      *engine.Registry
	deployer     ChartDeployer
	cluster      ClusterInspector
	lock         *oplock.Lock
	timeout      time.Duration
	pollInterval time.Duration
	maxAttempts  int
	logger       zerolog.Logger
}

// Config holds provisioner settings
type Config struct {
	Registry *registry.Registry
	Engines  *engine.Registry
	Deployer ChartDeployer
	Cluster  ClusterInspector
	Lock     *oplock.Lock

	// Timeout bounds one provision or delete end to end, defaults to 600s
	Timeout time.Duration

	// PollInterval is the sleep between readiness polls, defaults to 5s
	PollInterval time.Duration

	// MaxAttempts caps the readiness poll loop, defaults to 60
	MaxAttempts int
}

// New creates a provisioner
func New(cfg Config) *Provisioner {
	p := &Provisioner{
		registry:     cfg.Registry,
		engines:      cfg.Engines,
		deployer:     cfg.Deployer,
		cluster:      cfg.Cluster,
		lock:         cfg.Lock,
		timeout:      cfg.Timeout,
		pollInterval: cfg.PollInterval,
		maxAttempts:  cfg.MaxAttempts,
		logger:       log.WithComponent("provisioner"),
	}
	if p.timeout == 0 {
		p.timeout = 600 * time.Second
	}
	if p.pollInterval == 0 {
		p.pollInterval = 5 * time.Second
	}
	if p.maxAttempts == 0 {
		p.maxAttempts = 60
	}
	return p
}

// Provision installs a store's chart and polls until its pods are ready.
// If an operation is already in flight for the store it returns quietly,
// so duplicate provision calls are harmless.
func (p *Provisioner) Provision(storeID string) error {
	if !p.lock.Acquire(storeID, types.OpProvisioning) {
		p.logger.Debug().Str("store_id", storeID).Msg("operation already in flight, skipping provision")
		return nil
	}
	metrics.OperationsInFlight.Inc()
	defer func() {
		p.lock.Release(storeID)
		metrics.OperationsInFlight.Dec()
	}()

	logger := p.logger.With().Str("store_id", storeID).Logger()
	timer := metrics.NewTimer()

	// The deadline is the fail-safe: whatever step is stuck when it fires,
	// the store lands in failed with the timeout message.
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	store, err := p.registry.Get(storeID)
	if err != nil {
		return p.fail(storeID, "failed", fmt.Sprintf("Provisioning failed: %v", err))
	}

	eng, err := p.engines.Resolve(store.Engine)
	if err != nil {
		return p.fail(storeID, "failed", fmt.Sprintf("Provisioning failed: %v", err))
	}
	if err := eng.Validate(); err != nil {
		return p.fail(storeID, "failed", fmt.Sprintf("Provisioning failed: %v", err))
	}

	if _, err := p.registry.UpdateStatus(storeID, types.StatusProvisioning, ""); err != nil {
		return fmt.Errorf("failed to start provisioning: %w", err)
	}
	logger.Info().Str("engine", store.Engine).Msg("provisioning store")

	values, err := eng.Values(storeID)
	if err != nil {
		return p.fail(storeID, "failed", fmt.Sprintf("Provisioning failed: %v", err))
	}

	result, err := p.deployer.Install(ctx, helm.InstallRequest{
		Release:         store.HelmRelease,
		ChartPath:       eng.ChartPath(),
		Namespace:       store.Namespace,
		CreateNamespace: true,
		Values:          values,
	})
	if err != nil {
		if ctx.Err() != nil {
			return p.fail(storeID, "timeout", "Provisioning timed out")
		}
		return p.fail(storeID, "failed", fmt.Sprintf("Provisioning failed: %v", err))
	}
	if result.AlreadyExists {
		logger.Info().Msg("release already installed, polling readiness")
	}

	if err := p.awaitReady(ctx, store.Namespace); err != nil {
		if ctx.Err() != nil {
			return p.fail(storeID, "timeout", "Provisioning timed out")
		}
		return p.fail(storeID, "failed", err.Error())
	}

	storeURL, adminURL := eng.URLs(storeID)
	if _, err := p.registry.MarkReady(storeID, storeURL, adminURL); err != nil {
		return fmt.Errorf("failed to mark store ready: %w", err)
	}

	timer.ObserveDuration(metrics.ProvisionDuration)
	metrics.ProvisionsTotal.WithLabelValues("ready").Inc()
	logger.Info().Str("store_url", storeURL).Dur("took", timer.Duration()).Msg("store ready")
	return nil
}

// awaitReady polls the namespace until every non-Succeeded pod is ready.
// It fails fast on crash-looping or Failed pods with a message carrying
// the pod names and recent namespace events.
func (p *Provisioner) awaitReady(ctx context.Context, namespace string) error {
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.pollInterval):
			}
		}

		pods, err := p.cluster.PodStatuses(ctx, namespace)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Transient inspector errors don't burn the provision
			p.logger.Warn().Err(err).Str("namespace", namespace).Msg("readiness poll failed")
			continue
		}

		if failed := failedPods(pods); len(failed) > 0 {
			return fmt.Errorf("Pods failed: %s. Events: %s",
				strings.Join(failed, ", "), p.eventSummary(ctx, namespace))
		}

		if kubectl.AllReady(pods) {
			return nil
		}
	}
	return fmt.Errorf("Pods not ready after %d attempts", p.maxAttempts)
}

// Delete uninstalls a store's release and cascade-deletes its namespace.
// Unlike Provision, a contended lock is an error the caller must surface.
func (p *Provisioner) Delete(storeID string) error {
	if !p.lock.Acquire(storeID, types.OpDeleting) {
		return ErrOperationInProgress
	}
	metrics.OperationsInFlight.Inc()
	defer func() {
		p.lock.Release(storeID)
		metrics.OperationsInFlight.Dec()
	}()

	logger := p.logger.With().Str("store_id", storeID).Logger()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	store, err := p.registry.Get(storeID)
	if err != nil {
		return err
	}

	if _, err := p.registry.UpdateStatus(storeID, types.StatusDeleting, ""); err != nil {
		return fmt.Errorf("failed to start deletion: %w", err)
	}
	logger.Info().Msg("deleting store")

	// Uninstall failure is tolerated: namespace deletion below removes
	// everything the release created regardless of Helm's bookkeeping.
	if _, err := p.deployer.Uninstall(ctx, store.HelmRelease, store.Namespace, true); err != nil {
		metrics.UninstallFailures.Inc()
		logger.Warn().Err(err).Msg("helm uninstall failed, continuing with namespace delete")
	}

	if err := p.cluster.DeleteNamespace(ctx, store.Namespace, true); err != nil {
		metrics.DeletesTotal.WithLabelValues("failed").Inc()
		msg := fmt.Sprintf("Delete failed: %v", err)
		if _, uerr := p.registry.UpdateStatus(storeID, types.StatusFailed, msg); uerr != nil {
			logger.Error().Err(uerr).Msg("failed to record delete failure")
		}
		return fmt.Errorf("%s", msg)
	}

	if _, err := p.registry.MarkDeleted(storeID); err != nil {
		return fmt.Errorf("failed to mark store deleted: %w", err)
	}

	metrics.DeletesTotal.WithLabelValues("deleted").Inc()
	logger.Info().Msg("store deleted")
	return nil
}

// Status returns the operation currently in flight for a store, if any
func (p *Provisioner) Status(storeID string) (types.OperationKind, bool) {
	return p.lock.Get(storeID)
}

// fail transitions a store to failed and records the provision outcome
func (p *Provisioner) fail(storeID, outcome, message string) error {
	metrics.ProvisionsTotal.WithLabelValues(outcome).Inc()
	if _, err := p.registry.UpdateStatus(storeID, types.StatusFailed, message); err != nil {
		p.logger.Error().Err(err).Str("store_id", storeID).Msg("failed to record provision failure")
	}
	p.logger.Warn().Str("store_id", storeID).Str("reason", message).Msg("provisioning failed")
	return fmt.Errorf("%s", message)
}

func failedPods(pods []types.PodStatus) []string {
	var names []string
	for _, pod := range pods {
		if pod.Phase == "Failed" || pod.Restarts > maxPodRestarts {
			names = append(names, pod.Name)
		}
	}
	return names
}

// eventSummary renders the last few namespace events as "reason: message"
// pairs. Event lookup errors degrade to a placeholder rather than masking
// the pod failure being reported.
func (p *Provisioner) eventSummary(ctx context.Context, namespace string) string {
	events, err := p.cluster.Events(ctx, namespace, failureEventCount)
	if err != nil || len(events) == 0 {
		return "none"
	}

	parts := make([]string, 0, len(events))
	for _, ev := range events {
		parts = append(parts, fmt.Sprintf("%s: %s", ev.Reason, ev.Message))
	}
	return strings.Join(parts, "; ")
}
