/*
Package provisioner executes store lifecycle operations.

The provisioner is the only component that touches the cluster on the
write path. The API layer records intent in the registry and schedules
Provision or Delete on a goroutine; the provisioner claims the store's
operation lock, drives the chart deployer and cluster inspector, and
converges the store record to ready, failed, or deleted.

# Provision

Provision runs under a single fail-safe deadline. The engine is resolved
and validated, the chart installed (idempotently, so retries after a
partial run are safe), and the namespace polled until every long-running
pod reports Ready. Two things cut the poll short:

  - fail-fast: a pod in phase Failed or with more than 5 restarts fails
    the store immediately, with the pod names and the last 5 namespace
    events baked into the error message
  - the deadline: whatever step is stuck when it fires, the store lands
    in failed with "Provisioning timed out"

A provision requested while the store's lock is held returns quietly; a
duplicate request is not an error, it is the same work already underway.

# Delete

Delete claims the lock as deleting, or returns ErrOperationInProgress
for the API to surface. Helm uninstall failures are tolerated and
counted, because the namespace cascade delete that follows removes
everything in the namespace regardless of Helm's release records. Only
a namespace delete failure fails the store.
*/
package provisioner
