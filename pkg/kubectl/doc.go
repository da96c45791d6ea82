/*
Package kubectl wraps the kubectl binary as Storefront's cluster inspector.

The inspector is read-mostly: pod snapshots, job conditions, and recent
events, plus the one destructive operation the delete workflow needs,
cascade namespace deletion. All commands run with a short context timeout
(30s by default) through an injectable Runner, and parse kubectl's -o json
output with trimmed struct shapes.

# Readiness Rule

AllReady is the single definition of "namespace is up", shared by the
provisioner's poll loop and the startup reconciler:

  - pods in phase Succeeded are excluded (one-shot init work)
  - at least one non-Succeeded pod must exist
  - every non-Succeeded pod must carry condition Ready=True

The first clause is why engines must ship at least one long-running pod in
their chart: a namespace holding only finished jobs can never become
ready.

# Error Conventions

NotFound from the API server is data, not an error: a missing namespace
"exists=false", deleting a missing namespace is a no-op, and a missing job
is simply not complete. Everything else surfaces as
"kubectl command failed: <stderr>".
*/
package kubectl
