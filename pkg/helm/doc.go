/*
Package helm wraps the helm binary as Storefront's chart deployer.

Every store is one helm release whose name and namespace both equal the
store id. The client exposes three operations:

  - Install: idempotent on the release name. An existing release short
    circuits to AlreadyExists, which is what makes retried provisions and
    crash re-execution safe.
  - Uninstall: idempotent; a missing release is AlreadyRemoved, not an
    error.
  - ReleaseExists: the probe the other two are built on.

# Execution Model

Commands run through an injectable Runner (exec.CommandContext in
production, a scripted fake in tests) with a per-command context timeout,
600s by default. Install deliberately omits --wait and --atomic: chart
init jobs can take minutes, and blocking here would conflate installation
with readiness, which the provisioner observes independently.

Failures surface as "Helm command failed: <stderr>" so the operator sees
helm's own diagnostic in the store's error_message.

# Values Handling

The engine hands over a flat map with dotted keys; the client expands it
into nested YAML and passes it via --values <tempfile>. Generated
passwords therefore never appear in the process table.
*/
package helm
