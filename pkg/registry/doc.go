/*
Package registry is the single mutation path for store lifecycle state.

The Registry wraps pkg/storage and adds the business rules the raw store
does not know about:

  - identity generation (store-XXXXXXXX; namespace = release = id)
  - timestamps: every mutation bumps updated_at
  - terminal-state enforcement: no mutation succeeds on a deleted store
  - error-message hygiene: failed stores carry a non-empty message, every
    other status clears it
  - audit write-through: create, status_change, and delete entries are
    emitted as part of each mutation

# Audit Semantics

Audit is best-effort, at-least-once: an append failure is logged at warn
level and never rolls back the mutation that triggered it. Within one
store, entries appear in causal order because each mutation appends before
the operation lock is released.

# Concurrency

The registry assumes the process-wide single-writer model: BoltDB
serializes writes, and per-store operation ordering is the operation
lock's job (pkg/oplock), not the registry's.
*/
package registry
