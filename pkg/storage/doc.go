/*
Package storage provides BoltDB-backed persistence for Storefront's
lifecycle state.

The package implements the Store interface using BoltDB (bbolt), giving the
control plane an embedded, single-file, crash-safe database with zero
external dependencies. All values are serialized as JSON.

# Bucket Structure

	stores     store records, keyed by store id
	audit_log  append-only audit entries, keyed by big-endian monotone id

# Transaction Model

  - Reads: db.View(), concurrent and snapshot-isolated
  - Writes: db.Update(), serialized, atomic, fsync on commit
  - The control plane is the single writer; cross-process access is not
    supported.

# Audit Log Semantics

Audit entry ids come from the bucket's NextSequence counter, so they are
monotone and never reused. Keys are the 8-byte big-endian encoding of the
id, which makes cursor order equal insertion order: newest-first listing is
a reverse cursor walk, no sorting required. There is no update or delete
path for audit entries.

# Usage

	store, err := storage.NewBoltStore("/var/lib/storefront/storefront.db")
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	s, err := store.GetStore("store-a1b2c3d4")
	n, err := store.ActiveCount()

# Design Patterns

Not-found sentinel:
  - GetStore and UpdateStore wrap ErrStoreNotFound so callers can map the
    condition to a 404 with errors.Is.

Aggregate reads:
  - ActiveCount, StatusHistogram, RecentFailures, and ProvisioningStats
    scan the stores bucket in one View transaction. Store counts here are
    bounded by the platform quota, so full scans are cheap.

# Integration Points

  - pkg/registry: the only writer; adds timestamps, guards, audit emission
  - pkg/api: reads aggregates for /api/metrics
  - pkg/types: entity definitions
*/
package storage
