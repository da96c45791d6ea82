/*
Package types defines the core data structures used throughout Storefront.

This package contains the fundamental types of the store lifecycle domain:
the Store entity, its status enum and transition predicates, audit entries,
operation kinds, and the snapshots returned by the cluster inspector. All
other packages depend on it; it depends on nothing but uuid.

# State Machine

Stores follow a single lifecycle state machine (initial state: queued):

	queued → provisioning → ready
	             ↓ (fail-fast / timeout / error)
	           failed → provisioning (retry)

	ready | failed | queued | provisioning → deleting → deleted

Valid transitions:
  - queued → provisioning (provision workflow begins)
  - provisioning → ready (all pods ready)
  - provisioning → failed (fail-fast, timeout, or error)
  - failed → provisioning (operator retry)
  - any non-deleted → deleting (delete initiated)
  - deleting → deleted (cascade complete)

deleted is terminal: no further mutation succeeds.

# Design Patterns

Enumeration Pattern:

	All enums use typed string constants:
	  type StoreStatus string
	  const (
	      StatusQueued StoreStatus = "queued"
	      StatusReady  StoreStatus = "ready"
	  )

Identity Convention:

	A store id has the form store-XXXXXXXX (first v4 UUID group) and is
	also, by construction, the store's namespace name and helm release
	name. This keeps resource addresses stable across retries.

# Integration Points

  - pkg/storage persists Store and AuditEntry as JSON in BoltDB
  - pkg/registry enforces the transition rules above
  - pkg/oplock keys operation records by store id
  - pkg/kubectl returns PodStatus and Event snapshots
  - pkg/api serializes Store directly in responses
*/
package types
