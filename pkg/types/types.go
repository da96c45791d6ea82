package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store represents a provisioned tenant stack: a web front-end, a backing
// database, and an ingress route, confined to one namespace.
type Store struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Engine       string      `json:"engine"`
	Status       StoreStatus `json:"status"`
	StoreURL     string      `json:"store_url,omitempty"`
	AdminURL     string      `json:"admin_url,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	Namespace    string      `json:"namespace"`
	HelmRelease  string      `json:"helm_release"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// StoreStatus represents the lifecycle state of a store
type StoreStatus string

const (
	StatusQueued       StoreStatus = "queued"
	StatusProvisioning StoreStatus = "provisioning"
	StatusReady        StoreStatus = "ready"
	StatusFailed       StoreStatus = "failed"
	StatusDeleting     StoreStatus = "deleting"
	StatusDeleted      StoreStatus = "deleted"
)

// IsActive reports whether a store in this status counts toward the
// creation quota. Deleted and failed stores do not.
func (s StoreStatus) IsActive() bool {
	return s != StatusDeleted && s != StatusFailed
}

// IsTerminal reports whether the status admits no further transitions.
func (s StoreStatus) IsTerminal() bool {
	return s == StatusDeleted
}

// Deletable reports whether a delete may be initiated from this status.
func (s StoreStatus) Deletable() bool {
	switch s {
	case StatusReady, StatusFailed, StatusQueued, StatusProvisioning:
		return true
	}
	return false
}

// NewStoreID generates a store identity of the form store-XXXXXXXX using
// the first group of a v4 UUID. The id doubles as the namespace name and
// the helm release name.
func NewStoreID() string {
	return "store-" + strings.SplitN(uuid.New().String(), "-", 2)[0]
}

// AuditEntry is one append-only record of a lifecycle event. Entries are
// never updated or removed; ids are monotone.
type AuditEntry struct {
	ID        uint64      `json:"id"`
	StoreID   string      `json:"store_id,omitempty"`
	Action    AuditAction `json:"action"`
	Details   string      `json:"details,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// AuditAction tags the kind of lifecycle event an audit entry records
type AuditAction string

const (
	AuditCreate       AuditAction = "create"
	AuditDelete       AuditAction = "delete"
	AuditStatusChange AuditAction = "status_change"
	AuditRetry        AuditAction = "retry"
	AuditRecovery     AuditAction = "recovery"
)

// OperationKind is the kind of lifecycle operation currently running for a
// store. Operation records live only in memory (see pkg/oplock).
type OperationKind string

const (
	OpProvisioning OperationKind = "provisioning"
	OpDeleting     OperationKind = "deleting"
)

// PodStatus is a snapshot of one pod as reported by the cluster inspector
type PodStatus struct {
	Name     string `json:"name"`
	Phase    string `json:"phase"`
	Ready    bool   `json:"ready"`
	Restarts int    `json:"restarts"`
}

// Event is a recent namespace event, newest last
type Event struct {
	Type      string    `json:"type"`
	Reason    string    `json:"reason"`
	Message   string    `json:"message"`
	Object    string    `json:"object"`
	Timestamp time.Time `json:"timestamp"`
}

// ProvisioningStats aggregates time-to-ready over stores that reached
// status ready (updated_at - created_at).
type ProvisioningStats struct {
	TotalProvisioned   int     `json:"totalProvisioned"`
	AvgDurationSeconds float64 `json:"avgDurationSeconds"`
	MinDurationSeconds float64 `json:"minDurationSeconds"`
	MaxDurationSeconds float64 `json:"maxDurationSeconds"`
}
