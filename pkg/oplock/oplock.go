package oplock

import (
	"sync"

	"github.com/cuemby/storefront/pkg/types"
)

// Lock is the process-wide per-store operation lock. It guarantees at most
// one active lifecycle operation per store id. The lock is advisory and
// in-memory only: after a crash it starts empty and the startup reconciler
// re-establishes correctness from persisted state.
type Lock struct {
	mu  sync.Mutex
	ops map[string]types.OperationKind
}

// New creates an empty operation lock
func New() *Lock {
	return &Lock{ops: make(map[string]types.OperationKind)}
}

// Acquire claims the lock for a store with the given operation kind. It
// returns false if any operation is already active for the id.
func (l *Lock) Acquire(storeID string, kind types.OperationKind) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, active := l.ops[storeID]; active {
		return false
	}
	l.ops[storeID] = kind
	return true
}

// Release frees the lock for a store. Releasing an unheld lock is a no-op.
func (l *Lock) Release(storeID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.ops, storeID)
}

// Get returns the operation kind currently held for a store, if any
func (l *Lock) Get(storeID string) (types.OperationKind, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kind, ok := l.ops[storeID]
	return kind, ok
}

// Active returns the number of stores with an operation in flight
func (l *Lock) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ops)
}
