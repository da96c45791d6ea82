package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cuemby/storefront/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketStores = []byte("stores")
	bucketAudit  = []byte("audit_log")
)

// ErrStoreNotFound is returned when a store id has no record
var ErrStoreNotFound = fmt.Errorf("store not found")

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store at dbPath. The parent
// directory is created if missing. BoltDB journals every write, so a crash
// mid-transaction never leaves a partial record.
func NewBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketStores, bucketAudit} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Store operations

// CreateStore inserts a store record. It fails if the id already exists.
func (s *BoltStore) CreateStore(store *types.Store) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketStores)
		if b.Get([]byte(store.ID)) != nil {
			return fmt.Errorf("store already exists: %s", store.ID)
		}
		data, err := json.Marshal(store)
		if err != nil {
			return err
		}
		return b.Put([]byte(store.ID), data)
	})
}

func (s *BoltStore) GetStore(id string) (*types.Store, error) {
	var store types.Store
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketStores)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrStoreNotFound, id)
		}
		return json.Unmarshal(data, &store)
	})
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// ListStores returns all stores, newest first
func (s *BoltStore) ListStores() ([]*types.Store, error) {
	var stores []*types.Store
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketStores)
		return b.ForEach(func(k, v []byte) error {
			var store types.Store
			if err := json.Unmarshal(v, &store); err != nil {
				return err
			}
			stores = append(stores, &store)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(stores, func(i, j int) bool {
		return stores[i].CreatedAt.After(stores[j].CreatedAt)
	})
	return stores, nil
}

// UpdateStore replaces an existing store record
func (s *BoltStore) UpdateStore(store *types.Store) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketStores)
		if b.Get([]byte(store.ID)) == nil {
			return fmt.Errorf("%w: %s", ErrStoreNotFound, store.ID)
		}
		data, err := json.Marshal(store)
		if err != nil {
			return err
		}
		return b.Put([]byte(store.ID), data)
	})
}

// ActiveCount returns the number of stores whose status is neither
// deleted nor failed. This is the quantity compared to the creation quota.
func (s *BoltStore) ActiveCount() (int, error) {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketStores)
		return b.ForEach(func(k, v []byte) error {
			var store types.Store
			if err := json.Unmarshal(v, &store); err != nil {
				return err
			}
			if store.Status.IsActive() {
				count++
			}
			return nil
		})
	})
	return count, err
}

// StatusHistogram returns a count of stores per lifecycle status
func (s *BoltStore) StatusHistogram() (map[types.StoreStatus]int, error) {
	hist := make(map[types.StoreStatus]int)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketStores)
		return b.ForEach(func(k, v []byte) error {
			var store types.Store
			if err := json.Unmarshal(v, &store); err != nil {
				return err
			}
			hist[store.Status]++
			return nil
		})
	})
	return hist, err
}

// RecentFailures returns up to n failed stores, most recently updated first
func (s *BoltStore) RecentFailures(n int) ([]*types.Store, error) {
	stores, err := s.ListStores()
	if err != nil {
		return nil, err
	}

	var failed []*types.Store
	for _, store := range stores {
		if store.Status == types.StatusFailed {
			failed = append(failed, store)
		}
	}
	sort.Slice(failed, func(i, j int) bool {
		return failed[i].UpdatedAt.After(failed[j].UpdatedAt)
	})
	if len(failed) > n {
		failed = failed[:n]
	}
	return failed, nil
}

// ProvisioningStats aggregates updated_at - created_at over ready stores
func (s *BoltStore) ProvisioningStats() (*types.ProvisioningStats, error) {
	stats := &types.ProvisioningStats{}
	var total time.Duration
	var min, max time.Duration

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketStores)
		return b.ForEach(func(k, v []byte) error {
			var store types.Store
			if err := json.Unmarshal(v, &store); err != nil {
				return err
			}
			if store.Status != types.StatusReady {
				return nil
			}
			d := store.UpdatedAt.Sub(store.CreatedAt)
			if stats.TotalProvisioned == 0 || d < min {
				min = d
			}
			if d > max {
				max = d
			}
			total += d
			stats.TotalProvisioned++
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if stats.TotalProvisioned > 0 {
		stats.AvgDurationSeconds = total.Seconds() / float64(stats.TotalProvisioned)
		stats.MinDurationSeconds = min.Seconds()
		stats.MaxDurationSeconds = max.Seconds()
	}
	return stats, nil
}

// Audit operations

// AppendAudit persists an audit entry with the next monotone id. Entries
// are keyed by big-endian id so cursor order equals insertion order.
func (s *BoltStore) AppendAudit(entry *types.AuditEntry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAudit)
		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		entry.ID = id
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now()
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return b.Put(auditKey(id), data)
	})
}

// ListAudit returns up to limit entries, newest first
func (s *BoltStore) ListAudit(limit int) ([]*types.AuditEntry, error) {
	var entries []*types.AuditEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketAudit).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var entry types.AuditEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	return entries, err
}

// ListAuditForStore returns all entries for a store, newest first
func (s *BoltStore) ListAuditForStore(storeID string) ([]*types.AuditEntry, error) {
	var entries []*types.AuditEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketAudit).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var entry types.AuditEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			if entry.StoreID == storeID {
				entries = append(entries, &entry)
			}
		}
		return nil
	})
	return entries, err
}

func auditKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}
