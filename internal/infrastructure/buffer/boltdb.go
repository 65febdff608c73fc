package buffer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Store keeps marketplace writes in a BoltDB file while Postgres or Redis is
// unreachable. Items are ordered by priority then age. Items that share a
// Target are coalesced: only the newest pending write per document survives.
type Store struct {
	db      *bolt.DB
	bucket  []byte
	targets []byte
}

// Open creates the file, its parent directory and both buckets.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "buffer"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:      db,
		bucket:  []byte(bucket),
		targets: []byte(bucket + "_targets"),
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{s.bucket, s.targets} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Enqueue stores item, replacing any pending write for the same target.
func (s *Store) Enqueue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return s.put(tx, item, true)
	})
}

// Requeue puts a failed item back with a fresh timestamp. If a newer write for
// the same target arrived meanwhile, the retry is dropped in its favour.
func (s *Store) Requeue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	item.bucketKey = nil
	item.Timestamp = time.Now()
	return s.db.Update(func(tx *bolt.Tx) error {
		return s.put(tx, item, false)
	})
}

func (s *Store) put(tx *bolt.Tx, item Item, replace bool) error {
	item.normalize()
	items, targets := tx.Bucket(s.bucket), tx.Bucket(s.targets)

	if item.Target != "" {
		if prev := targets.Get([]byte(item.Target)); prev != nil {
			if !replace {
				return nil
			}
			if err := items.Delete(prev); err != nil {
				return err
			}
		}
	}

	key := []byte(buildKey(item))
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	if err := items.Put(key, payload); err != nil {
		return err
	}
	if item.Target != "" {
		return targets.Put([]byte(item.Target), key)
	}
	return nil
}

// GetBatch returns up to limit items without removing them.
func (s *Store) GetBatch(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil && len(items) < limit; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			item.bucketKey = append([]byte(nil), k...)
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// Remove deletes item. Items read through GetBatch are removed by key,
// others by id.
func (s *Store) Remove(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		key := item.bucketKey
		if len(key) == 0 {
			key, item = s.findByID(tx, item.ID)
			if key == nil {
				return nil
			}
		}
		return s.delete(tx, key, item.Target)
	})
}

// Size returns the number of buffered items.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Pending reports whether a write for target is waiting to be replayed.
func (s *Store) Pending(target string) bool {
	if s == nil || s.db == nil || target == "" {
		return false
	}
	var found bool
	_ = s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(s.targets).Get([]byte(target)) != nil
		return nil
	})
	return found
}

// CountByKind groups pending items by document kind. User writes count under
// their entity name.
func (s *Store) CountByKind() (map[string]int, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	counts := make(map[string]int)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(_, v []byte) error {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return nil
			}
			kind := item.Kind
			if kind == "" {
				kind = item.Entity
			}
			counts[kind]++
			return nil
		})
	})
	return counts, err
}

// Cleanup removes items older than olderThan.
func (s *Store) Cleanup(olderThan time.Time) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		var expired []Item
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			if item.Timestamp.Before(olderThan) {
				item.bucketKey = append([]byte(nil), k...)
				expired = append(expired, item)
			}
		}
		for _, item := range expired {
			if err := s.delete(tx, item.bucketKey, item.Target); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats exposes Bolt statistics for monitoring endpoints.
func (s *Store) Stats() bolt.Stats {
	if s == nil || s.db == nil {
		return bolt.Stats{}
	}
	return s.db.Stats()
}

// delete drops key and, when the target index still points at it, the index entry.
func (s *Store) delete(tx *bolt.Tx, key []byte, target string) error {
	if err := tx.Bucket(s.bucket).Delete(key); err != nil {
		return err
	}
	if target == "" {
		return nil
	}
	targets := tx.Bucket(s.targets)
	if string(targets.Get([]byte(target))) == string(key) {
		return targets.Delete([]byte(target))
	}
	return nil
}

func (s *Store) findByID(tx *bolt.Tx, id string) ([]byte, Item) {
	if id == "" {
		return nil, Item{}
	}
	c := tx.Bucket(s.bucket).Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var item Item
		if err := json.Unmarshal(v, &item); err != nil {
			continue
		}
		if item.ID == id {
			return append([]byte(nil), k...), item
		}
	}
	return nil, Item{}
}

func buildKey(item Item) string {
	return fmt.Sprintf("%d_%020d_%s", item.Priority, item.Timestamp.UnixNano(), item.ID)
}
