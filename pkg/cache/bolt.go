package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketResponses = []byte("responses")

// Bolt persists responses in a bbolt database. Each value is prefixed with
// its expiry as 8 big-endian bytes of Unix nanoseconds.
type Bolt struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

// NewBolt opens or creates the database at path.
func NewBolt(path string, ttl time.Duration) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketResponses)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache bucket: %w", err)
	}

	return &Bolt{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns a stored response unless it has expired.
func (cache *Bolt) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var found, expired bool
	err := cache.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketResponses).Get([]byte(key))
		if len(raw) < 8 {
			return nil
		}
		expiresAt := int64(binary.BigEndian.Uint64(raw[:8]))
		if cache.now().UnixNano() > expiresAt {
			expired = true
			return nil
		}
		// Bolt values are only valid for the life of the transaction.
		value = append([]byte{}, raw[8:]...)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("read cached response: %w", err)
	}

	if expired {
		if err := cache.delete(key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return value, found, nil
}

// Set stores or replaces a response.
func (cache *Bolt) Set(_ context.Context, key string, value []byte) error {
	raw := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(raw[:8], uint64(cache.now().Add(cache.ttl).UnixNano()))
	copy(raw[8:], value)

	err := cache.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketResponses).Put([]byte(key), raw)
	})
	if err != nil {
		return fmt.Errorf("store response: %w", err)
	}
	return nil
}

func (cache *Bolt) delete(key string) error {
	err := cache.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketResponses).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete expired response: %w", err)
	}
	return nil
}

// Prune deletes every expired response and returns how many were removed.
func (cache *Bolt) Prune(_ context.Context) (int64, error) {
	now := cache.now().UnixNano()
	var removed int64
	err := cache.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketResponses)
		var expired [][]byte
		err := bucket.ForEach(func(key, raw []byte) error {
			if len(raw) < 8 || now > int64(binary.BigEndian.Uint64(raw[:8])) {
				expired = append(expired, append([]byte{}, key...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, key := range expired {
			if err := bucket.Delete(key); err != nil {
				return err
			}
		}
		removed = int64(len(expired))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune responses: %w", err)
	}
	return removed, nil
}

// Close closes the database.
func (cache *Bolt) Close() error {
	if cache.db == nil {
		return nil
	}
	return cache.db.Close()
}
