package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	dbFileMode = 0o600
	dbDirMode  = 0o755
	stampSize  = 8
)

// Responses stores provider payloads in buckets named after the provider
// and operation. Each value is prefixed with its store time.
type Responses struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenResponses opens (creating when needed) the response cache at path.
func OpenResponses(path string) (*Responses, error) {
	if err := os.MkdirAll(filepath.Dir(path), dbDirMode); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := bolt.Open(path, dbFileMode, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open response cache: %w", err)
	}
	return &Responses{db: db, now: time.Now}, nil
}

// Close releases the database file.
func (r *Responses) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Get returns the payload stored under bucket/key when it is younger than
// maxAge. A non-positive maxAge accepts any age.
func (r *Responses) Get(bucket, key string, maxAge time.Duration) ([]byte, bool, error) {
	if r == nil {
		return nil, false, errors.New("response cache unavailable")
	}
	var payload []byte
	var found bool
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		value := b.Get([]byte(key))
		if len(value) < stampSize {
			return nil
		}
		stored := time.Unix(0, int64(binary.BigEndian.Uint64(value[:stampSize])))
		if maxAge > 0 && r.now().Sub(stored) > maxAge {
			return nil
		}
		// values are only valid inside the transaction
		payload = append([]byte(nil), value[stampSize:]...)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("read response cache: %w", err)
	}
	return payload, found, nil
}

// Put stores data under bucket/key, replacing any previous value.
func (r *Responses) Put(bucket, key string, data []byte) error {
	if r == nil {
		return errors.New("response cache unavailable")
	}
	value := make([]byte, stampSize+len(data))
	binary.BigEndian.PutUint64(value[:stampSize], uint64(r.now().UnixNano()))
	copy(value[stampSize:], data)
	err := r.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("write response cache: %w", err)
	}
	return nil
}

// Purge deletes every entry older than maxAge and reports how many were
// removed.
func (r *Responses) Purge(maxAge time.Duration) (int, error) {
	if r == nil {
		return 0, errors.New("response cache unavailable")
	}
	cutoff := r.now().Add(-maxAge)
	removed := 0
	err := r.db.Update(func(tx *bolt.Tx) error {
		return tx.ForEach(func(_ []byte, b *bolt.Bucket) error {
			var stale [][]byte
			err := b.ForEach(func(k, v []byte) error {
				if len(v) < stampSize || time.Unix(0, int64(binary.BigEndian.Uint64(v[:stampSize]))).Before(cutoff) {
					stale = append(stale, append([]byte(nil), k...))
				}
				return nil
			})
			if err != nil {
				return err
			}
			for _, k := range stale {
				if err := b.Delete(k); err != nil {
					return err
				}
				removed++
			}
			return nil
		})
	})
	if err != nil {
		return removed, fmt.Errorf("purge response cache: %w", err)
	}
	return removed, nil
}
