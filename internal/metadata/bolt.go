package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketMetadata = []byte("metadata")

// BoltBackend stores each record as a JSON value keyed by media path.
type BoltBackend struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the bolt file at path.
func OpenBolt(path string) (*BoltBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMetadata)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create metadata bucket: %w", err)
	}

	return &BoltBackend{db: db}, nil
}

// Load decodes every record in the bucket.
func (b *BoltBackend) Load() (map[string]Record, error) {
	records := make(map[string]Record)

	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to decode record %s: %w", k, err)
			}
			records[string(k)] = rec
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Save drops the bucket and rewrites it with records in one transaction.
func (b *BoltBackend) Save(records map[string]Record) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketMetadata); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		bucket, err := tx.CreateBucket(bucketMetadata)
		if err != nil {
			return err
		}

		for path, rec := range records {
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to encode record %s: %w", path, err)
			}
			if err := bucket.Put([]byte(path), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the bolt file.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}
