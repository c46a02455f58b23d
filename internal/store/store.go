// Package store persists entity collections in a local bbolt database,
// one bucket per named collection, JSON-encoded records keyed by id. It is
// the durable half of the ledger: in-memory state stays authoritative and
// writes arrive here behind it (see Outbox).
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// Store represents the bbolt database wrapper.
type Store struct {
	db *bolt.DB
}

// New creates a new Store instance and initializes one bucket per
// collection.
func New(dbPath string, collections []string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, collection := range collections {
			if _, err := tx.CreateBucketIfNotExists([]byte(collection)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", collection, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set stores a record in the collection's bucket.
func (s *Store) Set(collection, id string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return fmt.Errorf("bucket %s not found", collection)
		}
		return b.Put([]byte(id), data)
	})
}

// Get retrieves a record from the collection's bucket.
func (s *Store) Get(collection, id string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return fmt.Errorf("bucket %s not found", collection)
		}
		value := b.Get([]byte(id))
		if value == nil {
			return ErrNotFound
		}
		data = make([]byte, len(value))
		copy(data, value)
		return nil
	})
	return data, err
}

// Remove deletes a record from the collection's bucket. Removing a record
// that does not exist is not an error.
func (s *Store) Remove(collection, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return fmt.Errorf("bucket %s not found", collection)
		}
		return b.Delete([]byte(id))
	})
}

// LoadAll retrieves every record in a collection keyed by id.
func (s *Store) LoadAll(collection string) (map[string][]byte, error) {
	records := make(map[string][]byte)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return fmt.Errorf("bucket %s not found", collection)
		}
		return b.ForEach(func(k, v []byte) error {
			// Copy the value since it's only valid during the transaction.
			copied := make([]byte, len(v))
			copy(copied, v)
			records[string(k)] = copied
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ReplaceAll atomically replaces a collection's contents with the given
// records. The bucket is dropped and rebuilt in a single transaction, so
// readers never observe a half-replaced collection.
func (s *Store) ReplaceAll(collection string, records map[string][]byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(collection)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return fmt.Errorf("failed to drop bucket %s: %w", collection, err)
		}
		b, err := tx.CreateBucket([]byte(collection))
		if err != nil {
			return fmt.Errorf("failed to recreate bucket %s: %w", collection, err)
		}
		for id, data := range records {
			if err := b.Put([]byte(id), data); err != nil {
				return err
			}
		}
		return nil
	})
}
