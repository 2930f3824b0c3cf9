// Package bbolt provides a BBolt-backed key record store.
package bbolt

import (
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/jmcleod/mediasafe/keystore"
)

var (
	contentKeyBucket = []byte("content_keys")
	folderKeyBucket  = []byte("folder_keys")
)

// Store implements keystore.Store backed by a BBolt database.
type Store struct {
	db *bbolt.DB
}

var _ keystore.Store = (*Store)(nil)

// NewStore returns a Store backed by the given BBolt database.
func NewStore(db *bbolt.DB) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(contentKeyBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(folderKeyBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreFromFile opens a BBolt database at the given path and returns a new Store.
func NewStoreFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewStore(db)
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func insert(s *Store, bucket []byte, id string, rec any) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b.Get([]byte(id)) != nil {
			return fmt.Errorf("%s: %w", id, keystore.ErrExists)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), data)
	})
}

func update(s *Store, bucket []byte, id string, rec any) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("%s: %w", id, keystore.ErrNotFound)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), data)
	})
}

func get(s *Store, bucket []byte, id string, rec any) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%s: %w", id, keystore.ErrNotFound)
		}
		return json.Unmarshal(data, rec)
	})
}

func (s *Store) InsertContentKey(rec *keystore.ContentKeyRecord) error {
	return insert(s, contentKeyBucket, rec.ObjectID, rec)
}

func (s *Store) GetContentKey(objectID string) (*keystore.ContentKeyRecord, error) {
	var rec keystore.ContentKeyRecord
	if err := get(s, contentKeyBucket, objectID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) UpdateContentKey(rec *keystore.ContentKeyRecord) error {
	return update(s, contentKeyBucket, rec.ObjectID, rec)
}

func (s *Store) ListContentKeysByOwner(ownerID string) ([]*keystore.ContentKeyRecord, error) {
	var recs []*keystore.ContentKeyRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(contentKeyBucket).ForEach(func(k, v []byte) error {
			var rec keystore.ContentKeyRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding record %s: %w", k, err)
			}
			if rec.OwnerID == ownerID {
				recs = append(recs, &rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *Store) InsertFolderKey(rec *keystore.FolderKeyRecord) error {
	return insert(s, folderKeyBucket, rec.FolderID, rec)
}

func (s *Store) GetFolderKey(folderID string) (*keystore.FolderKeyRecord, error) {
	var rec keystore.FolderKeyRecord
	if err := get(s, folderKeyBucket, folderID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) UpdateFolderKey(rec *keystore.FolderKeyRecord) error {
	return update(s, folderKeyBucket, rec.FolderID, rec)
}
