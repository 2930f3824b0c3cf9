// Package memory provides a thread-safe in-memory implementation of
// keystore.Store. Suitable for testing, demos, and single-process use cases.
package memory

import (
	"sync"

	"github.com/jmcleod/mediasafe/keystore"
)

// Store is a thread-safe in-memory implementation of keystore.Store.
type Store struct {
	mu          sync.RWMutex
	contentKeys map[string]*keystore.ContentKeyRecord
	folderKeys  map[string]*keystore.FolderKeyRecord
}

var _ keystore.Store = (*Store)(nil)

// NewStore creates a new empty in-memory Store.
func NewStore() *Store {
	return &Store{
		contentKeys: make(map[string]*keystore.ContentKeyRecord),
		folderKeys:  make(map[string]*keystore.FolderKeyRecord),
	}
}

func (s *Store) InsertContentKey(rec *keystore.ContentKeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contentKeys[rec.ObjectID]; ok {
		return keystore.ErrExists
	}
	s.contentKeys[rec.ObjectID] = rec.Clone()
	return nil
}

func (s *Store) GetContentKey(objectID string) (*keystore.ContentKeyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.contentKeys[objectID]
	if !ok {
		return nil, keystore.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *Store) UpdateContentKey(rec *keystore.ContentKeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contentKeys[rec.ObjectID]; !ok {
		return keystore.ErrNotFound
	}
	s.contentKeys[rec.ObjectID] = rec.Clone()
	return nil
}

func (s *Store) ListContentKeysByOwner(ownerID string) ([]*keystore.ContentKeyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var recs []*keystore.ContentKeyRecord
	for _, rec := range s.contentKeys {
		if rec.OwnerID == ownerID {
			recs = append(recs, rec.Clone())
		}
	}
	return recs, nil
}

func (s *Store) InsertFolderKey(rec *keystore.FolderKeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.folderKeys[rec.FolderID]; ok {
		return keystore.ErrExists
	}
	s.folderKeys[rec.FolderID] = rec.Clone()
	return nil
}

func (s *Store) GetFolderKey(folderID string) (*keystore.FolderKeyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.folderKeys[folderID]
	if !ok {
		return nil, keystore.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *Store) UpdateFolderKey(rec *keystore.FolderKeyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.folderKeys[rec.FolderID]; !ok {
		return keystore.ErrNotFound
	}
	s.folderKeys[rec.FolderID] = rec.Clone()
	return nil
}
