// Package keystore defines the row-store contract and record model for
// encrypted key material. Records hold ciphertext only: content keys and
// folder keys are wrapped by their owners before they reach the store, and
// the store never sees a key in plaintext.
package keystore

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record exists for the requested ID.
	ErrNotFound = errors.New("record not found")
	// ErrExists is returned when inserting a record whose ID is already taken.
	ErrExists = errors.New("record already exists")
)

// StorageMode tracks how an object's bytes are protected: directly by the
// per-user master key (legacy) or by its own content key (envelope).
// The transition is one-way, legacy to envelope.
type StorageMode string

const (
	ModeLegacy   StorageMode = "legacy"
	ModeEnvelope StorageMode = "envelope"
)

// ContentKeyRecord is the per-object key record. EncryptedKey is the content
// key wrapped with the owner's master key; Shares maps recipient user IDs to
// hex-encoded copies of the content key wrapped for that recipient.
type ContentKeyRecord struct {
	ObjectID              string            `json:"object_id"`
	OwnerID               string            `json:"owner_id"`
	EncryptedKey          []byte            `json:"encrypted_ck"`
	ThumbnailEncryptedKey []byte            `json:"thumbnail_encrypted_ck,omitempty"`
	Shares                map[string]string `json:"shares,omitempty"`
	KeyVersion            int               `json:"key_version"`
	Mode                  StorageMode       `json:"storage_mode"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// Clone returns a deep copy of the record.
func (r *ContentKeyRecord) Clone() *ContentKeyRecord {
	if r == nil {
		return nil
	}
	cp := *r
	cp.EncryptedKey = append([]byte(nil), r.EncryptedKey...)
	cp.ThumbnailEncryptedKey = append([]byte(nil), r.ThumbnailEncryptedKey...)
	if r.Shares != nil {
		cp.Shares = make(map[string]string, len(r.Shares))
		for k, v := range r.Shares {
			cp.Shares[k] = v
		}
	}
	return &cp
}

// FolderKeyRecord is the per-folder key record. Keys maps user IDs to
// hex-encoded copies of the folder key wrapped for that user; the creator's
// entry is written at creation time.
type FolderKeyRecord struct {
	FolderID  string            `json:"folder_id"`
	OwnerID   string            `json:"owner_id"`
	Keys      map[string]string `json:"keys"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Clone returns a deep copy of the record.
func (r *FolderKeyRecord) Clone() *FolderKeyRecord {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Keys != nil {
		cp.Keys = make(map[string]string, len(r.Keys))
		for k, v := range r.Keys {
			cp.Keys[k] = v
		}
	}
	return &cp
}

// Store is the persistence contract consumed by the envelope key manager.
// Implementations own no connection lifecycle beyond their own handle and
// must be safe for concurrent use.
type Store interface {
	InsertContentKey(rec *ContentKeyRecord) error
	GetContentKey(objectID string) (*ContentKeyRecord, error)
	UpdateContentKey(rec *ContentKeyRecord) error
	ListContentKeysByOwner(ownerID string) ([]*ContentKeyRecord, error)

	InsertFolderKey(rec *FolderKeyRecord) error
	GetFolderKey(folderID string) (*FolderKeyRecord, error)
	UpdateFolderKey(rec *FolderKeyRecord) error
}
