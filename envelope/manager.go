// Package envelope implements the key hierarchy above the per-user master
// key: one content key per protected object, folder keys, per-recipient
// sharing maps, and legacy-to-envelope migration bookkeeping.
//
// The manager performs no cryptography on object bytes and never holds a
// content key in plaintext. Content keys are generated and decrypted by the
// connecting client; the manager stores and serves the encrypted copies the
// client produces. Sharing therefore works without re-encrypting object
// bytes: the owner unwraps the content key locally, re-wraps it for the
// recipient, and hands the manager the resulting ciphertext.
package envelope

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmcleod/mediasafe/internal/util"
	"github.com/jmcleod/mediasafe/keystore"
)

// Manager owns content-key and folder-key records in a keystore.Store.
// It is stateless apart from the store handle and safe for concurrent use
// to the extent the store is.
type Manager struct {
	store keystore.Store
}

// NewManager creates a Manager over the given record store.
func NewManager(store keystore.Store) *Manager {
	return &Manager{store: store}
}

// ContentKey is the result of a content-key lookup. EncryptedKey is the
// wrapped content key for the requester: the owner's copy (wrapped with the
// owner's master key) when IsOwner is true, otherwise the recipient-specific
// copy from the sharing map. ThumbnailEncryptedKey is populated for the
// owner only.
type ContentKey struct {
	EncryptedKey          []byte
	ThumbnailEncryptedKey []byte
	IsOwner               bool
	KeyVersion            int
}

// CreateContentKey inserts the key record for a newly encrypted object with
// an empty sharing map. encryptedCK is the content key wrapped with the
// owner's master key; thumbnailEncryptedCK optionally carries a second
// wrapped copy for the object's derivative. Returns ErrAlreadyExists if the
// object already has a record.
func (m *Manager) CreateContentKey(objectID, ownerID string, encryptedCK, thumbnailEncryptedCK []byte) error {
	if objectID == "" || ownerID == "" {
		return fmt.Errorf("object ID and owner ID must not be empty")
	}
	if len(encryptedCK) == 0 {
		return fmt.Errorf("encrypted content key must not be empty")
	}

	now := time.Now().UTC()
	rec := &keystore.ContentKeyRecord{
		ObjectID:              objectID,
		OwnerID:               ownerID,
		EncryptedKey:          util.CopyBytes(encryptedCK),
		ThumbnailEncryptedKey: append([]byte(nil), thumbnailEncryptedCK...),
		KeyVersion:            1,
		Mode:                  keystore.ModeEnvelope,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := m.store.InsertContentKey(rec); err != nil {
		if errors.Is(err, keystore.ErrExists) {
			return fmt.Errorf("object %s: %w", objectID, ErrAlreadyExists)
		}
		return fmt.Errorf("inserting content key record for %s: %w", objectID, err)
	}
	return nil
}

// GetContentKey resolves the requester's access to an object's content key.
// The recorded owner receives their own wrapped copy; a recipient in the
// sharing map receives the copy wrapped for them. Any other requester gets
// ErrNoAccess, whether or not the object exists.
func (m *Manager) GetContentKey(objectID, requesterID string) (*ContentKey, error) {
	rec, err := m.store.GetContentKey(objectID)
	if err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return nil, ErrNoAccess
		}
		return nil, fmt.Errorf("loading content key record for %s: %w", objectID, err)
	}

	if rec.OwnerID == requesterID {
		if rec.Mode == keystore.ModeLegacy {
			return nil, fmt.Errorf("object %s: %w", objectID, ErrLegacyObject)
		}
		return &ContentKey{
			EncryptedKey:          rec.EncryptedKey,
			ThumbnailEncryptedKey: rec.ThumbnailEncryptedKey,
			IsOwner:               true,
			KeyVersion:            rec.KeyVersion,
		}, nil
	}

	if wrapped, ok := rec.Shares[requesterID]; ok {
		raw, err := util.HexDecode(wrapped)
		if err != nil {
			return nil, fmt.Errorf("decoding shared key for %s: %w", requesterID, err)
		}
		return &ContentKey{
			EncryptedKey: raw,
			IsOwner:      false,
			KeyVersion:   rec.KeyVersion,
		}, nil
	}

	return nil, ErrNoAccess
}

// ShareContentKey inserts or overwrites the target's entry in the object's
// sharing map. encryptedCKForTarget must be the content key re-wrapped for
// the target by the owner; the manager performs no cryptography. Fails with
// ErrPermissionDenied, without mutating the map, unless ownerID matches the
// recorded owner.
func (m *Manager) ShareContentKey(objectID, ownerID, targetID string, encryptedCKForTarget []byte) error {
	if len(encryptedCKForTarget) == 0 {
		return fmt.Errorf("encrypted content key for target must not be empty")
	}

	rec, err := m.loadOwned(objectID, ownerID)
	if err != nil {
		return err
	}
	if rec.Mode == keystore.ModeLegacy {
		return fmt.Errorf("object %s: %w", objectID, ErrLegacyObject)
	}

	if rec.Shares == nil {
		rec.Shares = make(map[string]string)
	}
	rec.Shares[targetID] = util.HexEncode(encryptedCKForTarget)
	rec.UpdatedAt = time.Now().UTC()

	if err := m.store.UpdateContentKey(rec); err != nil {
		return fmt.Errorf("updating sharing map for %s: %w", objectID, err)
	}
	return nil
}

// RevokeContentKeyShare removes the target's entry from the object's
// sharing map. Revoking a target that has no entry succeeds and changes
// nothing. Fails with ErrPermissionDenied unless ownerID matches the
// recorded owner.
//
// Revocation only prevents future key retrieval. It does not re-encrypt the
// object, so a target that already fetched and cached the content key
// retains offline access until the object itself is re-keyed.
func (m *Manager) RevokeContentKeyShare(objectID, ownerID, targetID string) error {
	rec, err := m.loadOwned(objectID, ownerID)
	if err != nil {
		return err
	}

	if _, ok := rec.Shares[targetID]; !ok {
		return nil
	}
	delete(rec.Shares, targetID)
	rec.UpdatedAt = time.Now().UTC()

	if err := m.store.UpdateContentKey(rec); err != nil {
		return fmt.Errorf("updating sharing map for %s: %w", objectID, err)
	}
	return nil
}

// loadOwned fetches a content key record and enforces the ownership gate
// shared by every sharing mutation.
func (m *Manager) loadOwned(objectID, ownerID string) (*keystore.ContentKeyRecord, error) {
	rec, err := m.store.GetContentKey(objectID)
	if err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return nil, fmt.Errorf("object %s: %w", objectID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading content key record for %s: %w", objectID, err)
	}
	if rec.OwnerID != ownerID {
		return nil, fmt.Errorf("object %s: %w", objectID, ErrPermissionDenied)
	}
	return rec, nil
}
