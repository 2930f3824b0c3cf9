package envelope

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmcleod/mediasafe/internal/util"
	"github.com/jmcleod/mediasafe/keystore"
)

// MigrationStatus is a read-only aggregate over a user's objects
// partitioned by storage mode. Partial migration is a valid, inspectable
// steady state; callers retry MigrateToEnvelope per object until Complete.
type MigrationStatus struct {
	Legacy   int
	Envelope int
	Total    int
	Complete bool
}

// RegisterLegacyObject records an object whose bytes are protected by the
// per-user master key and that has no content key yet. This is the
// bookkeeping entry migration works from; re-registering an object returns
// ErrAlreadyExists.
func (m *Manager) RegisterLegacyObject(objectID, ownerID string) error {
	if objectID == "" || ownerID == "" {
		return fmt.Errorf("object ID and owner ID must not be empty")
	}

	now := time.Now().UTC()
	rec := &keystore.ContentKeyRecord{
		ObjectID:  objectID,
		OwnerID:   ownerID,
		Mode:      keystore.ModeLegacy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.InsertContentKey(rec); err != nil {
		if errors.Is(err, keystore.ErrExists) {
			return fmt.Errorf("object %s: %w", objectID, ErrAlreadyExists)
		}
		return fmt.Errorf("inserting legacy record for %s: %w", objectID, err)
	}
	return nil
}

// MigrateToEnvelope attaches a content key to a legacy object and flips its
// storage mode to envelope. The caller has already re-encrypted the object
// under the new content key and wrapped that key with the owner's master
// key; the manager records the result. The mode transition is one-way.
//
// Calling it again on an already-envelope object is a successful no-op that
// leaves the record unchanged, so interrupted migration runs can be retried
// blindly.
func (m *Manager) MigrateToEnvelope(objectID, ownerID string, encryptedCK, thumbnailEncryptedCK []byte) error {
	if len(encryptedCK) == 0 {
		return fmt.Errorf("encrypted content key must not be empty")
	}

	rec, err := m.store.GetContentKey(objectID)
	if err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return fmt.Errorf("object %s: %w", objectID, ErrNotFound)
		}
		return fmt.Errorf("loading content key record for %s: %w", objectID, err)
	}
	if rec.OwnerID != ownerID {
		return fmt.Errorf("object %s: %w", objectID, ErrPermissionDenied)
	}
	if rec.Mode == keystore.ModeEnvelope {
		return nil
	}

	rec.EncryptedKey = util.CopyBytes(encryptedCK)
	rec.ThumbnailEncryptedKey = append([]byte(nil), thumbnailEncryptedCK...)
	rec.KeyVersion = 1
	rec.Mode = keystore.ModeEnvelope
	rec.UpdatedAt = time.Now().UTC()

	if err := m.store.UpdateContentKey(rec); err != nil {
		return fmt.Errorf("updating record for %s: %w", objectID, err)
	}
	return nil
}

// GetMigrationStatus reports how many of the user's objects remain on the
// legacy scheme. A user with no objects is trivially complete.
func (m *Manager) GetMigrationStatus(userID string) (*MigrationStatus, error) {
	recs, err := m.store.ListContentKeysByOwner(userID)
	if err != nil {
		return nil, fmt.Errorf("listing key records for %s: %w", userID, err)
	}

	status := &MigrationStatus{Total: len(recs)}
	for _, rec := range recs {
		switch rec.Mode {
		case keystore.ModeEnvelope:
			status.Envelope++
		default:
			status.Legacy++
		}
	}
	status.Complete = status.Legacy == 0
	return status, nil
}
