package envelope

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmcleod/mediasafe/internal/util"
	"github.com/jmcleod/mediasafe/keystore"
)

// FolderKey is the result of a folder-key lookup.
type FolderKey struct {
	EncryptedKey []byte
	IsOwner      bool
}

// CreateFolderKey inserts the key record for a folder. encryptedFolderKey
// is the folder key wrapped with the creator's master key; it becomes the
// creator's entry in the per-user key map. Returns ErrAlreadyExists if the
// folder already has a record.
func (m *Manager) CreateFolderKey(folderID, ownerID string, encryptedFolderKey []byte) error {
	if folderID == "" || ownerID == "" {
		return fmt.Errorf("folder ID and owner ID must not be empty")
	}
	if len(encryptedFolderKey) == 0 {
		return fmt.Errorf("encrypted folder key must not be empty")
	}

	now := time.Now().UTC()
	rec := &keystore.FolderKeyRecord{
		FolderID:  folderID,
		OwnerID:   ownerID,
		Keys:      map[string]string{ownerID: util.HexEncode(encryptedFolderKey)},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.InsertFolderKey(rec); err != nil {
		if errors.Is(err, keystore.ErrExists) {
			return fmt.Errorf("folder %s: %w", folderID, ErrAlreadyExists)
		}
		return fmt.Errorf("inserting folder key record for %s: %w", folderID, err)
	}
	return nil
}

// GetFolderKey resolves the requester's access to a folder key. Any user
// with an entry in the key map receives their wrapped copy; everyone else
// gets ErrNoAccess, whether or not the folder exists.
func (m *Manager) GetFolderKey(folderID, requesterID string) (*FolderKey, error) {
	rec, err := m.store.GetFolderKey(folderID)
	if err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return nil, ErrNoAccess
		}
		return nil, fmt.Errorf("loading folder key record for %s: %w", folderID, err)
	}

	wrapped, ok := rec.Keys[requesterID]
	if !ok {
		return nil, ErrNoAccess
	}
	raw, err := util.HexDecode(wrapped)
	if err != nil {
		return nil, fmt.Errorf("decoding folder key for %s: %w", requesterID, err)
	}
	return &FolderKey{
		EncryptedKey: raw,
		IsOwner:      rec.OwnerID == requesterID,
	}, nil
}

// ShareFolderKey inserts or overwrites the target's entry in the folder's
// key map. Only the recorded owner may add entries.
func (m *Manager) ShareFolderKey(folderID, ownerID, targetID string, encryptedKeyForTarget []byte) error {
	if len(encryptedKeyForTarget) == 0 {
		return fmt.Errorf("encrypted folder key for target must not be empty")
	}

	rec, err := m.loadOwnedFolder(folderID, ownerID)
	if err != nil {
		return err
	}

	rec.Keys[targetID] = util.HexEncode(encryptedKeyForTarget)
	rec.UpdatedAt = time.Now().UTC()

	if err := m.store.UpdateFolderKey(rec); err != nil {
		return fmt.Errorf("updating folder key map for %s: %w", folderID, err)
	}
	return nil
}

// RevokeFolderShare removes the target's entry from the folder's key map.
// Revoking an absent target succeeds and changes nothing. The owner's own
// entry cannot be revoked.
func (m *Manager) RevokeFolderShare(folderID, ownerID, targetID string) error {
	rec, err := m.loadOwnedFolder(folderID, ownerID)
	if err != nil {
		return err
	}
	if targetID == rec.OwnerID {
		return fmt.Errorf("folder %s: cannot revoke the owner's key: %w", folderID, ErrPermissionDenied)
	}

	if _, ok := rec.Keys[targetID]; !ok {
		return nil
	}
	delete(rec.Keys, targetID)
	rec.UpdatedAt = time.Now().UTC()

	if err := m.store.UpdateFolderKey(rec); err != nil {
		return fmt.Errorf("updating folder key map for %s: %w", folderID, err)
	}
	return nil
}

func (m *Manager) loadOwnedFolder(folderID, ownerID string) (*keystore.FolderKeyRecord, error) {
	rec, err := m.store.GetFolderKey(folderID)
	if err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			return nil, fmt.Errorf("folder %s: %w", folderID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading folder key record for %s: %w", folderID, err)
	}
	if rec.OwnerID != ownerID {
		return nil, fmt.Errorf("folder %s: %w", folderID, ErrPermissionDenied)
	}
	if rec.Keys == nil {
		rec.Keys = make(map[string]string)
	}
	return rec, nil
}
