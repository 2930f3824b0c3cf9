package storage

import (
	"context"
	"fmt"

	"github.com/jmcleod/mediasafe/crypto"
	"github.com/jmcleod/mediasafe/internal/util"
	"github.com/jmcleod/mediasafe/keycache"
)

// Encrypted decorates any Backend with transparent bulk encryption of
// object bytes under the user's master key, resolved through the key cache.
// The wrapper never derives a key itself; if none is cached it fails with
// ErrKeyUnavailable so the caller can re-authenticate.
//
// Stored objects are exactly crypto.Overhead bytes larger than their
// plaintext, and GetSize deliberately reports that ciphertext length.
type Encrypted struct {
	backend Backend
	keys    *keycache.Cache
	userID  string
}

var _ Backend = (*Encrypted)(nil)

// NewEncrypted wraps a backend for a single user's objects.
func NewEncrypted(backend Backend, keys *keycache.Cache, userID string) *Encrypted {
	return &Encrypted{
		backend: backend,
		keys:    keys,
		userID:  userID,
	}
}

func (e *Encrypted) masterKey() ([]byte, error) {
	rawKey, ok := e.keys.Get(e.userID)
	if !ok {
		return nil, fmt.Errorf("user %s: %w", e.userID, ErrKeyUnavailable)
	}
	return rawKey, nil
}

// Upload encrypts the payload and stores the ciphertext.
func (e *Encrypted) Upload(ctx context.Context, id, folder string, data []byte, contentType string) (string, error) {
	rawKey, err := e.masterKey()
	if err != nil {
		return "", err
	}
	defer util.WipeBytes(rawKey)

	blob, err := crypto.EncryptBytes(data, rawKey)
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: encrypting object: %w", folder, id, err)
	}
	return e.backend.Upload(ctx, id, folder, blob, contentType)
}

// Download retrieves the ciphertext and decrypts it. An absent object
// propagates the backend's ErrNotFound unchanged; a failed decryption
// surfaces as ErrDecryptFailed rather than a raw crypto error.
func (e *Encrypted) Download(ctx context.Context, id, folder string) ([]byte, error) {
	blob, err := e.backend.Download(ctx, id, folder)
	if err != nil {
		return nil, err
	}

	rawKey, err := e.masterKey()
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(rawKey)

	plainText, err := crypto.DecryptBytes(blob, rawKey)
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", folder, id, ErrDecryptFailed)
	}
	return plainText, nil
}

// Exists delegates to the backend.
func (e *Encrypted) Exists(ctx context.Context, id, folder string) (bool, error) {
	return e.backend.Exists(ctx, id, folder)
}

// Delete delegates to the backend.
func (e *Encrypted) Delete(ctx context.Context, id, folder string) (bool, error) {
	return e.backend.Delete(ctx, id, folder)
}

// GetSize reports the stored ciphertext length, which exceeds the plaintext
// length by the fixed crypto.Overhead. Callers wanting the plaintext size
// subtract it.
func (e *Encrypted) GetSize(ctx context.Context, id, folder string) (int64, error) {
	return e.backend.GetSize(ctx, id, folder)
}

// Copy relocates ciphertext byte-for-byte; the object is never decrypted.
func (e *Encrypted) Copy(ctx context.Context, srcID, dstID, srcFolder, dstFolder string) (string, error) {
	return e.backend.Copy(ctx, srcID, dstID, srcFolder, dstFolder)
}

// Move relocates ciphertext byte-for-byte; the object is never decrypted.
func (e *Encrypted) Move(ctx context.Context, srcID, dstID, srcFolder, dstFolder string) (string, error) {
	return e.backend.Move(ctx, srcID, dstID, srcFolder, dstFolder)
}

// List delegates to the backend.
func (e *Encrypted) List(ctx context.Context, folder, prefix string) ([]string, error) {
	return e.backend.List(ctx, folder, prefix)
}
