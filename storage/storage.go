// Package storage defines the object storage contract consumed by the
// encrypted storage wrapper and implemented per backend, plus the wrapper
// itself. Backends move opaque bytes; the wrapper is the only place object
// encryption happens.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
)

// Logical subfolders of the object namespace.
const (
	FolderUploads    = "uploads"
	FolderThumbnails = "thumbnails"
	FolderBackups    = "backups"
)

var (
	// ErrNotFound is returned when the requested object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrKeyUnavailable is returned by the encrypted wrapper when no master
	// key is cached for the user. Callers should trigger re-authentication
	// rather than retry.
	ErrKeyUnavailable = errors.New("master key unavailable")

	// ErrDecryptFailed is returned when a downloaded object fails
	// authenticated decryption: the stored ciphertext is corrupt or was
	// written under a different key.
	ErrDecryptFailed = errors.New("object decryption failed")
)

// Backend is the narrow contract a storage backend must satisfy. Upload and
// Copy return a backend-specific locator for the stored object. Delete
// reports false for an absent object instead of an error. List returns a
// finite snapshot of ids; every call re-reads the backend, so there is no
// shared cursor state. Backends must provide atomic put semantics so an
// abandoned upload never leaves a partially written object.
type Backend interface {
	Upload(ctx context.Context, id, folder string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, id, folder string) ([]byte, error)
	Exists(ctx context.Context, id, folder string) (bool, error)
	Delete(ctx context.Context, id, folder string) (bool, error)
	GetSize(ctx context.Context, id, folder string) (int64, error)
	Copy(ctx context.Context, srcID, dstID, srcFolder, dstFolder string) (string, error)
	Move(ctx context.Context, srcID, dstID, srcFolder, dstFolder string) (string, error)
	List(ctx context.Context, folder, prefix string) ([]string, error)
}

// SanitizeID strips an object identifier to its final path component,
// forbidding traversal through directory separators. Returns "" for
// identifiers with no usable component.
func SanitizeID(id string) string {
	id = strings.ReplaceAll(id, "\\", "/")
	id = path.Base(id)
	if id == "." || id == ".." || id == "/" {
		return ""
	}
	return id
}
