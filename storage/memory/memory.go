// Package memory provides a thread-safe in-memory implementation of
// storage.Backend. Suitable for testing, demos, and single-process use.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jmcleod/mediasafe/storage"
)

// Backend is a thread-safe in-memory implementation of storage.Backend.
type Backend struct {
	mu      sync.RWMutex
	folders map[string]map[string][]byte
}

var _ storage.Backend = (*Backend)(nil)

// NewBackend creates a new empty in-memory Backend.
func NewBackend() *Backend {
	return &Backend{folders: make(map[string]map[string][]byte)}
}

func locator(id, folder string) string {
	return folder + "/" + id
}

func (b *Backend) Upload(ctx context.Context, id, folder string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id = storage.SanitizeID(id)
	if id == "" {
		return "", fmt.Errorf("upload: empty object id")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.folders[folder]; !ok {
		b.folders[folder] = make(map[string][]byte)
	}
	b.folders[folder][id] = append([]byte(nil), data...)
	return locator(id, folder), nil
}

func (b *Backend) Download(ctx context.Context, id, folder string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id = storage.SanitizeID(id)

	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.folders[folder][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", folder, id, storage.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (b *Backend) Exists(ctx context.Context, id, folder string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	id = storage.SanitizeID(id)

	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.folders[folder][id]
	return ok, nil
}

func (b *Backend) Delete(ctx context.Context, id, folder string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	id = storage.SanitizeID(id)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.folders[folder][id]; !ok {
		return false, nil
	}
	delete(b.folders[folder], id)
	return true, nil
}

func (b *Backend) GetSize(ctx context.Context, id, folder string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	id = storage.SanitizeID(id)

	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.folders[folder][id]
	if !ok {
		return 0, fmt.Errorf("%s/%s: %w", folder, id, storage.ErrNotFound)
	}
	return int64(len(data)), nil
}

func (b *Backend) Copy(ctx context.Context, srcID, dstID, srcFolder, dstFolder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	srcID = storage.SanitizeID(srcID)
	dstID = storage.SanitizeID(dstID)
	if dstID == "" {
		return "", fmt.Errorf("copy: empty destination id")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.folders[srcFolder][srcID]
	if !ok {
		return "", fmt.Errorf("%s/%s: %w", srcFolder, srcID, storage.ErrNotFound)
	}
	if _, ok := b.folders[dstFolder]; !ok {
		b.folders[dstFolder] = make(map[string][]byte)
	}
	b.folders[dstFolder][dstID] = append([]byte(nil), data...)
	return locator(dstID, dstFolder), nil
}

func (b *Backend) Move(ctx context.Context, srcID, dstID, srcFolder, dstFolder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	srcID = storage.SanitizeID(srcID)
	dstID = storage.SanitizeID(dstID)
	if dstID == "" {
		return "", fmt.Errorf("move: empty destination id")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.folders[srcFolder][srcID]
	if !ok {
		return "", fmt.Errorf("%s/%s: %w", srcFolder, srcID, storage.ErrNotFound)
	}
	// Moving an object onto itself must leave it in place.
	if srcFolder == dstFolder && srcID == dstID {
		return locator(dstID, dstFolder), nil
	}
	if _, ok := b.folders[dstFolder]; !ok {
		b.folders[dstFolder] = make(map[string][]byte)
	}
	b.folders[dstFolder][dstID] = data
	delete(b.folders[srcFolder], srcID)
	return locator(dstID, dstFolder), nil
}

func (b *Backend) List(ctx context.Context, folder, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	var ids []string
	for id := range b.folders[folder] {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
