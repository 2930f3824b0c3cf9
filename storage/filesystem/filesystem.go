// Package filesystem provides a storage.Backend rooted at a directory of an
// afero filesystem. Objects live under one subdirectory per logical folder;
// puts write to a temp file and rename into place so a crashed or abandoned
// upload never leaves a partially written object.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/jmcleod/mediasafe/storage"
)

// Backend implements storage.Backend on an afero filesystem.
type Backend struct {
	fs   afero.Fs
	root string
}

var _ storage.Backend = (*Backend)(nil)

// NewBackend creates a Backend rooted at dir, creating the standard folder
// layout if missing.
func NewBackend(fs afero.Fs, dir string) (*Backend, error) {
	for _, folder := range []string{storage.FolderUploads, storage.FolderThumbnails, storage.FolderBackups} {
		if err := fs.MkdirAll(filepath.Join(dir, folder), 0o700); err != nil {
			return nil, fmt.Errorf("creating folder %s: %w", folder, err)
		}
	}
	return &Backend{fs: fs, root: dir}, nil
}

// NewOSBackend creates a Backend on the host filesystem.
func NewOSBackend(dir string) (*Backend, error) {
	return NewBackend(afero.NewOsFs(), dir)
}

func (b *Backend) objectPath(id, folder string) (string, error) {
	id = storage.SanitizeID(id)
	if id == "" {
		return "", fmt.Errorf("empty object id")
	}
	folder = storage.SanitizeID(folder)
	if folder == "" {
		return "", fmt.Errorf("empty folder")
	}
	return filepath.Join(b.root, folder, id), nil
}

func (b *Backend) Upload(ctx context.Context, id, folder string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target, err := b.objectPath(id, folder)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}

	if err := b.fs.MkdirAll(filepath.Dir(target), 0o700); err != nil {
		return "", fmt.Errorf("upload %s: %w", target, err)
	}

	tmp := target + ".tmp-" + uuid.NewString()
	if err := afero.WriteFile(b.fs, tmp, data, 0o600); err != nil {
		return "", fmt.Errorf("upload %s: writing temp file: %w", target, err)
	}
	if err := b.fs.Rename(tmp, target); err != nil {
		_ = b.fs.Remove(tmp)
		return "", fmt.Errorf("upload %s: renaming temp file: %w", target, err)
	}
	return target, nil
}

func (b *Backend) Download(ctx context.Context, id, folder string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := b.objectPath(id, folder)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	data, err := afero.ReadFile(b.fs, target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s/%s: %w", folder, id, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("download %s: %w", target, err)
	}
	return data, nil
}

func (b *Backend) Exists(ctx context.Context, id, folder string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	target, err := b.objectPath(id, folder)
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}

	ok, err := afero.Exists(b.fs, target)
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", target, err)
	}
	return ok, nil
}

func (b *Backend) Delete(ctx context.Context, id, folder string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	target, err := b.objectPath(id, folder)
	if err != nil {
		return false, fmt.Errorf("delete: %w", err)
	}

	if err := b.fs.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete %s: %w", target, err)
	}
	return true, nil
}

func (b *Backend) GetSize(ctx context.Context, id, folder string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	target, err := b.objectPath(id, folder)
	if err != nil {
		return 0, fmt.Errorf("get size: %w", err)
	}

	info, err := b.fs.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%s/%s: %w", folder, id, storage.ErrNotFound)
		}
		return 0, fmt.Errorf("stat %s: %w", target, err)
	}
	return info.Size(), nil
}

func (b *Backend) Copy(ctx context.Context, srcID, dstID, srcFolder, dstFolder string) (string, error) {
	data, err := b.Download(ctx, srcID, srcFolder)
	if err != nil {
		return "", err
	}
	return b.Upload(ctx, dstID, dstFolder, data, "")
}

func (b *Backend) Move(ctx context.Context, srcID, dstID, srcFolder, dstFolder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	src, err := b.objectPath(srcID, srcFolder)
	if err != nil {
		return "", fmt.Errorf("move: %w", err)
	}
	dst, err := b.objectPath(dstID, dstFolder)
	if err != nil {
		return "", fmt.Errorf("move: %w", err)
	}

	if ok, err := afero.Exists(b.fs, src); err != nil {
		return "", fmt.Errorf("move %s: %w", src, err)
	} else if !ok {
		return "", fmt.Errorf("%s/%s: %w", srcFolder, srcID, storage.ErrNotFound)
	}

	// Moving an object onto itself must leave it in place.
	if src == dst {
		return dst, nil
	}

	if err := b.fs.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return "", fmt.Errorf("move %s: %w", dst, err)
	}
	if err := b.fs.Rename(src, dst); err != nil {
		return "", fmt.Errorf("move %s to %s: %w", src, dst, err)
	}
	return dst, nil
}

func (b *Backend) List(ctx context.Context, folder, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	folder = storage.SanitizeID(folder)
	if folder == "" {
		return nil, fmt.Errorf("list: empty folder")
	}

	infos, err := afero.ReadDir(b.fs, filepath.Join(b.root, folder))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", folder, err)
	}

	var ids []string
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		if !strings.HasPrefix(info.Name(), prefix) {
			continue
		}
		ids = append(ids, info.Name())
	}
	return ids, nil
}
