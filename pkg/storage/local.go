package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// localDisk stores a bucket as a directory on the local filesystem.
type localDisk struct {
	bucket string
	root   string // absolute bucket directory
}

// NewLocal returns a disk rooted at <root>/<bucket>. A relative root is
// resolved against the working directory.
func NewLocal(root, bucket string) (Disk, error) {
	if root == "" {
		root = "storage"
	}
	abs, err := filepath.Abs(filepath.Join(root, bucket))
	if err != nil {
		return nil, fmt.Errorf("storage/local: resolve root: %w", err)
	}
	return &localDisk{bucket: bucket, root: abs}, nil
}

func (d *localDisk) Driver() string { return "local" }
func (d *localDisk) Bucket() string { return d.bucket }

// abs maps key into the bucket directory, refusing keys that escape it.
func (d *localDisk) abs(key string) (string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", fmt.Errorf("storage/local: invalid key %q", key)
	}
	return filepath.Join(d.root, filepath.FromSlash(clean)), nil
}

func (d *localDisk) Ensure(_ context.Context) error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("storage/local: mkdir %s: %w", d.bucket, err)
	}
	return nil
}

// Put writes through a temp file and renames it into place so readers
// never observe a partial object.
func (d *localDisk) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) error {
	full, err := d.abs(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage/local: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("storage/local: create %s: %w", key, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("storage/local: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage/local: write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("storage/local: rename %s: %w", key, err)
	}
	return nil
}

func (d *localDisk) Open(_ context.Context, key string) (io.ReadCloser, Object, error) {
	full, err := d.abs(key)
	if err != nil {
		return nil, Object{}, ErrNotExist
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Object{}, ErrNotExist
	}
	if err != nil {
		return nil, Object{}, fmt.Errorf("storage/local: open %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		return nil, Object{}, ErrNotExist
	}

	obj := Object{Key: key, Size: info.Size(), LastModified: info.ModTime()}
	if mt, err := mimetype.DetectReader(f); err == nil {
		obj.ContentType = mt.String()
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, Object{}, fmt.Errorf("storage/local: seek %s: %w", key, err)
	}
	return f, obj, nil
}

func (d *localDisk) Delete(_ context.Context, key string) error {
	full, err := d.abs(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage/local: delete %s: %w", key, err)
	}
	return nil
}

func (d *localDisk) List(ctx context.Context, prefix string, limit int) ([]Object, error) {
	dir := d.root
	if p := strings.Trim(prefix, "/"); p != "" {
		full, err := d.abs(p)
		if err != nil {
			return nil, err
		}
		dir = full
	}

	var objs []Object
	err := filepath.WalkDir(dir, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() || strings.HasPrefix(e.Name(), ".upload-") {
			return nil
		}
		info, err := e.Info()
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(d.root, p)
		objs = append(objs, Object{Key: filepath.ToSlash(rel), Size: info.Size(), LastModified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage/local: list %s: %w", prefix, err)
	}
	return newestFirst(objs, limit), nil
}
