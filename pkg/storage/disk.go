// Package storage is the object-storage layer behind product images.
//
// A Disk is bound to one bucket. Two drivers are available:
//   - "local" : a directory per bucket under STORAGE_LOCAL_ROOT
//   - "s3"    : S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
//	disk, err := storage.New(storage.OptionsFromConfig())
//	err = disk.Put(ctx, "1700000000000_ab12cd34.jpg", r, size, "image/jpeg")
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotExist is returned by Open for a key that is not stored.
var ErrNotExist = errors.New("storage: object does not exist")

// Object describes one stored object.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Disk is the driver interface. Keys are slash-separated and relative to
// the bucket.
type Disk interface {
	// Driver returns "local" or "s3".
	Driver() string

	// Bucket returns the bucket the disk is bound to.
	Bucket() string

	// Ensure creates the bucket when it does not exist yet.
	Ensure(ctx context.Context) error

	// Put stores size bytes from r under key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Open streams the object at key. The caller closes the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, Object, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns up to limit objects under prefix, newest first.
	// limit <= 0 means no limit.
	List(ctx context.Context, prefix string, limit int) ([]Object, error)
}
