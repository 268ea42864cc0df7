package storage

import (
	"fmt"
	"sort"

	"github.com/shashiranjanraj/storefront/config"
)

// Options selects and configures a Disk.
type Options struct {
	Disk      string // "local" | "s3"
	Bucket    string
	LocalRoot string

	S3Region   string
	S3Key      string
	S3Secret   string
	S3Endpoint string // empty for real AWS
}

// OptionsFromConfig reads STORAGE_* and S3_* settings.
func OptionsFromConfig() Options {
	return Options{
		Disk:       config.StorageDisk(),
		Bucket:     config.StorageBucket(),
		LocalRoot:  config.StorageLocalRoot(),
		S3Region:   config.StorageS3Region(),
		S3Key:      config.StorageS3Key(),
		S3Secret:   config.StorageS3Secret(),
		S3Endpoint: config.StorageS3Endpoint(),
	}
}

// New builds the disk named by opts.Disk.
func New(opts Options) (Disk, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket is not configured")
	}
	switch opts.Disk {
	case "", "local":
		return NewLocal(opts.LocalRoot, opts.Bucket)
	case "s3":
		return NewS3(opts)
	default:
		return nil, fmt.Errorf("storage: unsupported STORAGE_DISK %q (supported: local, s3)", opts.Disk)
	}
}

// newestFirst sorts objects by LastModified descending, key as tiebreak,
// and truncates to limit.
func newestFirst(objs []Object, limit int) []Object {
	sort.Slice(objs, func(i, j int) bool {
		if objs[i].LastModified.Equal(objs[j].LastModified) {
			return objs[i].Key > objs[j].Key
		}
		return objs[i].LastModified.After(objs[j].LastModified)
	})
	if limit > 0 && len(objs) > limit {
		objs = objs[:limit]
	}
	return objs
}
