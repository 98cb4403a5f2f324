// Package storage opens the object store used for uploaded attachments.
package storage

import (
	"fmt"

	"github.com/casdoor/oss"
	"github.com/ncobase/collab/config"
)

// DefaultMaxUploadSize applies when storage.max_upload_size is unset.
const DefaultMaxUploadSize int64 = 20 << 20

// NewStorage opens the configured provider: filesystem, minio or aws-s3.
func NewStorage(c *config.Storage) (oss.StorageInterface, error) {
	if c == nil {
		return nil, fmt.Errorf("storage config is nil")
	}
	switch c.Provider {
	case "", "filesystem":
		return NewFileSystem(c.Bucket, c.Endpoint)
	case "minio":
		return NewMinio(c)
	case "aws-s3":
		return NewS3(c)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", c.Provider)
	}
}

// MaxUploadSize returns the configured upload limit.
func MaxUploadSize(c *config.Storage) int64 {
	if c == nil || c.MaxUploadSize <= 0 {
		return DefaultMaxUploadSize
	}
	return c.MaxUploadSize
}
