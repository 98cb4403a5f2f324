package storage

import (
	"fmt"

	aws3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/casdoor/oss"
	"github.com/casdoor/oss/s3"
	"github.com/ncobase/collab/config"
)

// NewS3 opens an AWS S3 bucket.
func NewS3(c *config.Storage) (oss.StorageInterface, error) {
	if c.ID == "" || c.Secret == "" || c.Bucket == "" || c.Region == "" {
		return nil, fmt.Errorf("id, secret, bucket and region are required for aws-s3")
	}
	return s3.New(&s3.Config{
		AccessID:   c.ID,
		AccessKey:  c.Secret,
		Region:     c.Region,
		Bucket:     c.Bucket,
		Endpoint:   c.Endpoint,
		S3Endpoint: c.Endpoint,
		ACL:        aws3.BucketCannedACLPrivate,
	}), nil
}

// NewMinio opens a MinIO bucket through the S3 API with path-style addressing.
func NewMinio(c *config.Storage) (oss.StorageInterface, error) {
	if c.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required for minio")
	}
	if c.ID == "" || c.Secret == "" || c.Bucket == "" {
		return nil, fmt.Errorf("id, secret and bucket are required for minio")
	}
	region := c.Region
	if region == "" {
		region = "us-east-1"
	}
	return s3.New(&s3.Config{
		AccessID:         c.ID,
		AccessKey:        c.Secret,
		Region:           region,
		Bucket:           c.Bucket,
		Endpoint:         c.Endpoint,
		S3Endpoint:       c.Endpoint,
		ACL:              aws3.BucketCannedACLPrivate,
		S3ForcePathStyle: true,
	}), nil
}
