package s3

import (
	"fmt"
	"strings"
)

// ExpressStore is a Store on an S3 Express One Zone directory bucket.
//
// Directory buckets give single-digit millisecond latency in one
// Availability Zone and support conditional writes, so PutIfNotExists
// is atomic there as well.
type ExpressStore struct {
	*Store
}

// NewExpressStore creates a store on a directory bucket. The bucket name
// must end with "--x-s3".
func NewExpressStore(client Client, bucket, rootPrefix string) (*ExpressStore, error) {
	if !IsDirectoryBucket(bucket) {
		return nil, fmt.Errorf("s3: %q is not a directory bucket", bucket)
	}
	s := NewStore(client, bucket, rootPrefix)
	// Directory buckets compute CRC32C server-side by default.
	s.upload.EnableChecksum = false
	return &ExpressStore{Store: s}, nil
}

// IsDirectoryBucket reports whether bucket follows the directory bucket naming scheme.
func IsDirectoryBucket(bucket string) bool {
	return strings.HasSuffix(bucket, "--x-s3")
}
