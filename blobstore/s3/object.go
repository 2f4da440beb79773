package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/hupe1980/persist/blobstore"
)

// MaxObjectSize bounds a single read. Records and checkpoints are read whole,
// so anything larger is not something this store wrote.
const MaxObjectSize = 64 << 20

var (
	// ErrObjectTooLarge is returned by Open for objects above MaxObjectSize.
	ErrObjectTooLarge = errors.New("s3: object too large")
	// ErrChecksumMismatch is returned by Open when the body does not match
	// the CRC32C S3 stored with it.
	ErrChecksumMismatch = errors.New("s3: checksum mismatch")
)

// getObject reads key in one request. Objects uploaded with a full-object
// CRC32C are verified against it.
func getObject(ctx context.Context, client Client, bucket, key string) ([]byte, error) {
	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket:       aws.String(bucket),
		Key:          aws.String(key),
		ChecksumMode: types.ChecksumModeEnabled,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if n := aws.ToInt64(resp.ContentLength); n > MaxObjectSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrObjectTooLarge, key, n)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxObjectSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxObjectSize {
		return nil, fmt.Errorf("%w: %s", ErrObjectTooLarge, key)
	}

	// Multipart uploads report a checksum of checksums ("<b64>-<parts>").
	if sum := aws.ToString(resp.ChecksumCRC32C); sum != "" && !strings.Contains(sum, "-") {
		if sum != computeCRC32C(data) {
			return nil, fmt.Errorf("%w: %s", ErrChecksumMismatch, key)
		}
	}
	return data, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// listNames returns the blob names below keyPrefix, relative to root.
func listNames(ctx context.Context, client Client, bucket, keyPrefix, root string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(keyPrefix),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			name := aws.ToString(obj.Key)
			if rest, ok := strings.CutPrefix(name, root); ok && root != "" {
				name = strings.TrimPrefix(rest, "/")
			}
			if name != "" {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}
