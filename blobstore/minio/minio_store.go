package minio

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/hupe1980/persist/blobstore"
	"github.com/hupe1980/persist/internal/hash"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MaxObjectSize bounds a single read. Records and checkpoints are read whole.
const MaxObjectSize = 64 << 20

var (
	// ErrObjectTooLarge is returned by Open for objects above MaxObjectSize.
	ErrObjectTooLarge = errors.New("minio: object too large")
	// ErrChecksumMismatch is returned by Open when the body does not match
	// the CRC32C stored with it.
	ErrChecksumMismatch = errors.New("minio: checksum mismatch")
)

// Store implements blobstore.BlobStore for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore creates a store in bucket. rootPrefix is prepended to all keys.
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

// Dial connects to endpoint with static credentials and makes sure bucket exists.
func Dial(ctx context.Context, endpoint, accessKey, secretKey, bucket, rootPrefix string, secure bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return NewStore(client, bucket, rootPrefix), nil
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open reads the whole object and returns it as an in-memory blob.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{Checksum: true})
	if err != nil {
		return nil, mapError(err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, mapError(err)
	}
	if info.Size > MaxObjectSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrObjectTooLarge, key, info.Size)
	}

	data, err := io.ReadAll(io.LimitReader(obj, MaxObjectSize+1))
	if err != nil {
		return nil, mapError(err)
	}
	if len(data) > MaxObjectSize {
		return nil, fmt.Errorf("%w: %s", ErrObjectTooLarge, key)
	}
	if err := verifyCRC32C(data, info.ChecksumCRC32C); err != nil {
		return nil, fmt.Errorf("%w: %s", err, key)
	}
	return blobstore.NewBytesBlob(data), nil
}

// Put writes a blob in a single request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	return s.put(ctx, name, data, putOptions())
}

// PutIfNotExists writes a blob only if name is free. It relies on the
// server honoring If-None-Match on PUT.
func (s *Store) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	opts := putOptions()
	opts.SetMatchETagExcept("*")
	err := s.put(ctx, name, data, opts)
	if isPreconditionFailed(err) {
		return blobstore.ErrExists
	}
	return err
}

func (s *Store) put(ctx context.Context, name string, data []byte, opts minio.PutObjectOptions) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), opts)
	return err
}

func putOptions() minio.PutObjectOptions {
	return minio.PutObjectOptions{
		AutoChecksum:     minio.ChecksumCRC32C,
		DisableMultipart: true,
	}
}

// Create buffers writes and uploads them with Put on Close.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return &bufferedBlob{put: func(data []byte) error { return s.Put(ctx, name, data) }}, nil
}

// Delete removes a blob.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns all blob names with the given prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name := relativeName(obj.Key, s.prefix); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// relativeName strips the root prefix from key.
func relativeName(key, root string) string {
	if rest, ok := strings.CutPrefix(key, root); ok && root != "" {
		return strings.TrimPrefix(rest, "/")
	}
	return key
}

// verifyCRC32C checks data against a base64 CRC32C as reported by the
// server. Empty and multipart ("<b64>-<parts>") checksums are skipped.
func verifyCRC32C(data []byte, sum string) error {
	if sum == "" || strings.Contains(sum, "-") {
		return nil
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], hash.CRC32C(data))
	if base64.StdEncoding.EncodeToString(b[:]) != sum {
		return ErrChecksumMismatch
	}
	return nil
}

func mapError(err error) error {
	if isNotFound(err) {
		return blobstore.ErrNotFound
	}
	return err
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case minio.NoSuchKey, "NotFound":
		return true
	}
	return false
}

func isPreconditionFailed(err error) bool {
	return err != nil && minio.ToErrorResponse(err).Code == minio.PreconditionFailed
}

// bufferedBlob collects a record in memory until Close.
type bufferedBlob struct {
	buf    bytes.Buffer
	put    func([]byte) error
	closed bool
}

func (b *bufferedBlob) Write(p []byte) (int, error) {
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	if b.buf.Len()+len(p) > MaxObjectSize {
		return 0, ErrObjectTooLarge
	}
	return b.buf.Write(p)
}

func (b *bufferedBlob) Close() error {
	if b.closed {
		return errors.New("minio: blob already closed")
	}
	b.closed = true
	return b.put(b.buf.Bytes())
}

func (b *bufferedBlob) Sync() error {
	return nil
}

var (
	_ blobstore.BlobStore         = (*Store)(nil)
	_ blobstore.ConditionalPutter = (*Store)(nil)
)
