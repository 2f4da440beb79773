package s3

import (
	"context"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/persist/blobstore"
)

// Store implements blobstore.BlobStore for S3.
type Store struct {
	client   Client
	bucket   string
	prefix   string
	upload   UploadConfig
	uploader *manager.Uploader
}

// Option configures New.
type Option func(*options)

type options struct {
	prefix     string
	region     string
	endpoint   string
	pathStyle  bool
	upload     UploadConfig
	loadConfig []func(*config.LoadOptions) error
}

// WithPrefix sets the key prefix prepended to all blob names.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithEndpoint points the client at a custom endpoint, e.g. LocalStack.
func WithEndpoint(endpoint string, pathStyle bool) Option {
	return func(o *options) {
		o.endpoint = endpoint
		o.pathStyle = pathStyle
	}
}

// WithUploadConfig overrides the multipart upload settings.
func WithUploadConfig(cfg UploadConfig) Option {
	return func(o *options) { o.upload = cfg }
}

// WithLoadOptions passes extra options to config.LoadDefaultConfig.
func WithLoadOptions(fns ...func(*config.LoadOptions) error) Option {
	return func(o *options) { o.loadConfig = append(o.loadConfig, fns...) }
}

// New loads the default AWS configuration and returns a Store for bucket.
func New(ctx context.Context, bucket string, optFns ...Option) (*Store, error) {
	o := applyOptions(optFns)
	cfg, err := o.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return o.newStore(cfg, bucket), nil
}

// NewWithDynamoDB is like New but commits CURRENT through the DynamoDB
// table. The partition key is "s3://<bucket>/<prefix>".
func NewWithDynamoDB(ctx context.Context, bucket, table string, optFns ...Option) (*DDBCommitStore, error) {
	o := applyOptions(optFns)
	cfg, err := o.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	baseURI := "s3://" + path.Join(bucket, o.prefix)
	return NewDDBCommitStore(o.newStore(cfg, bucket), dynamodb.NewFromConfig(cfg), table, baseURI), nil
}

func applyOptions(optFns []Option) options {
	o := options{upload: DefaultUploadConfig()}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

func (o options) awsConfig(ctx context.Context) (aws.Config, error) {
	loadOpts := o.loadConfig
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	return config.LoadDefaultConfig(ctx, loadOpts...)
}

func (o options) newStore(cfg aws.Config, bucket string) *Store {
	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
		}
		so.UsePathStyle = o.pathStyle
	})

	s := NewStore(client, bucket, o.prefix)
	s.upload = o.upload
	s.uploader = newUploader(client, o.upload)
	return s
}

// NewStore creates a new S3 blob store.
// rootPrefix is prepended to all keys (e.g. "my-db/").
func NewStore(client Client, bucket, rootPrefix string) *Store {
	cfg := DefaultUploadConfig()
	return &Store{
		client:   client,
		bucket:   bucket,
		prefix:   rootPrefix,
		upload:   cfg,
		uploader: newUploader(client, cfg),
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open reads the whole object and returns it as an in-memory blob.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	data, err := getObject(ctx, s.client, s.bucket, s.key(name))
	if err != nil {
		return nil, err
	}
	return blobstore.NewBytesBlob(data), nil
}

// Create starts a streaming multipart upload. The object appears on Close.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return newStreamingWritableBlob(ctx, s.client, s.uploader, s.bucket, s.key(name), s.upload.EnableChecksum), nil
}

// Put uploads a blob in a single request. S3 PUTs are atomic.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	return putObject(ctx, s.client, s.bucket, s.key(name), data, s.upload.EnableChecksum, false)
}

// PutIfNotExists uploads a blob only if the key is free (If-None-Match: *).
func (s *Store) PutIfNotExists(ctx context.Context, name string, data []byte) error {
	return putObject(ctx, s.client, s.bucket, s.key(name), data, s.upload.EnableChecksum, true)
}

// Delete removes a blob.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// List returns the sorted blob names below prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	return listNames(ctx, s.client, s.bucket, s.key(prefix), s.prefix)
}

var (
	_ blobstore.BlobStore         = (*Store)(nil)
	_ blobstore.ConditionalPutter = (*Store)(nil)
)
