package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/persist/blobstore"
	"github.com/hupe1980/persist/blobstore/minio"
	"github.com/hupe1980/persist/blobstore/s3"
	"github.com/hupe1980/persist/byteorder"
	"github.com/hupe1980/persist/identity"
	"github.com/hupe1980/persist/idgen"
	"github.com/hupe1980/persist/resource"
)

// Config is the file form of the Repository options.
type Config struct {
	Pool      PoolConfig      `yaml:"pool"`
	Store     StoreConfig     `yaml:"store"`
	ByteOrder string          `yaml:"byte_order"` // little, big, host
	Resources ResourcesConfig `yaml:"resources"`
	Generator GeneratorConfig `yaml:"generator"`
	Log       LogConfig       `yaml:"log"`

	// Recover restores the generator from the latest checkpoint on Open.
	Recover bool `yaml:"recover"`
	// CheckpointOnClose checkpoints the generator when the Repository closes.
	CheckpointOnClose bool `yaml:"checkpoint_on_close"`
}

// PoolConfig holds pool sizing.
type PoolConfig struct {
	Size       int `yaml:"size"`
	RefillSize int `yaml:"refill_size"`
}

// StoreConfig selects and configures the blob store.
type StoreConfig struct {
	Kind string `yaml:"kind"` // none, memory, local, s3, minio

	// local
	Path string `yaml:"path"`

	// s3, minio
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"`

	// s3
	Region    string `yaml:"region"`
	PathStyle bool   `yaml:"path_style"`
	DDBTable  string `yaml:"ddb_table"`

	// minio
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
}

// ResourcesConfig mirrors resource.Config.
type ResourcesConfig struct {
	MaxInflightBytes int64 `yaml:"max_inflight_bytes"`
	MaxWorkers       int64 `yaml:"max_workers"`
	IOBytesPerSec    int64 `yaml:"io_bytes_per_sec"`
}

// GeneratorConfig holds the identity generator seed.
type GeneratorConfig struct {
	Initial int64 `yaml:"initial"`
	Step    int64 `yaml:"step"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text, none
}

// DefaultConfig returns an in-memory configuration with the default pool sizes.
func DefaultConfig() *Config {
	return &Config{
		Pool: PoolConfig{
			Size:       16,
			RefillSize: 16,
		},
		Store: StoreConfig{
			Kind: "memory",
		},
		ByteOrder: "little",
		Generator: GeneratorConfig{
			Initial: 0,
			Step:    1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "none",
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file yields
// the defaults. PERSIST_MINIO_ACCESS_KEY and PERSIST_MINIO_SECRET_KEY
// override the MinIO credentials.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("persist: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("persist: parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PERSIST_MINIO_ACCESS_KEY"); v != "" {
		c.Store.AccessKey = v
	}
	if v := os.Getenv("PERSIST_MINIO_SECRET_KEY"); v != "" {
		c.Store.SecretKey = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Generator.Step == 0 {
		return fmt.Errorf("persist: config: %w", idgen.ErrZeroStep)
	}
	if _, err := c.byteOrder(); err != nil {
		return err
	}
	if _, err := c.logLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "none", "json", "text":
	default:
		return fmt.Errorf("persist: config: unknown log format %q", c.Log.Format)
	}
	switch strings.ToLower(c.Store.Kind) {
	case "", "none", "memory":
	case "local":
		if c.Store.Path == "" {
			return errors.New("persist: config: local store needs a path")
		}
	case "s3", "minio":
		if c.Store.Bucket == "" {
			return fmt.Errorf("persist: config: %s store needs a bucket", c.Store.Kind)
		}
		if c.Store.Kind == "minio" && c.Store.Endpoint == "" {
			return errors.New("persist: config: minio store needs an endpoint")
		}
	default:
		return fmt.Errorf("persist: config: unknown store kind %q", c.Store.Kind)
	}
	return nil
}

func (c *Config) byteOrder() (byteorder.Descriptor, error) {
	switch strings.ToLower(c.ByteOrder) {
	case "", "little", "le":
		return byteorder.LittleEndian(), nil
	case "big", "be":
		return byteorder.BigEndian(), nil
	case "host", "native":
		return byteorder.Host(), nil
	default:
		return byteorder.Descriptor{}, fmt.Errorf("persist: config: unknown byte order %q", c.ByteOrder)
	}
}

func (c *Config) logLevel() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("persist: config: %w", err)
	}
	return level, nil
}

// NewGenerator returns a generator seeded from the configuration.
func (c *Config) NewGenerator() (*idgen.Generator, error) {
	return idgen.New(identity.ID(c.Generator.Initial), identity.ID(c.Generator.Step))
}

// OpenStore builds the configured blob store. It returns nil for kind "none".
func (c *Config) OpenStore(ctx context.Context) (blobstore.BlobStore, error) {
	sc := c.Store
	switch strings.ToLower(sc.Kind) {
	case "", "none":
		return nil, nil
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "local":
		return blobstore.NewLocalStore(sc.Path), nil
	case "s3":
		opts := []s3.Option{s3.WithPrefix(sc.Prefix)}
		if sc.Region != "" {
			opts = append(opts, s3.WithRegion(sc.Region))
		}
		if sc.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(sc.Endpoint, sc.PathStyle))
		}
		if sc.DDBTable != "" {
			st, err := s3.NewWithDynamoDB(ctx, sc.Bucket, sc.DDBTable, opts...)
			if err != nil {
				return nil, fmt.Errorf("persist: open s3 store: %w", err)
			}
			return st, nil
		}
		st, err := s3.New(ctx, sc.Bucket, opts...)
		if err != nil {
			return nil, fmt.Errorf("persist: open s3 store: %w", err)
		}
		return st, nil
	case "minio":
		st, err := minio.Dial(ctx, sc.Endpoint, sc.AccessKey, sc.SecretKey, sc.Bucket, sc.Prefix, sc.Secure)
		if err != nil {
			return nil, fmt.Errorf("persist: open minio store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("persist: config: unknown store kind %q", sc.Kind)
	}
}

// Options converts the configuration to Open options. store is the result
// of OpenStore and may be nil.
func (c *Config) Options(store blobstore.BlobStore) ([]Option, error) {
	order, err := c.byteOrder()
	if err != nil {
		return nil, err
	}
	level, err := c.logLevel()
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithPoolSize(c.Pool.Size),
		WithRefillSize(c.Pool.RefillSize),
		WithByteOrder(order),
	}

	switch strings.ToLower(c.Log.Format) {
	case "json":
		opts = append(opts, WithLogger(NewJSONLogger(level)))
	case "text":
		opts = append(opts, WithLogger(NewTextLogger(level)))
	}

	if r := c.Resources; r != (ResourcesConfig{}) {
		opts = append(opts, WithResources(resource.Config{
			MaxInflightBytes: r.MaxInflightBytes,
			MaxWorkers:       r.MaxWorkers,
			IOBytesPerSec:    r.IOBytesPerSec,
		}))
	}

	if store != nil {
		opts = append(opts, WithStore(store))
		if c.Recover {
			opts = append(opts, WithRecover())
		}
		if c.CheckpointOnClose {
			opts = append(opts, WithCheckpointOnClose())
		}
	}
	return opts, nil
}
