package protsplit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	yaml "gopkg.in/yaml.v3"

	"github.com/hupe1980/protsplit/blobstore"
	miniostore "github.com/hupe1980/protsplit/blobstore/minio"
	s3store "github.com/hupe1980/protsplit/blobstore/s3"
	"github.com/hupe1980/protsplit/codec"
	"github.com/hupe1980/protsplit/split"
)

// ErrConfigNotFound is returned by LoadConfig when the file does not exist.
var ErrConfigNotFound = errors.New("config file is not found")

// Storage backends.
const (
	BackendLocal  = "local"
	BackendMemory = "memory"
	BackendS3     = "s3"
	BackendMinIO  = "minio"
)

// Config is the file form of the engine settings.
//
//	test_size: 0.2
//	min_test_positives: 5
//	max_attempts: 10
//	codec: zstd
//	log:
//	  level: debug
//	  format: json
//	store:
//	  backend: s3
//	  bucket: my-bucket
//	  prefix: splits/
//	  lock_table: protsplit-records
type Config struct {
	TestSize         float64     `yaml:"test_size"`
	MinTestPositives *int        `yaml:"min_test_positives,omitempty"`
	MaxAttempts      int         `yaml:"max_attempts"`
	Codec            string      `yaml:"codec"`
	Log              LogConfig   `yaml:"log"`
	Store            StoreConfig `yaml:"store"`
}

// LogConfig selects the logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string `yaml:"level"`
	// Format is text or json. Empty means text.
	Format string `yaml:"format"`
}

// StoreConfig selects and configures the blob store holding records.
type StoreConfig struct {
	Backend string `yaml:"backend"`

	// Root is the directory of the local backend. Empty means split paths
	// are used as file paths.
	Root string `yaml:"root"`

	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`

	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`

	// LockTable names a DynamoDB table guarding s3 record writes. Without it
	// write-once is enforced by check-then-put.
	LockTable string `yaml:"lock_table"`

	// Cache keeps read records in memory.
	Cache bool `yaml:"cache"`

	// Throttling of store requests. Zero is unlimited.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BytesPerSecond    int64   `yaml:"bytes_per_second"`
	MaxInFlight       int64   `yaml:"max_in_flight"`
}

func (sc *StoreConfig) limits() blobstore.Limits {
	return blobstore.Limits{
		RequestsPerSecond: sc.RequestsPerSecond,
		BytesPerSecond:    sc.BytesPerSecond,
		MaxInFlight:       sc.MaxInFlight,
	}
}

// LoadConfig loads a config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrConfigNotFound, path)
		}
		return nil, err
	}
	return ParseConfig(buf)
}

// ParseConfig parses and verifies a YAML config. Missing fields take their
// defaults.
func ParseConfig(buf []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(buf, c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.TestSize == 0 {
		c.TestSize = split.DefaultTestSize
	}
	if c.MinTestPositives == nil {
		n := split.DefaultMinTestPositives
		c.MinTestPositives = &n
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = split.DefaultMaxAttempts
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendLocal
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return c, nil
}

// Verify Config
//
// # Return
//
// nil if it is valid. Otherwise, ErrInvalidConfig error.
func (c *Config) Verify() error {
	if _, err := split.NSplits(c.TestSize); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.MinTestPositives != nil && *c.MinTestPositives < 0 {
		return fmt.Errorf("%w: min_test_positives is negative: %d", ErrInvalidConfig, *c.MinTestPositives)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1: %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if _, ok := codec.ByName(c.Codec); !ok {
		return fmt.Errorf("%w: unknown codec: %s", ErrInvalidConfig, c.Codec)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format: %s", ErrInvalidConfig, c.Log.Format)
	}
	return c.Store.Verify()
}

// Verify checks that the backend is known and has what it needs.
func (sc *StoreConfig) Verify() error {
	switch sc.Backend {
	case "", BackendLocal, BackendMemory:
	case BackendS3:
		if sc.Bucket == "" {
			return fmt.Errorf("%w: store.bucket is required for s3", ErrInvalidConfig)
		}
	case BackendMinIO:
		if sc.Bucket == "" || sc.Endpoint == "" {
			return fmt.Errorf("%w: store.bucket and store.endpoint are required for minio", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store backend: %s", ErrInvalidConfig, sc.Backend)
	}
	if sc.RequestsPerSecond < 0 || sc.BytesPerSecond < 0 || sc.MaxInFlight < 0 {
		return fmt.Errorf("%w: store limits must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Options converts the config into engine options.
func (c *Config) Options() []Option {
	opts := []Option{
		WithTestSize(c.TestSize),
		WithMaxAttempts(c.MaxAttempts),
	}
	if c.MinTestPositives != nil {
		opts = append(opts, WithMinTestPositives(*c.MinTestPositives))
	}
	if cd, ok := codec.ByName(c.Codec); ok {
		opts = append(opts, WithCodec(cd))
	}
	return append(opts, WithLogger(c.Logger()))
}

// Logger builds the logger described by the log section.
func (c *Config) Logger() *Logger {
	level, _ := parseLevel(c.Log.Level)
	if c.Log.Format == "json" {
		return NewJSONLogger(level)
	}
	return NewTextLogger(level)
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("%w: unknown log level: %s", ErrInvalidConfig, s)
	}
	return level, nil
}

// OpenStore creates the blob store described by sc.
func OpenStore(ctx context.Context, sc StoreConfig) (blobstore.BlobStore, error) {
	if err := sc.Verify(); err != nil {
		return nil, err
	}

	var store blobstore.BlobStore
	switch sc.Backend {
	case "", BackendLocal:
		store = blobstore.NewLocalStore(sc.Root)
	case BackendMemory:
		store = blobstore.NewMemoryStore()
	case BackendS3:
		s, err := openS3(ctx, sc)
		if err != nil {
			return nil, err
		}
		store = s
	case BackendMinIO:
		client, err := minio.New(sc.Endpoint, &minio.Options{
			Creds:  miniocreds.NewStaticV4(sc.AccessKey, sc.SecretKey, ""),
			Secure: sc.UseSSL,
			Region: sc.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		store = miniostore.NewStore(client, sc.Bucket, sc.Prefix)
	}

	if l := sc.limits(); l != (blobstore.Limits{}) {
		store = blobstore.NewThrottledStore(store, l)
	}
	if sc.Cache {
		store = blobstore.NewCachingStore(store)
	}
	return store, nil
}

func openS3(ctx context.Context, sc StoreConfig) (blobstore.BlobStore, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if sc.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(sc.Region))
	}
	if sc.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(sc.AccessKey, sc.SecretKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if sc.Endpoint != "" {
			o.BaseEndpoint = aws.String(sc.Endpoint)
			o.UsePathStyle = true
		}
	})
	store := s3store.NewStore(client, sc.Bucket, sc.Prefix)
	if sc.LockTable == "" {
		return store, nil
	}
	baseURI := "s3://" + sc.Bucket + "/" + strings.TrimPrefix(sc.Prefix, "/")
	return s3store.NewWriteOnceStore(store, dynamodb.NewFromConfig(cfg), sc.LockTable, baseURI), nil
}
