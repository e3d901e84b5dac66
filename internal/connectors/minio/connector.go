// Package minio provides a connector for MinIO object storage.
package minio

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/iatoolkit/ingestd/internal/connectors/confmap"
	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
)

// Type is the connector type identifier.
const Type = "minio"

// Verify interface compliance.
var _ driven.Connector = (*Connector)(nil)

// API is the subset of MinIO operations used by the connector.
type API interface {
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Config holds MinIO connector settings.
type Config struct {
	Endpoint        string
	Bucket          string
	Prefix          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// ParseConfig reads a Config from a connector configuration map.
func ParseConfig(m map[string]any) (Config, error) {
	cfg := Config{
		Endpoint:        confmap.String(m, "endpoint"),
		Bucket:          confmap.String(m, "bucket"),
		Prefix:          confmap.JoinKey(confmap.String(m, domain.ConfigKeyPrefix, domain.ConfigKeyPath), confmap.String(m, domain.ConfigKeyFolder)),
		Region:          confmap.String(m, "region"),
		AccessKeyID:     confmap.String(m, "access_key_id", "access_key"),
		SecretAccessKey: confmap.String(m, "secret_access_key", "secret_key"),
		UseSSL:          confmap.Bool(m, "use_ssl"),
	}
	switch {
	case cfg.Endpoint == "":
		return Config{}, fmt.Errorf("%w: minio connector requires an endpoint", domain.ErrConfig)
	case cfg.Bucket == "":
		return Config{}, fmt.Errorf("%w: minio connector requires a bucket", domain.ErrConfig)
	}
	// minio-go expects host:port without a scheme.
	switch {
	case strings.HasPrefix(cfg.Endpoint, "https://"):
		cfg.Endpoint = strings.TrimPrefix(cfg.Endpoint, "https://")
		cfg.UseSSL = true
	case strings.HasPrefix(cfg.Endpoint, "http://"):
		cfg.Endpoint = strings.TrimPrefix(cfg.Endpoint, "http://")
	}
	return cfg, nil
}

// client adapts *minio.Client to API.
type client struct {
	*minio.Client
}

func (c client) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return c.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
}

// Connector lists and reads objects below a prefix of one bucket.
type Connector struct {
	api    API
	bucket string
	prefix string
}

// New creates a connector with static credentials.
func New(cfg Config) (*Connector, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return NewWithAPI(client{mc}, cfg), nil
}

// NewWithAPI creates a connector around an existing API implementation.
func NewWithAPI(api API, cfg Config) *Connector {
	return &Connector{api: api, bucket: cfg.Bucket, prefix: cfg.Prefix}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return Type
}

// ListFiles lists every object below the prefix recursively.
func (c *Connector) ListFiles(ctx context.Context) ([]domain.FileRef, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := c.api.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    confmap.Prefix(c.prefix),
		Recursive: true,
	})

	var files []domain.FileRef
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", c.bucket, c.prefix, obj.Err)
		}
		if obj.Key == "" || strings.HasSuffix(obj.Key, "/") {
			continue
		}
		files = append(files, domain.FileRef{
			Path:    obj.Key,
			Name:    path.Base(obj.Key),
			Size:    obj.Size,
			ModTime: obj.LastModified,
		})
	}
	return files, nil
}

// ReadFile downloads one object.
func (c *Connector) ReadFile(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.api.Open(ctx, c.bucket, key)
	if err != nil {
		return nil, c.wrap(key, err)
	}
	defer obj.Close()

	content, err := io.ReadAll(obj)
	if err != nil {
		return nil, c.wrap(key, err)
	}
	return content, nil
}

func (c *Connector) wrap(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%s/%s: %w", c.bucket, key, domain.ErrNotFound)
	}
	return fmt.Errorf("get %s/%s: %w", c.bucket, key, err)
}

// Close is a no-op.
func (c *Connector) Close() error {
	return nil
}
