// Package s3 provides a connector for AWS S3 and S3-compatible object stores.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/iatoolkit/ingestd/internal/connectors/confmap"
	"github.com/iatoolkit/ingestd/internal/core/domain"
	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
)

// Type is the connector type identifier.
const Type = "s3"

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

// Verify interface compliance.
var _ driven.Connector = (*Connector)(nil)

// API is the subset of the S3 client used by the connector.
type API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config holds S3 connector settings.
type Config struct {
	Bucket string

	// Prefix is the key prefix to list, already joined with any folder.
	Prefix string

	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// ParseConfig reads a Config from a connector configuration map.
// The prefix comes from "prefix" or "path"; "folder" is appended to it.
func ParseConfig(m map[string]any) (Config, error) {
	cfg := Config{
		Bucket:          confmap.String(m, "bucket"),
		Prefix:          confmap.JoinKey(confmap.String(m, domain.ConfigKeyPrefix, domain.ConfigKeyPath), confmap.String(m, domain.ConfigKeyFolder)),
		Region:          confmap.String(m, "region"),
		Endpoint:        confmap.String(m, "endpoint", "endpoint_url"),
		AccessKeyID:     confmap.String(m, "access_key_id", "access_key"),
		SecretAccessKey: confmap.String(m, "secret_access_key", "secret_key"),
		PathStyle:       confmap.Bool(m, "path_style"),
	}
	if cfg.Bucket == "" {
		return Config{}, fmt.Errorf("%w: s3 connector requires a bucket", domain.ErrConfig)
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	return cfg, nil
}

// Connector lists and reads objects below a prefix of one bucket.
type Connector struct {
	client API
	bucket string
	prefix string
}

// New creates a connector with a client built from cfg. Static credentials
// are used when both keys are set; otherwise the default AWS chain applies.
func New(ctx context.Context, cfg Config) (*Connector, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a connector around an existing client.
func NewWithClient(client API, cfg Config) *Connector {
	return &Connector{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return Type
}

// ListFiles lists every object below the prefix, following continuation
// tokens. Directory markers are skipped.
func (c *Connector) ListFiles(ctx context.Context) ([]domain.FileRef, error) {
	var files []domain.FileRef
	var token *string

	for {
		out, err := c.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(c.bucket),
			Prefix:            aws.String(confmap.Prefix(c.prefix)),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", c.bucket, c.prefix, err)
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			files = append(files, domain.FileRef{
				Path:    key,
				Name:    path.Base(key),
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}

		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	return files, nil
}

// ReadFile downloads one object.
func (c *Connector) ReadFile(ctx context.Context, key string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("s3://%s/%s: %w", c.bucket, key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", c.bucket, key, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", c.bucket, key, err)
	}
	return content, nil
}

// Close is a no-op; the client holds no connections that need releasing.
func (c *Connector) Close() error {
	return nil
}
