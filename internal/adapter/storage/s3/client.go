// Package s3 adapts an S3-compatible object store (AWS S3, MinIO, Garage,
// Cloudflare R2) to the ports.ObjectStore interface.
package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds the connection settings for an S3-compatible endpoint.
type Config struct {
	// Endpoint overrides the AWS endpoint, e.g. http://localhost:9000 for
	// MinIO. Empty means real AWS S3.
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// UsePathStyle addresses buckets as path segments instead of
	// subdomains. Required by most self-hosted S3 implementations.
	UsePathStyle bool
}

func (cfg *Config) applyDefaults() {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
}

func (cfg Config) validate() error {
	if cfg.Bucket == "" {
		return fmt.Errorf("s3: bucket is required")
	}
	return nil
}

// NewClient builds an S3 client from the config. Static credentials are
// used when provided; otherwise the SDK's default chain applies.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}
