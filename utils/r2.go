// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mpa-platform/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v4"
)

// Storage stores uploaded files and returns their public URL.
type Storage interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// R2Storage writes objects to Cloudflare R2 or any S3-compatible endpoint.
type R2Storage struct {
	client     *s3.Client
	bucket     string
	cdnBaseURL string
	maxRetries uint64
	log        *slog.Logger
}

// NewStorage returns R2 storage when a remote endpoint is configured and
// local disk storage otherwise.
func NewStorage(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (Storage, error) {
	if !cfg.Remote() {
		log.Warn("no object storage configured, saving uploads to local disk", "dir", cfg.LocalDir)
		return NewLocalStorage(cfg.LocalDir, "/uploads")
	}
	return NewR2Storage(ctx, cfg, log)
}

func NewR2Storage(ctx context.Context, cfg config.StorageConfig, log *slog.Logger) (*R2Storage, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	cdnBaseURL := strings.TrimRight(cfg.CDNBaseURL, "/")
	if cdnBaseURL == "" {
		cdnBaseURL = strings.TrimRight(endpoint, "/") + "/" + cfg.Bucket
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &R2Storage{
		client:     client,
		bucket:     cfg.Bucket,
		cdnBaseURL: cdnBaseURL,
		maxRetries: cfg.MaxRetries,
		log:        log.With("component", "storage"),
	}, nil
}

// Upload puts the object with exponential backoff and returns its CDN URL.
func (s *R2Storage) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	attempt := 0
	op := func() error {
		attempt++
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			s.log.Warn("upload attempt failed", "key", key, "attempt", attempt, "error", err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.cdnBaseURL, key), nil
}
