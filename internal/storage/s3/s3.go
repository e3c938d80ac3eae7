// Package s3 provides an S3-backed avatar store. A custom base endpoint
// allows pointing it at MinIO in development.
package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/keelworks/account-service/internal/storage"
)

// Config holds S3 connection settings.
type Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// BaseEndpoint overrides the AWS endpoint (e.g. a MinIO address).
	// Empty means the standard AWS endpoint.
	BaseEndpoint string
	// PublicBaseURL is the URL prefix under which uploaded objects are
	// publicly reachable.
	PublicBaseURL string
}

// Storage implements storage.Storage on top of the AWS S3 API.
type Storage struct {
	client *s3.Client
	bucket string
	public string
}

// New creates an S3 storage client and verifies nothing; the first call
// surfaces connectivity problems.
func New(ctx context.Context, cfg Config) (*Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &Storage{
		client: client,
		bucket: cfg.Bucket,
		public: cfg.PublicBaseURL,
	}, nil
}

// Upload stores the object and returns its key and public URL.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(input.Key),
		Body:          input.Data,
		ContentType:   aws.String(input.ContentType),
		ContentLength: aws.Int64(input.Size),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", input.Key, err)
	}

	return &storage.UploadResult{
		Key: input.Key,
		URL: fmt.Sprintf("%s/%s", s.public, input.Key),
	}, nil
}

// Delete removes the object with the given key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
