package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmarkin/bookstore/internal/config"
)

// ImageStore keeps book cover images in an S3-compatible bucket (MinIO in
// dev). A nil store disables uploads; books are then saved without images.
type ImageStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func New(ctx context.Context, cfg *config.Config) (*ImageStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3_REGION),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3_ACCESS_KEY,
			cfg.S3_SECRET_KEY,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3_ENDPOINT != "" {
			o.BaseEndpoint = aws.String(cfg.S3_ENDPOINT)
		}
		o.UsePathStyle = true
	})

	return &ImageStore{
		client:    client,
		bucket:    cfg.S3_BUCKET,
		publicURL: strings.TrimRight(cfg.S3_PUBLIC_URL, "/"),
	}, nil
}

func storageKey(filename string) string {
	d := time.Now()
	return fmt.Sprintf("covers/%d/%02d/%s%s", d.Year(), d.Month(), uuid.New(), path.Ext(filename))
}

// Upload stores the image and returns its public URL and storage key.
func (s *ImageStore) Upload(ctx context.Context, filename, contentType string, body io.Reader) (url, key string, err error) {
	key = storageKey(filename)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        body,
		ContentType: &contentType,
	})
	if err != nil {
		return "", "", fmt.Errorf("put object: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key), key, nil
}

// Delete removes a stored image. Callers treat failures as best-effort: a
// replaced cover that cannot be deleted is logged and orphaned.
func (s *ImageStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
