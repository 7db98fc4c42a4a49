package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds S3/MinIO configuration
type S3Config struct {
	Endpoint        string // e.g., "http://localhost:9000" for MinIO
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	PublicURL       string        // public base URL; empty means presign instead
	PresignTTL      time.Duration // lifetime of presigned URLs
}

// S3Storage resolves stored media keys into URLs that platform APIs can
// fetch during publishing. Uploads happen elsewhere; this side only reads.
type S3Storage struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	publicURL  string
	presignTTL time.Duration
}

// NewS3Storage creates a new S3 storage client
func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		UsePathStyle: true, // Required for MinIO
	})

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &S3Storage{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		publicURL:  strings.TrimRight(cfg.PublicURL, "/"),
		presignTTL: ttl,
	}, nil
}

// Resolve turns a media reference into a fetchable URL. Absolute URLs pass
// through untouched; keys resolve against the public base URL when the
// bucket is public, or get a presigned GET otherwise.
func (s *S3Storage) Resolve(ctx context.Context, key string) (string, error) {
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key, nil
	}

	key = strings.TrimLeft(key, "/")

	if s.publicURL != "" {
		return s.publicURL + "/" + key, nil
	}

	presigned, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("presigning media url: %w", err)
	}

	return presigned.URL, nil
}
