package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// s3API is the subset of the S3 client the store uses. *s3.Client satisfies
// it; tests substitute a stub.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

// S3Config carries the settings needed to reach an S3-compatible endpoint
// (MinIO in development).
type S3Config struct {
	User         string
	Password     string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// S3Store implements BlobStore over an S3-compatible service using
// path-style public URLs ({endpoint}/{bucket}/{key}).
type S3Store struct {
	client   s3API
	bucket   string
	endpoint string
}

// NewS3Store builds an S3-backed blob store with static credentials and a
// base-endpoint override.
func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.User,
			c.Password,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client:   client,
		bucket:   c.Bucket,
		endpoint: strings.TrimSuffix(c.BaseEndpoint, "/"),
	}, nil
}

// ObjectKey builds the storage key for one photo of a ticket. A
// record-scoped prefix groups all of a ticket's images; a random uuid leaf
// avoids collisions between concurrent uploads.
func ObjectKey(ticketID int64, ext string) string {
	return fmt.Sprintf("tickets/%d/%s.%s", ticketID, uuid.New(), ext)
}

func (s *S3Store) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) KeyFromURL(url string) (string, error) {
	prefix := s.endpoint + "/" + s.bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("url %q is not addressed to bucket %s", url, s.bucket)
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" {
		return "", fmt.Errorf("url %q has an empty storage key", url)
	}
	return key, nil
}
