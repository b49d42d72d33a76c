package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes to an S3 bucket that allows public reads.
type S3Store struct {
	client     S3API
	bucket     string
	publicBase string
}

// NewS3Store creates a store for bucket. publicBase overrides the default
// https://{bucket}.s3.amazonaws.com URL prefix, e.g. for a CDN.
func NewS3Store(client S3API, bucket, publicBase string) *S3Store {
	return &S3Store{client: client, bucket: bucket, publicBase: strings.TrimRight(publicBase, "/")}
}

func (s *S3Store) Upload(ctx context.Context, path, contentType string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (s *S3Store) PublicURL(path string) string {
	if s.publicBase != "" {
		return s.publicBase + "/" + path
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, path)
}
