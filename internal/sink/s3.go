package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/huangsam/dorametrics/internal/awsconf"
	"github.com/huangsam/dorametrics/internal/contract"
)

// ObjectPutter is the subset of the S3 client used by S3Sink.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink stores reports as JSON objects under <prefix>/<key>.
type S3Sink struct {
	client ObjectPutter
	bucket string
	prefix string
}

var _ contract.ReportSink = &S3Sink{}

// NewS3Sink wraps an existing client.
func NewS3Sink(client ObjectPutter, bucket, prefix string) (*S3Sink, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("s3 bucket is required")
	}
	return &S3Sink{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

// NewS3SinkFromOptions builds the S3 client. Path-style addressing is needed for LocalStack and MinIO.
func NewS3SinkFromOptions(ctx context.Context, opts awsconf.Options, bucket, prefix string, usePathStyle bool) (*S3Sink, error) {
	cfg, err := awsconf.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = usePathStyle
	})
	return NewS3Sink(client, bucket, prefix)
}

// ObjectKey returns the full object key for a report key.
func (s *S3Sink) ObjectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// Deliver implements contract.ReportSink.
func (s *S3Sink) Deliver(ctx context.Context, key string, payload []byte) error {
	objectKey := s.ObjectKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object %s failed: %w", objectKey, err)
	}
	contract.Logger().Debug().Str("bucket", s.bucket).Str("key", objectKey).Msg("Uploaded report")
	return nil
}
