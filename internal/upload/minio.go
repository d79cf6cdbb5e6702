package upload

import (
	"bytes"
	"context"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ Store = (*MinioStore)(nil)

// MinioStore keeps documents as objects in one S3 bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(endpoint, accessKey, secretKey string, ssl bool, bucket string) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: ssl,
	})
	if err != nil {
		return nil, err
	}

	return &MinioStore{client: client, bucket: bucket}, nil
}

// EnsureBucket creates the bucket when it is missing.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "MinioStore.EnsureBucket", trace.WithAttributes(
		attribute.String("bucket", s.bucket),
	))
	defer span.End()

	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check bucket")
		return err
	}
	if exists {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "bucket exists")
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make bucket")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "created bucket")
	return nil
}

func (s *MinioStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	ctx, span := tracer.Start(ctx, "MinioStore.Put", trace.WithAttributes(
		attribute.String("bucket", s.bucket),
		attribute.String("key", key),
		attribute.Int("size", len(body)),
	))
	defer span.End()

	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put object")
		return err
	}

	span.SetAttributes(attribute.String("etag", info.ETag))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "put object")
	return nil
}

func (s *MinioStore) Exists(ctx context.Context, key string) (bool, error) {
	ctx, span := tracer.Start(ctx, "MinioStore.Exists", trace.WithAttributes(
		attribute.String("key", key),
	))
	defer span.End()

	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "no such object")
			return false, nil
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to stat object")
		return false, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "found object")
	return true, nil
}

func (s *MinioStore) Location() string {
	return s.bucket
}

func (s *MinioStore) ReadLink(ctx context.Context, key string, ttl time.Duration) (string, error) {
	ctx, span := tracer.Start(ctx, "MinioStore.ReadLink", trace.WithAttributes(
		attribute.String("key", key),
		attribute.String("ttl", ttl.String()),
	))
	defer span.End()

	link, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to presign object url")
		return "", err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return link.String(), nil
}
