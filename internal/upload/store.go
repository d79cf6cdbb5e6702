package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quillfight/contest-api/internal/hash"
)

var tracer = otel.Tracer("github.com/quillfight/contest-api/internal/upload")

const ContentTypeJSON = "application/json"

//go:generate mockgen -destination ./mock/mock.go -package mock . Store

// Store holds published documents. Documents are small, so they are passed
// around whole.
type Store interface {
	// Put creates or overwrites the document at key
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Not authoritative, may always return false
	Exists(ctx context.Context, key string) (bool, error)
	// Bucket or container the documents end up in, for the audit log
	Location() string
	// ReadLink returns an anonymous download URL that stops working after ttl
	ReadLink(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// JSON puts v under key and returns the sha256 of the stored document.
func JSON(ctx context.Context, s Store, key string, v any) (string, error) {
	ctx, span := tracer.Start(ctx, "upload.JSON", trace.WithAttributes(
		attribute.String("key", key),
	))
	defer span.End()

	body, err := json.Marshal(v)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal document")
		return "", fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := s.Put(ctx, key, body, ContentTypeJSON); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put document")
		return "", err
	}

	sum := hash.Buffer(body)
	span.SetAttributes(attribute.String("sha256", sum), attribute.Int("size", len(body)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "stored document")
	return sum, nil
}
