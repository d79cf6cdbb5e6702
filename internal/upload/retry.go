package upload

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ Store = (*RetryStore)(nil)

// RetryStore retries every call of the wrapped store with a fresh backoff.
type RetryStore struct {
	store   Store
	backoff func() retry.Backoff
}

func NewRetryStore(store Store, backoff func() retry.Backoff) *RetryStore {
	if backoff == nil {
		backoff = func() retry.Backoff {
			return retry.WithMaxDuration(2*time.Minute, retry.NewExponential(time.Second))
		}
	}
	return &RetryStore{store: store, backoff: backoff}
}

func attempt[T any](ctx context.Context, r *RetryStore, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "RetryStore."+op)
	defer span.End()

	var (
		out   T
		tries int
	)
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		tries++
		var err error
		out, err = fn(ctx)
		if err != nil {
			span.AddEvent("attempt_failed", trace.WithAttributes(
				attribute.Int("try", tries),
				attribute.String("error", err.Error()),
			))
			return retry.RetryableError(err)
		}
		return nil
	})
	span.SetAttributes(attribute.Int("tries", tries))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		return out, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return out, nil
}

func (r *RetryStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := attempt(ctx, r, "Put", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.store.Put(ctx, key, body, contentType)
	})
	return err
}

func (r *RetryStore) Exists(ctx context.Context, key string) (bool, error) {
	return attempt(ctx, r, "Exists", func(ctx context.Context) (bool, error) {
		return r.store.Exists(ctx, key)
	})
}

func (r *RetryStore) Location() string {
	return r.store.Location()
}

func (r *RetryStore) ReadLink(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return attempt(ctx, r, "ReadLink", func(ctx context.Context) (string, error) {
		return r.store.ReadLink(ctx, key, ttl)
	})
}
