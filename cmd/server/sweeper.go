package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/quillfight/contest-api/internal/logger"
)

// expirer closes out open contests whose end date has passed.
type expirer interface {
	AdvanceExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

type sweeper struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// startSweeper runs one pass immediately and then every interval until ctx
// ends or Stop is called.
func startSweeper(ctx context.Context, svc expirer, interval time.Duration) *sweeper {
	ctx, cancel := context.WithCancel(ctx)
	s := &sweeper{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			sweep(ctx, svc)

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return s
}

func sweep(ctx context.Context, svc expirer) {
	ctx, span := tracer.Start(ctx, "sweep")
	defer span.End()

	advanced, err := svc.AdvanceExpired(ctx, time.Now().UTC())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sweep failed")
		logger.Logger.ErrorContext(ctx, "failed to advance expired contests", "error", err)
		return
	}

	span.SetAttributes(attribute.Int("advanced", len(advanced)))
	if len(advanced) > 0 {
		logger.Logger.InfoContext(ctx, "advanced expired contests", "count", len(advanced))
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
}

// Stop cancels the loop and waits for a running pass to finish.
func (s *sweeper) Stop(ctx context.Context) error {
	s.cancel()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
