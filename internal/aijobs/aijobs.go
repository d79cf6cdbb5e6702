// Package aijobs puts AI judge and AI writer jobs on the pipeline queue.
package aijobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/queue"
	"github.com/quillfight/contest-api/internal/types"
)

var tracer = otel.Tracer("github.com/quillfight/contest-api/internal/aijobs")

const messageVersion = "1"

// Message is what the pipeline reads off the queue.
type Message struct {
	Version    string          `json:"version"`
	Job        contest.Job     `json:"job"`
	EnqueuedAt types.UnixMilli `json:"enqueued_at"`
	// W3C trace context of the request that triggered the job
	Trace map[string]string `json:"trace,omitempty"`
}

type Dispatcher struct {
	queue queue.Queuer
	Now   func() time.Time
}

var _ contest.Dispatcher = (*Dispatcher)(nil)

func NewDispatcher(q queue.Queuer) *Dispatcher {
	return &Dispatcher{queue: q, Now: time.Now}
}

func (d *Dispatcher) Dispatch(ctx context.Context, job contest.Job) error {
	ctx, span := tracer.Start(ctx, "Dispatcher.Dispatch", trace.WithAttributes(
		attribute.String("job.id", job.ID.String()),
		attribute.String("job.kind", string(job.Kind)),
		attribute.String("contest.id", job.ContestID.String()),
	))
	defer span.End()

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	msg := Message{
		Version:    messageVersion,
		Job:        job,
		EnqueuedAt: types.NewUnixMilli(d.Now()),
		Trace:      carrier,
	}
	if err := d.queue.Enqueue(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to enqueue job")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return nil
}

// Decode parses a queued message for a pipeline worker. The returned context
// continues the trace of the triggering request. Malformed messages come back
// as a queue.PoisonError so they are not retried.
func Decode(ctx context.Context, raw []byte) (context.Context, *Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ctx, nil, queue.WrapPoisonError(fmt.Errorf("malformed job: %w", err))
	}
	if msg.Version != messageVersion {
		return ctx, nil, queue.WrapPoisonError(fmt.Errorf("unsupported job version %q", msg.Version))
	}
	switch msg.Job.Kind {
	case contest.JobAIJudge:
		if msg.Job.JudgeAssignmentID == nil {
			return ctx, nil, queue.WrapPoisonError(fmt.Errorf("ai judge job %s without assignment", msg.Job.ID))
		}
	case contest.JobAIWriter:
		if msg.Job.AuthorID == nil || msg.Job.AgentID == nil {
			return ctx, nil, queue.WrapPoisonError(fmt.Errorf("ai writer job %s without author or agent", msg.Job.ID))
		}
	default:
		return ctx, nil, queue.WrapPoisonError(fmt.Errorf("unknown job kind %q", msg.Job.Kind))
	}

	if len(msg.Trace) > 0 {
		ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Trace))
	}

	return ctx, &msg, nil
}

// Handler turns fn into a queue.MessageHandler for a pipeline worker calling
// Dequeue. Messages that fail to decode are poisoned and never reach fn.
func Handler(fn func(ctx context.Context, msg *Message) error) queue.MessageHandler {
	return queue.HandlerFunc(func(ctx context.Context, raw []byte) error {
		ctx, msg, err := Decode(ctx, raw)
		if err != nil {
			return err
		}

		ctx, span := tracer.Start(ctx, "Handler.Handle", trace.WithAttributes(
			attribute.String("job.id", msg.Job.ID.String()),
			attribute.String("job.kind", string(msg.Job.Kind)),
		))
		defer span.End()

		if err := fn(ctx, msg); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "job failed")
			return err
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "")
		return nil
	})
}
