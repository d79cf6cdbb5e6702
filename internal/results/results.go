// Package results publishes the frozen ranking of a closed contest to object
// storage.
package results

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quillfight/contest-api/internal/audit"
	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/logger"
	"github.com/quillfight/contest-api/internal/taskrunner"
	"github.com/quillfight/contest-api/internal/upload"
)

var tracer = otel.Tracer("github.com/quillfight/contest-api/internal/results")

var _ contest.ResultsPublisher = (*Publisher)(nil)

// Runs work in the background. Satisfied by [taskrunner.Client].
type Runner interface {
	Run(ctx context.Context, task string, fn func(context.Context))
}

var _ Runner = (*taskrunner.Client)(nil)

type Publisher struct {
	store  upload.Store
	runner Runner
	// Lifetime of the download link that is logged. Zero skips the link.
	linkExpiry time.Duration
}

func NewPublisher(store upload.Store, runner Runner, linkExpiry time.Duration) *Publisher {
	return &Publisher{store: store, runner: runner, linkExpiry: linkExpiry}
}

func Key(contestID uuid.UUID) string {
	return fmt.Sprintf("contests/%s/ranking.json", contestID)
}

// Publish uploads the snapshot in the background. The close that produced it
// has already committed, so failures are logged and never surface to the
// caller.
func (p *Publisher) Publish(ctx context.Context, snapshot *contest.RankingSnapshot) {
	published := *snapshot
	p.runner.Run(ctx, "publish_results", func(ctx context.Context) {
		if err := p.publish(ctx, &published); err != nil {
			logger.Logger.ErrorContext(ctx, "failed to publish results",
				"contest_id", published.ContestID, "error", err)
		}
	})
}

func (p *Publisher) publish(ctx context.Context, snapshot *contest.RankingSnapshot) error {
	key := Key(snapshot.ContestID)
	ctx, span := tracer.Start(ctx, "Publisher.publish", trace.WithAttributes(
		attribute.String("contest.id", snapshot.ContestID.String()),
		attribute.String("key", key),
	))
	defer span.End()

	sum, err := upload.JSON(ctx, p.store, key, snapshot)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store ranking")
		return err
	}

	audit.LogResultsPublished(audit.NewContext(snapshot.ContestID, uuid.Nil), p.store.Location(), key, sum)

	if p.linkExpiry > 0 {
		link, err := p.store.ReadLink(ctx, key, p.linkExpiry)
		if err != nil {
			// the ranking is up, only the convenience link is missing
			logger.Logger.WarnContext(ctx, "failed to presign results link", "key", key, "error", err)
		} else {
			logger.Logger.InfoContext(ctx, "published results",
				"contest_id", snapshot.ContestID, "link", link, "expires_in", p.linkExpiry.String())
		}
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "published ranking")
	return nil
}
