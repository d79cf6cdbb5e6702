package contest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/quillfight/contest-api/internal/audit"
	"github.com/quillfight/contest-api/internal/logger"
)

// Parallel sweeps of expired contests
const sweepConcurrency = 4

// Transition moves a contest to target. Only the creator or an admin may do
// so, and anything but a single forward step needs override. Entering closed
// freezes the ranking under the contest row lock; leaving it discards the
// frozen ranking.
func (s *Service) Transition(
	ctx context.Context,
	actor Actor,
	id uuid.UUID,
	target Status,
	override bool,
) (*Contest, error) {
	ctx, span := tracer.Start(ctx, "Service.Transition", trace.WithAttributes(
		attribute.String("contest.id", id.String()),
		attribute.String("target", string(target)),
		attribute.Bool("override", override),
	))
	defer span.End()

	var (
		result   *Contest
		from     Status
		snapshot *RankingSnapshot
		changed  bool
	)
	err := s.store.Transaction(ctx, func(tx Store) error {
		c, _, err := s.load(ctx, tx, actor, id, lockExclusive)
		if err != nil {
			return err
		}

		if !actor.Authenticated {
			return ErrUnauthenticated
		}
		if !c.IsPrivileged(actor) && !sweeperStep(actor, c, target, override) {
			return fmt.Errorf("%w: only the creator may change the status", ErrNotPermitted)
		}

		if err := CheckTransition(c.Status, target, override); err != nil {
			return err
		}

		from = c.Status
		if from == target {
			result = c
			if target != StatusClosed {
				return nil
			}
			snapshot, changed, err = s.freeze(ctx, tx, c)
			return err
		}

		now := s.now(ctx)
		c.Status = target
		c.UpdatedAt = now
		switch {
		case target == StatusClosed:
			c.ClosedAt = &now
		case from == StatusClosed:
			c.ClosedAt = nil
		}

		if err := tx.UpdateContest(ctx, c); err != nil {
			return err
		}

		if target == StatusClosed {
			snapshot, changed, err = s.freeze(ctx, tx, c)
			if err != nil {
				return err
			}
		} else if from == StatusClosed {
			if err := tx.DeleteRankingSnapshot(ctx, c.ID); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
		}

		result = c
		return nil
	})
	finish(span, err)
	if err != nil {
		return nil, err
	}

	actx := audit.NewContext(id, actor.ID)
	if from != target {
		transitionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("to", string(target))))
		audit.LogContestTransition(actx, string(from), string(target), override)
	}
	if snapshot != nil && changed {
		audit.LogRankingFrozen(actx, snapshot.InputsHash, len(snapshot.Standings))
		if s.publisher != nil {
			s.publisher.Publish(ctx, snapshot)
		}
	}

	return result, nil
}

// The deadline sweeper may only push an open contest one step forward.
func sweeperStep(actor Actor, c *Contest, target Status, override bool) bool {
	return actor.System && !override && c.Status == StatusOpen && target == StatusEvaluation
}

// freeze computes the ranking of c and stores it as the snapshot. An existing
// snapshot over the same counted votes is kept as is.
func (s *Service) freeze(ctx context.Context, tx Store, c *Contest) (*RankingSnapshot, bool, error) {
	ctx, span := tracer.Start(ctx, "Service.freeze")
	defer span.End()

	submissions, err := tx.ListSubmissions(ctx, c.ID)
	if err != nil {
		return nil, false, err
	}
	judges, err := tx.ListJudges(ctx, c.ID)
	if err != nil {
		return nil, false, err
	}
	votes, err := tx.ListVotes(ctx, c.ID)
	if err != nil {
		return nil, false, err
	}

	inputsHash := InputsHash(submissions, judges, votes, JudgeFilter{})

	existing, err := tx.GetRankingSnapshot(ctx, c.ID)
	switch {
	case err == nil && existing.InputsHash == inputsHash:
		span.AddEvent("snapshot unchanged")
		return existing, false, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, false, err
	}

	snapshot := &RankingSnapshot{
		ContestID:  c.ID,
		ComputedAt: s.now(ctx),
		InputsHash: inputsHash,
		Standings:  ComputeRanking(submissions, judges, votes, JudgeFilter{}),
	}
	if err := tx.SaveRankingSnapshot(ctx, snapshot); err != nil {
		return nil, false, err
	}

	span.AddEvent("snapshot saved", trace.WithAttributes(
		attribute.String("inputs_hash", inputsHash),
		attribute.Int("standings", len(snapshot.Standings)),
	))
	return snapshot, true, nil
}

// AdvanceExpired moves every open contest whose end date passed before now to
// evaluation. It never moves a contest further than that single step.
func (s *Service) AdvanceExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	ctx, span := tracer.Start(ctx, "Service.AdvanceExpired")
	defer span.End()

	ids, err := s.store.ListExpiredContests(ctx, now)
	if err != nil {
		finish(span, err)
		return nil, err
	}

	advanced := make([]bool, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			ok, err := s.advance(gctx, id, now)
			if err != nil {
				logger.Logger.ErrorContext(gctx, "failed to advance expired contest", "contest", id, "error", err)
				return fmt.Errorf("contest %s: %w", id, err)
			}
			advanced[i] = ok
			return nil
		})
	}
	err = g.Wait()

	var moved []uuid.UUID
	for i, ok := range advanced {
		if ok {
			moved = append(moved, ids[i])
		}
	}

	span.SetAttributes(attribute.Int("advanced", len(moved)))
	finish(span, err)
	return moved, err
}

func (s *Service) advance(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	moved := false
	err := s.store.Transaction(ctx, func(tx Store) error {
		c, err := tx.LockContest(ctx, id)
		if err != nil {
			return err
		}

		// Re-checked under the lock: a creator may have moved it meanwhile.
		if c.Status != StatusOpen || !c.DeadlinePassed(now) {
			return nil
		}

		c.Status = StatusEvaluation
		c.UpdatedAt = s.now(ctx)
		if err := tx.UpdateContest(ctx, c); err != nil {
			return err
		}

		moved = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if moved {
		transitionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("to", string(StatusEvaluation))))
		audit.LogContestTransition(audit.NewContext(id, uuid.Nil), string(StatusOpen), string(StatusEvaluation), false)
	}
	return moved, nil
}
