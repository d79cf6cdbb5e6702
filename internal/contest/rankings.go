package contest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Ranking returns the standings of a contest. A closed contest queried without
// a filter is served from its frozen snapshot. Before the contest closes only
// the creator and admins may look at the live ranking.
func (s *Service) Ranking(
	ctx context.Context,
	actor Actor,
	contestID uuid.UUID,
	filter JudgeFilter,
) (*Ranking, error) {
	ctx, span := tracer.Start(ctx, "Service.Ranking", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.Int("filter.judges", len(filter.AssignmentIDs)),
		attribute.String("filter.kind", string(filter.Kind)),
	))
	defer span.End()

	ranking, err := s.ranking(ctx, actor, contestID, filter)
	finish(span, err)
	return ranking, err
}

func (s *Service) ranking(ctx context.Context, actor Actor, contestID uuid.UUID, filter JudgeFilter) (*Ranking, error) {
	if filter.Kind != "" && filter.Kind != JudgeHuman && filter.Kind != JudgeAI {
		return nil, fmt.Errorf("%w: unknown judge kind %q", ErrInvalidInput, filter.Kind)
	}

	c, _, err := s.load(ctx, s.store, actor, contestID, lockNone)
	if err != nil {
		return nil, err
	}

	if c.Status != StatusClosed && !c.IsPrivileged(actor) {
		if !actor.Authenticated {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("%w: the ranking is published when the contest closes", ErrNotPermitted)
	}

	if c.Status == StatusClosed && filter.IsZero() {
		snapshot, err := s.store.GetRankingSnapshot(ctx, c.ID)
		switch {
		case err == nil:
			return &Ranking{
				Standings:  snapshot.Standings,
				InputsHash: snapshot.InputsHash,
				Frozen:     true,
				ComputedAt: snapshot.ComputedAt,
			}, nil
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}

	submissions, err := s.store.ListSubmissions(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	judges, err := s.store.ListJudges(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	votes, err := s.store.ListVotes(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	return &Ranking{
		Standings:  ComputeRanking(submissions, judges, votes, filter),
		InputsHash: InputsHash(submissions, judges, votes, filter),
		ComputedAt: s.now(ctx),
	}, nil
}
