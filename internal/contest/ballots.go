package contest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/quillfight/contest-api/internal/audit"
)

type BallotEntry struct {
	SubmissionID uuid.UUID
	Place        *int
	Comment      string
}

// Ballot is the full set of one judge's votes.
type Ballot struct {
	Judge JudgeAssignment
	Votes []Vote
}

// CastBallot validates entries and atomically replaces the judge's whole
// ballot with them. Nothing is written when any check fails:
//
//   - the contest is in evaluation
//   - the assignment is an active one of this contest and belongs to the actor,
//     or the actor is the system account casting for an AI agent
//   - every entry names a distinct active submission of the contest
//   - places are 1, 2, 3 or empty and no place repeats
//   - enough entries are ranked
func (s *Service) CastBallot(
	ctx context.Context,
	actor Actor,
	contestID uuid.UUID,
	judgeID uuid.UUID,
	entries []BallotEntry,
) (*Ballot, error) {
	ctx, span := tracer.Start(ctx, "Service.CastBallot", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("judge.id", judgeID.String()),
		attribute.Int("entries", len(entries)),
	))
	defer span.End()

	var ballot *Ballot
	err := s.store.Transaction(ctx, func(tx Store) error {
		c, grant, err := s.load(ctx, tx, actor, contestID, lockShared)
		if err != nil {
			return err
		}

		if err := CanWrite(actor, c, grant, ActionVote); err != nil {
			return err
		}

		judge, err := tx.LockJudge(ctx, c.ID, judgeID)
		if err != nil {
			return err
		}
		if err := ownsAssignment(actor, judge); err != nil {
			return err
		}

		submissions, err := tx.ListSubmissions(ctx, c.ID)
		if err != nil {
			return err
		}

		votes, err := buildVotes(c, judge, submissions, entries, s.now(ctx))
		if err != nil {
			return err
		}

		if err := tx.ReplaceBallot(ctx, judge.ID, judge.BallotVersion, votes); err != nil {
			return err
		}
		judge.BallotVersion++

		ballot = &Ballot{Judge: *judge, Votes: votes}
		return nil
	})
	finish(span, err)
	if err != nil {
		return nil, err
	}

	ranked, comments := 0, 0
	for i := range ballot.Votes {
		if ballot.Votes[i].Ranked() {
			ranked++
		}
		if ballot.Votes[i].Comment != "" {
			comments++
		}
	}

	ballotCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(ballot.Judge.Kind()))))
	audit.LogBallotCast(
		audit.NewContext(contestID, actor.ID),
		ballot.Judge.ID,
		ballot.Judge.BallotVersion,
		ranked,
		comments,
	)

	return ballot, nil
}

func ownsAssignment(actor Actor, judge *JudgeAssignment) error {
	if !judge.Active() {
		return fmt.Errorf("%w: judge assignment was removed", ErrNotPermitted)
	}

	switch judge.Kind() {
	case JudgeAI:
		if !actor.System {
			return fmt.Errorf("%w: AI ballots are cast by the AI pipeline", ErrNotPermitted)
		}
	default:
		if *judge.UserID != actor.ID {
			return fmt.Errorf("%w: not your judge assignment", ErrNotPermitted)
		}
	}

	return nil
}

func buildVotes(
	c *Contest,
	judge *JudgeAssignment,
	submissions []Submission,
	entries []BallotEntry,
	now time.Time,
) ([]Vote, error) {
	active := make(map[uuid.UUID]bool, len(submissions))
	for i := range submissions {
		if submissions[i].Active() {
			active[submissions[i].ID] = true
		}
	}

	seen := make(map[uuid.UUID]bool, len(entries))
	for _, e := range entries {
		if !active[e.SubmissionID] {
			return nil, fmt.Errorf("%w: %s is not an active submission of this contest", ErrInvalidBallot, e.SubmissionID)
		}
		if seen[e.SubmissionID] {
			return nil, fmt.Errorf("%w: %s appears more than once", ErrInvalidBallot, e.SubmissionID)
		}
		seen[e.SubmissionID] = true
	}

	places := make(map[int]bool, 3)
	for _, e := range entries {
		if e.Place == nil {
			continue
		}
		if *e.Place < 1 || *e.Place > 3 {
			return nil, fmt.Errorf("%w: place must be 1, 2 or 3", ErrInvalidBallot)
		}
		if places[*e.Place] {
			return nil, fmt.Errorf("%w: place %d", ErrDuplicatePlace, *e.Place)
		}
		places[*e.Place] = true
	}

	if required := requiredRanked(c, len(active)); len(places) < required {
		return nil, fmt.Errorf("%w: %d ranked, %d required", ErrInsufficientRanking, len(places), required)
	}

	votes := make([]Vote, 0, len(entries))
	for _, e := range entries {
		id, err := newID()
		if err != nil {
			return nil, err
		}

		v := Vote{
			ID:                id,
			ContestID:         c.ID,
			JudgeAssignmentID: judge.ID,
			SubmissionID:      e.SubmissionID,
			Comment:           e.Comment,
			CreatedAt:         now,
		}
		if e.Place != nil {
			place := *e.Place
			v.Place = &place
		}
		votes = append(votes, v)
	}

	return votes, nil
}

// GetBallot returns a judge's current ballot. It is visible to the judge, the
// AI pipeline for agent judges, the creator and admins, and to every reader
// once the contest is closed.
func (s *Service) GetBallot(ctx context.Context, actor Actor, contestID, judgeID uuid.UUID) (*Ballot, error) {
	ctx, span := tracer.Start(ctx, "Service.GetBallot", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("judge.id", judgeID.String()),
	))
	defer span.End()

	ballot, err := s.getBallot(ctx, actor, contestID, judgeID)
	finish(span, err)
	return ballot, err
}

func (s *Service) getBallot(ctx context.Context, actor Actor, contestID, judgeID uuid.UUID) (*Ballot, error) {
	c, _, err := s.load(ctx, s.store, actor, contestID, lockNone)
	if err != nil {
		return nil, err
	}

	judge, err := s.store.GetJudge(ctx, c.ID, judgeID)
	if err != nil {
		return nil, err
	}

	visible := c.Status == StatusClosed || c.IsPrivileged(actor) || ownsAssignment(actor, judge) == nil
	if !actor.Authenticated && c.Status != StatusClosed {
		return nil, ErrUnauthenticated
	}
	if !visible {
		return nil, fmt.Errorf("%w: ballots are private until the contest closes", ErrNotPermitted)
	}

	votes, err := s.store.ListBallot(ctx, judge.ID)
	if err != nil {
		return nil, err
	}

	return &Ballot{Judge: *judge, Votes: votes}, nil
}
