package contest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/quillfight/contest-api/internal/audit"
)

// AssignJudge adds a judge to the contest. The creator and admins may assign
// anyone until the contest closes. Anyone else may only volunteer themselves
// as a human judge, and only when the contest lets them. An existing active
// assignment is returned along with ErrAlreadyAssigned.
func (s *Service) AssignJudge(
	ctx context.Context,
	actor Actor,
	contestID uuid.UUID,
	ref JudgeRef,
) (*JudgeAssignment, error) {
	ctx, span := tracer.Start(ctx, "Service.AssignJudge", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("kind", string(ref.Kind())),
	))
	defer span.End()

	var (
		judge   *JudgeAssignment
		created bool
	)
	err := s.store.Transaction(ctx, func(tx Store) error {
		c, grant, err := s.load(ctx, tx, actor, contestID, lockExclusive)
		if err != nil {
			return err
		}

		privileged := c.IsPrivileged(actor)
		if privileged {
			err = CanWrite(actor, c, grant, ActionAssignJudge)
		} else {
			err = CanWrite(actor, c, grant, ActionVolunteer)
		}
		if err != nil {
			return err
		}

		if !ref.valid() {
			return fmt.Errorf("%w: exactly one of user or agent is required", ErrInvalidInput)
		}
		if !privileged && (ref.UserID == nil || *ref.UserID != actor.ID) {
			return fmt.Errorf("%w: volunteers may only assign themselves", ErrNotPermitted)
		}

		existing, err := tx.ActiveJudge(ctx, c.ID, ref)
		if err == nil {
			judge = existing
			return ErrAlreadyAssigned
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		id, err := newID()
		if err != nil {
			return err
		}

		judge = &JudgeAssignment{
			ID:         id,
			ContestID:  c.ID,
			UserID:     ref.UserID,
			AgentID:    ref.AgentID,
			Volunteer:  !privileged,
			AssignedBy: actor.ID,
			AssignedAt: s.now(ctx),
		}
		if err := tx.CreateJudge(ctx, judge); err != nil {
			return err
		}

		created = true
		return nil
	})
	finish(span, err)
	if err != nil {
		if errors.Is(err, ErrAlreadyAssigned) && judge != nil {
			return judge, err
		}
		return nil, err
	}

	if created {
		audit.LogJudgeAssigned(audit.NewContext(contestID, actor.ID), judge.ID, string(judge.Kind()), judge.Volunteer)
	}

	return judge, nil
}

// RemoveJudge tombstones an assignment. Its ballot stays on record but no
// longer counts.
func (s *Service) RemoveJudge(ctx context.Context, actor Actor, contestID, judgeID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "Service.RemoveJudge", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("judge.id", judgeID.String()),
	))
	defer span.End()

	err := s.store.Transaction(ctx, func(tx Store) error {
		c, grant, err := s.load(ctx, tx, actor, contestID, lockExclusive)
		if err != nil {
			return err
		}

		if err := CanWrite(actor, c, grant, ActionRemoveJudge); err != nil {
			return err
		}

		judge, err := tx.GetJudge(ctx, c.ID, judgeID)
		if err != nil {
			return err
		}
		if !judge.Active() {
			return fmt.Errorf("%w: judge already removed", ErrNotFound)
		}

		return tx.RemoveJudge(ctx, judge.ID, s.now(ctx))
	})
	finish(span, err)
	if err != nil {
		return err
	}

	audit.LogJudgeRemoved(audit.NewContext(contestID, actor.ID), judgeID)
	return nil
}

type JudgeCompletion struct {
	Judge    JudgeAssignment
	Ranked   int
	Comments int
	// At least one ranked vote
	HasVoted     bool
	MeetsMinimum bool
}

type Completion struct {
	Total int
	// Judges with at least one ranked vote
	Completed int
	// Ranked votes each judge needs
	Required int
	Judges   []JudgeCompletion
}

// CompletionStatus reports how far each active judge got with their ballot.
func (s *Service) CompletionStatus(ctx context.Context, actor Actor, contestID uuid.UUID) (*Completion, error) {
	ctx, span := tracer.Start(ctx, "Service.CompletionStatus", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
	))
	defer span.End()

	completion, err := s.completionStatus(ctx, actor, contestID)
	finish(span, err)
	return completion, err
}

func (s *Service) completionStatus(ctx context.Context, actor Actor, contestID uuid.UUID) (*Completion, error) {
	c, _, err := s.load(ctx, s.store, actor, contestID, lockNone)
	if err != nil {
		return nil, err
	}

	submissions, err := s.store.ListSubmissions(ctx, contestID)
	if err != nil {
		return nil, err
	}
	judges, err := s.store.ListJudges(ctx, contestID)
	if err != nil {
		return nil, err
	}
	votes, err := s.store.ListVotes(ctx, contestID)
	if err != nil {
		return nil, err
	}

	return summarizeCompletion(c, submissions, judges, votes), nil
}

func summarizeCompletion(c *Contest, submissions []Submission, judges []JudgeAssignment, votes []Vote) *Completion {
	active := make(map[uuid.UUID]bool, len(submissions))
	for i := range submissions {
		if submissions[i].Active() {
			active[submissions[i].ID] = true
		}
	}

	type tally struct{ ranked, comments int }
	tallies := make(map[uuid.UUID]*tally)
	for i := range votes {
		v := &votes[i]
		if !active[v.SubmissionID] {
			continue
		}
		t, ok := tallies[v.JudgeAssignmentID]
		if !ok {
			t = &tally{}
			tallies[v.JudgeAssignmentID] = t
		}
		if v.Ranked() {
			t.ranked++
		}
		if v.Comment != "" {
			t.comments++
		}
	}

	completion := &Completion{
		Required: requiredRanked(c, len(active)),
		Judges:   []JudgeCompletion{},
	}
	for i := range judges {
		j := judges[i]
		if !j.Active() {
			continue
		}

		jc := JudgeCompletion{Judge: j}
		if t, ok := tallies[j.ID]; ok {
			jc.Ranked = t.ranked
			jc.Comments = t.comments
		}
		jc.HasVoted = jc.Ranked > 0
		jc.MeetsMinimum = jc.Ranked >= completion.Required

		completion.Total++
		if jc.HasVoted {
			completion.Completed++
		}
		completion.Judges = append(completion.Judges, jc)
	}

	return completion
}

// requiredRanked is the number of ranked places a complete ballot holds. It
// never exceeds the number of active submissions nor the three places.
func requiredRanked(c *Contest, activeSubmissions int) int {
	return min(c.MinVotesRequired, activeSubmissions, 3)
}
