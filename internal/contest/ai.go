package contest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/quillfight/contest-api/internal/audit"
	"github.com/quillfight/contest-api/internal/logger"
)

type AIWriterRequest struct {
	AgentID uuid.UUID
	Prompt  string
}

// TriggerAIJudge asks the AI pipeline to fill in the ballot of an agent judge.
// The creator pays for the run.
func (s *Service) TriggerAIJudge(ctx context.Context, actor Actor, contestID, judgeID uuid.UUID) (*Job, error) {
	ctx, span := tracer.Start(ctx, "Service.TriggerAIJudge", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("judge.id", judgeID.String()),
	))
	defer span.End()

	job, err := s.triggerAIJudge(ctx, actor, contestID, judgeID)
	finish(span, err)
	return job, err
}

func (s *Service) triggerAIJudge(ctx context.Context, actor Actor, contestID, judgeID uuid.UUID) (*Job, error) {
	c, grant, err := s.load(ctx, s.store, actor, contestID, lockNone)
	if err != nil {
		return nil, err
	}

	if err := CanWrite(actor, c, grant, ActionTriggerAIJudge); err != nil {
		return nil, err
	}

	judge, err := s.store.GetJudge(ctx, c.ID, judgeID)
	if err != nil {
		return nil, err
	}
	if !judge.Active() {
		return nil, fmt.Errorf("%w: judge assignment was removed", ErrNotFound)
	}
	if judge.Kind() != JudgeAI {
		return nil, fmt.Errorf("%w: not an AI judge", ErrInvalidInput)
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	job := Job{
		ID:                id,
		Kind:              JobAIJudge,
		ContestID:         c.ID,
		JudgeAssignmentID: &judge.ID,
		AgentID:           judge.AgentID,
		RequestedBy:       actor.ID,
	}
	if err := s.chargeAndDispatch(ctx, actor, job, s.costs.AIJudge); err != nil {
		return nil, err
	}

	return &job, nil
}

// TriggerAIWriter asks the AI pipeline to write a text and submit it on the
// actor's behalf. The pipeline later calls Submit as the system account.
func (s *Service) TriggerAIWriter(
	ctx context.Context,
	actor Actor,
	contestID uuid.UUID,
	req AIWriterRequest,
) (*Job, error) {
	ctx, span := tracer.Start(ctx, "Service.TriggerAIWriter", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
		attribute.String("agent.id", req.AgentID.String()),
	))
	defer span.End()

	job, err := s.triggerAIWriter(ctx, actor, contestID, req)
	finish(span, err)
	return job, err
}

func (s *Service) triggerAIWriter(ctx context.Context, actor Actor, contestID uuid.UUID, req AIWriterRequest) (*Job, error) {
	c, grant, err := s.load(ctx, s.store, actor, contestID, lockNone)
	if err != nil {
		return nil, err
	}

	if err := CanWrite(actor, c, grant, ActionTriggerAIWriter); err != nil {
		return nil, err
	}
	if c.DeadlinePassed(s.now(ctx)) {
		return nil, ErrDeadlinePassed
	}
	if req.AgentID == uuid.Nil {
		return nil, fmt.Errorf("%w: agent is required", ErrInvalidInput)
	}

	// Fail before charging when the resulting submission could never be admitted.
	if c.AuthorRestrictions {
		if err := ensureAbsent(s.store.ActiveSubmissionByAuthor(ctx, c.ID, actor.ID)); err != nil {
			if errors.Is(err, ErrConflict) {
				return nil, ErrDuplicateAuthor
			}
			return nil, err
		}
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	authorID := actor.ID
	agentID := req.AgentID
	job := Job{
		ID:          id,
		Kind:        JobAIWriter,
		ContestID:   c.ID,
		AgentID:     &agentID,
		AuthorID:    &authorID,
		Prompt:      req.Prompt,
		RequestedBy: actor.ID,
	}
	if err := s.chargeAndDispatch(ctx, actor, job, s.costs.AIWriter); err != nil {
		return nil, err
	}

	return &job, nil
}

// chargeAndDispatch checks the balance, debits it and hands the job over. A
// dispatch failure after the debit is logged for reconciliation.
func (s *Service) chargeAndDispatch(ctx context.Context, actor Actor, job Job, cost Cost) error {
	ctx, span := tracer.Start(ctx, "Service.chargeAndDispatch", trace.WithAttributes(
		attribute.String("job.id", job.ID.String()),
		attribute.String("job.kind", string(job.Kind)),
		attribute.Int64("cost", int64(cost)),
	))
	defer span.End()

	if s.dispatcher == nil {
		return fmt.Errorf("%w: the AI pipeline is not configured", ErrNotPermitted)
	}

	actx := audit.NewContext(job.ContestID, actor.ID)

	if cost > 0 {
		if s.credits == nil {
			return fmt.Errorf("%w: no credit ledger is configured", ErrNotPermitted)
		}

		span.AddEvent("checking balance")
		ok, err := s.credits.HasSufficientCredits(ctx, actor.ID, cost)
		if err != nil {
			return fmt.Errorf("failed to check credits: %w", err)
		}
		if !ok {
			audit.LogOutOfCredits(actx)
			return ErrInsufficientCredits
		}

		span.AddEvent("debiting")
		if err := s.credits.Debit(ctx, actor.ID, cost, fmt.Sprintf("%s:%s", job.Kind, job.ID)); err != nil {
			if errors.Is(err, ErrInsufficientCredits) {
				audit.LogOutOfCredits(actx)
				return err
			}
			return fmt.Errorf("failed to debit credits: %w", err)
		}
	}

	span.AddEvent("dispatching")
	if err := s.dispatcher.Dispatch(ctx, job); err != nil {
		logger.Logger.ErrorContext(
			ctx,
			"dispatch failed after debit",
			"job", job.ID,
			"kind", job.Kind,
			"actor", actor.ID,
			"cost", cost,
			"error", err,
		)
		return fmt.Errorf("failed to dispatch job: %w", err)
	}

	aiJobCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(job.Kind))))
	audit.LogAIJobDispatched(actx, job.ID, string(job.Kind), int64(cost))
	return nil
}
