package contest

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -destination ./mock/mock.go -package mock . CreditGate,Dispatcher,ResultsPublisher

type Cost int64

// Costs in credits of the paid actions
type Costs struct {
	AIJudge  Cost
	AIWriter Cost
}

// CreditGate is the external credit ledger. The core only asks whether a
// balance covers a cost and debits it.
type CreditGate interface {
	HasSufficientCredits(ctx context.Context, actorID uuid.UUID, cost Cost) (bool, error)
	Debit(ctx context.Context, actorID uuid.UUID, cost Cost, reason string) error
}

type JobKind string

const (
	JobAIJudge  JobKind = "ai_judge"
	JobAIWriter JobKind = "ai_writer"
)

// Job is handed to the AI pipeline. It later answers through CastBallot or
// Submit as the system account.
type Job struct {
	ID                uuid.UUID  `json:"id"`
	Kind              JobKind    `json:"kind"`
	ContestID         uuid.UUID  `json:"contest_id"`
	JudgeAssignmentID *uuid.UUID `json:"judge_assignment_id,omitempty"`
	AgentID           *uuid.UUID `json:"agent_id,omitempty"`
	AuthorID          *uuid.UUID `json:"author_id,omitempty"`
	Prompt            string     `json:"prompt,omitempty"`
	RequestedBy       uuid.UUID  `json:"requested_by"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) error
}

// ResultsPublisher receives the frozen ranking once a close commits.
type ResultsPublisher interface {
	Publish(ctx context.Context, snapshot *RankingSnapshot)
}
