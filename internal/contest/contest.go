// Package contest holds the contest lifecycle, submission admission, judge
// assignment, ballot ledger and ranking engine. It is persistence agnostic:
// every operation runs against a [Store].
package contest

import (
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

const name = "github.com/quillfight/contest-api/internal/contest"

var tracer = otel.Tracer(name)

type Status string

const (
	StatusDraft      Status = "draft"
	StatusOpen       Status = "open"
	StatusEvaluation Status = "evaluation"
	StatusClosed     Status = "closed"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor is supplied by the identity collaborator for every call.
type Actor struct {
	ID   uuid.UUID
	Role Role
	// Service account of the AI pipeline. May act on behalf of agents and authors.
	System        bool
	Authenticated bool
	// Contest password presented with this request. Never persisted.
	ContestPassword string
}

func Anonymous() Actor {
	return Actor{}
}

func (a Actor) IsAdmin() bool {
	return a.Authenticated && a.Role == RoleAdmin
}

type Contest struct {
	ID                 uuid.UUID
	Title              string
	Description        string
	PubliclyListed     bool
	PasswordProtected  bool
	PasswordHash       string
	Status             Status
	EndDate            *time.Time
	AuthorRestrictions bool
	JudgeRestrictions  bool
	MinVotesRequired   int
	CreatorID          uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ClosedAt           *time.Time
}

// Creator or admin
func (c *Contest) IsPrivileged(a Actor) bool {
	if !a.Authenticated {
		return false
	}

	return a.Role == RoleAdmin || a.ID == c.CreatorID
}

func (c *Contest) DeadlinePassed(now time.Time) bool {
	return c.EndDate != nil && now.After(*c.EndDate)
}

type Submission struct {
	ID          uuid.UUID
	ContestID   uuid.UUID
	TextID      uuid.UUID
	AuthorID    uuid.UUID
	SubmittedAt time.Time
	WithdrawnAt *time.Time
	WithdrawnBy *uuid.UUID
	// Set to AuthorID while active when the contest restricts authors to one
	// submission. Backs the store level uniqueness constraint.
	ExclusiveAuthorID *uuid.UUID
}

func (s *Submission) Active() bool {
	return s.WithdrawnAt == nil
}

type JudgeKind string

const (
	JudgeHuman JudgeKind = "human"
	JudgeAI    JudgeKind = "ai"
)

// Identifies a judge: exactly one of UserID or AgentID is set.
type JudgeRef struct {
	UserID  *uuid.UUID
	AgentID *uuid.UUID
}

func (r JudgeRef) Kind() JudgeKind {
	if r.AgentID != nil {
		return JudgeAI
	}

	return JudgeHuman
}

func (r JudgeRef) valid() bool {
	return (r.UserID == nil) != (r.AgentID == nil)
}

type JudgeAssignment struct {
	ID         uuid.UUID
	ContestID  uuid.UUID
	UserID     *uuid.UUID
	AgentID    *uuid.UUID
	Volunteer  bool
	AssignedBy uuid.UUID
	AssignedAt time.Time
	RemovedAt  *time.Time
	// Incremented by every ballot replace
	BallotVersion int64
}

func (j *JudgeAssignment) Ref() JudgeRef {
	return JudgeRef{UserID: j.UserID, AgentID: j.AgentID}
}

func (j *JudgeAssignment) Kind() JudgeKind {
	return j.Ref().Kind()
}

func (j *JudgeAssignment) Active() bool {
	return j.RemovedAt == nil
}

type Vote struct {
	ID                uuid.UUID
	ContestID         uuid.UUID
	JudgeAssignmentID uuid.UUID
	SubmissionID      uuid.UUID
	// 1, 2, 3 or nil for a comment only vote
	Place     *int
	Comment   string
	CreatedAt time.Time
}

func (v *Vote) Ranked() bool {
	return v.Place != nil && *v.Place >= 1 && *v.Place <= 3
}

// 3, 2 or 1 points for first, second and third place
func (v *Vote) Points() int {
	if !v.Ranked() {
		return 0
	}

	return 4 - *v.Place
}
