package types

import (
	"time"

	"github.com/google/uuid"
)

type ContestCreate struct {
	Title          string `json:"title"           validate:"notblank,printable,max=200"`
	Description    string `json:"description"     validate:"printable,max=10000"`
	PubliclyListed bool   `json:"publicly_listed"`
	// Empty for an unprotected contest
	Password           string     `json:"password"            validate:"contest_password"`
	EndDate            *time.Time `json:"end_date"`
	AuthorRestrictions bool       `json:"author_restrictions"`
	JudgeRestrictions  bool       `json:"judge_restrictions"`
	MinVotesRequired   int        `json:"min_votes_required"  validate:"gte=0"`
}

// ContestPatch changes only the fields present in the body. A null end_date
// removes the deadline and an empty password removes the protection.
type ContestPatch struct {
	Title              Optional[string]    `json:"title"`
	Description        Optional[string]    `json:"description"`
	PubliclyListed     Optional[bool]      `json:"publicly_listed"`
	Password           Optional[string]    `json:"password"`
	EndDate            Optional[time.Time] `json:"end_date"`
	AuthorRestrictions Optional[bool]      `json:"author_restrictions"`
	JudgeRestrictions  Optional[bool]      `json:"judge_restrictions"`
	MinVotesRequired   Optional[int]       `json:"min_votes_required"`
}

type ContestCounts struct {
	Submissions  int `json:"submissions"`
	Participants int `json:"participants"`
	Judges       int `json:"judges"`
}

type ContestResponse struct {
	ID                 uuid.UUID      `json:"id"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	PubliclyListed     bool           `json:"publicly_listed"`
	PasswordProtected  bool           `json:"password_protected"`
	Status             string         `json:"status"`
	EndDate            *time.Time     `json:"end_date"`
	AuthorRestrictions bool           `json:"author_restrictions"`
	JudgeRestrictions  bool           `json:"judge_restrictions"`
	MinVotesRequired   int            `json:"min_votes_required"`
	CreatorID          uuid.UUID      `json:"creator_id"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	ClosedAt           *time.Time     `json:"closed_at"`
	Counts             *ContestCounts `json:"counts,omitempty"`
}

type ContestListQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=draft open evaluation closed"`
	Limit  int    `query:"limit"  validate:"gte=0,lte=100"`
	Offset int    `query:"offset" validate:"gte=0"`
}

type ContestListResponse struct {
	Contests []ContestResponse `json:"contests"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

type TransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=draft open evaluation closed"`
	// Allows skipping a state or moving backwards
	Override bool `json:"override"`
}

type SubmitRequest struct {
	TextID uuid.UUID `json:"text_id" validate:"required"`
	// Submit on behalf of an author. System account and admins only.
	AuthorID *uuid.UUID `json:"author_id"`
}

type SubmissionResponse struct {
	ID          uuid.UUID  `json:"id"`
	ContestID   uuid.UUID  `json:"contest_id"`
	TextID      uuid.UUID  `json:"text_id"`
	AuthorID    uuid.UUID  `json:"author_id"`
	SubmittedAt time.Time  `json:"submitted_at"`
	WithdrawnAt *time.Time `json:"withdrawn_at"`
	Active      bool       `json:"active"`
}

type SubmissionListResponse struct {
	Submissions []SubmissionResponse `json:"submissions"`
	Counts      ContestCounts        `json:"counts"`
}

// Exactly one of user_id or agent_id. An empty body volunteers the caller.
type AssignJudgeRequest struct {
	UserID  *uuid.UUID `json:"user_id"  validate:"omitnil,excluded_with=AgentID"`
	AgentID *uuid.UUID `json:"agent_id" validate:"omitnil,excluded_with=UserID"`
}

type JudgeResponse struct {
	ID            uuid.UUID  `json:"id"`
	ContestID     uuid.UUID  `json:"contest_id"`
	Kind          string     `json:"kind"`
	UserID        *uuid.UUID `json:"user_id"`
	AgentID       *uuid.UUID `json:"agent_id"`
	Volunteer     bool       `json:"volunteer"`
	AssignedBy    uuid.UUID  `json:"assigned_by"`
	AssignedAt    time.Time  `json:"assigned_at"`
	RemovedAt     *time.Time `json:"removed_at"`
	BallotVersion int64      `json:"ballot_version"`
}

type JudgeCompletionResponse struct {
	Judge        JudgeResponse `json:"judge"`
	Ranked       int           `json:"ranked"`
	Comments     int           `json:"comments"`
	HasVoted     bool          `json:"has_voted"`
	MeetsMinimum bool          `json:"meets_minimum"`
}

type CompletionResponse struct {
	Total     int                       `json:"total"`
	Completed int                       `json:"completed"`
	Required  int                       `json:"required"`
	Judges    []JudgeCompletionResponse `json:"judges"`
}

type BallotEntry struct {
	SubmissionID uuid.UUID `json:"submission_id" validate:"required"`
	// 1, 2, 3 or null for a comment only entry
	Place   *int   `json:"place"   validate:"omitnil,min=1,max=3"`
	Comment string `json:"comment" validate:"printable,max=4000"`
}

type BallotRequest struct {
	Entries []BallotEntry `json:"entries" validate:"dive"`
}

type VoteResponse struct {
	ID           uuid.UUID `json:"id"`
	SubmissionID uuid.UUID `json:"submission_id"`
	Place        *int      `json:"place"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}

type BallotResponse struct {
	Judge JudgeResponse  `json:"judge"`
	Votes []VoteResponse `json:"votes"`
}

type AIWriterRequest struct {
	AgentID uuid.UUID `json:"agent_id" validate:"required"`
	Prompt  string    `json:"prompt"   validate:"printable,max=4000"`
}

type AIJobResponse struct {
	ID                uuid.UUID  `json:"id"`
	Kind              string     `json:"kind"`
	ContestID         uuid.UUID  `json:"contest_id"`
	JudgeAssignmentID *uuid.UUID `json:"judge_assignment_id,omitempty"`
	AgentID           *uuid.UUID `json:"agent_id,omitempty"`
	AuthorID          *uuid.UUID `json:"author_id,omitempty"`
	RequestedBy       uuid.UUID  `json:"requested_by"`
}

type RankingQuery struct {
	// Repeatable. Restricts the ranking to these judge assignments.
	JudgeIDs []string `query:"judge_id"`
	Kind     string   `query:"kind"     validate:"omitempty,oneof=human ai"`
}

type ContributingVoteResponse struct {
	JudgeAssignmentID uuid.UUID `json:"judge_assignment_id"`
	Kind              string    `json:"kind"`
	Place             int       `json:"place"`
	Points            int       `json:"points"`
}

type StandingResponse struct {
	Position          int                        `json:"position"`
	SubmissionID      uuid.UUID                  `json:"submission_id"`
	TextID            uuid.UUID                  `json:"text_id"`
	AuthorID          uuid.UUID                  `json:"author_id"`
	SubmittedAt       time.Time                  `json:"submitted_at"`
	Score             int                        `json:"score"`
	ContributingVotes []ContributingVoteResponse `json:"contributing_votes"`
}

type RankingResponse struct {
	ContestID  uuid.UUID          `json:"contest_id"`
	Frozen     bool               `json:"frozen"`
	ComputedAt time.Time          `json:"computed_at"`
	InputsHash string             `json:"inputs_hash"`
	Standings  []StandingResponse `json:"standings"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
