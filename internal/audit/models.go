package audit

import (
	"github.com/google/uuid"

	"github.com/quillfight/contest-api/internal/types"
)

var schemaVersion = "0.2.0"
var logContext = "audit"

type Disposition string

const (
	DispositionNeutral Disposition = "neutral"
	DispositionGood    Disposition = "good"
	DispositionBad     Disposition = "bad"
)

type EventType string

const (
	EvtContestCreated      EventType = "contest_created"
	EvtContestTransition   EventType = "contest_transition"
	EvtSubmission          EventType = "submission"
	EvtSubmissionWithdrawn EventType = "submission_withdrawn"
	EvtJudgeAssigned       EventType = "judge_assigned"
	EvtJudgeRemoved        EventType = "judge_removed"
	EvtBallotCast          EventType = "ballot_cast"
	EvtRankingFrozen       EventType = "ranking_frozen"
	EvtAIJobDispatched     EventType = "ai_job_dispatched"
	EvtOutOfCredits        EventType = "out_of_credits"
	EvtResultsPublished    EventType = "results_published"
)

type Message struct {
	ActorID       *string     `json:"actor_id"`
	LogContext    string      `json:"log_context" validate:"required"`
	SchemaVersion string      `json:"version"     validate:"required"`
	ContestID     string      `json:"contest_id"  validate:"required"`
	Disposition   Disposition `json:"disposition" validate:"required"`
	Type          EventType   `json:"event_type"  validate:"required"`

	Timestamp types.UnixMilli `json:"timestamp" validate:"required"`
}

type ContestCreatedEvent struct {
	Title          string `json:"title"           validate:"required"`
	PubliclyListed bool   `json:"publicly_listed"`
	Protected      bool   `json:"password_protected"`
}

type ContestCreated struct {
	Event ContestCreatedEvent `json:"event" validate:"required"`
	Message
}

type ContestTransitionEvent struct {
	From     string `json:"from"     validate:"required"`
	To       string `json:"to"       validate:"required"`
	Override bool   `json:"override"`
}

type ContestTransition struct {
	Event ContestTransitionEvent `json:"event" validate:"required"`
	Message
}

type SubmissionEvent struct {
	SubmissionID uuid.UUID `json:"submission_id" validate:"required"`
	TextID       uuid.UUID `json:"text_id"       validate:"required"`
	AuthorID     uuid.UUID `json:"author_id"     validate:"required"`
}

type Submission struct {
	Event SubmissionEvent `json:"event" validate:"required"`
	Message
}

type SubmissionWithdrawnEvent struct {
	SubmissionID uuid.UUID `json:"submission_id" validate:"required"`
}

type SubmissionWithdrawn struct {
	Event SubmissionWithdrawnEvent `json:"event" validate:"required"`
	Message
}

type JudgeAssignedEvent struct {
	JudgeAssignmentID uuid.UUID `json:"judge_assignment_id" validate:"required"`
	Kind              string    `json:"kind"                validate:"required"`
	Volunteer         bool      `json:"volunteer"`
}

type JudgeAssigned struct {
	Event JudgeAssignedEvent `json:"event" validate:"required"`
	Message
}

type JudgeRemovedEvent struct {
	JudgeAssignmentID uuid.UUID `json:"judge_assignment_id" validate:"required"`
}

type JudgeRemoved struct {
	Event JudgeRemovedEvent `json:"event" validate:"required"`
	Message
}

type BallotCastEvent struct {
	JudgeAssignmentID uuid.UUID `json:"judge_assignment_id" validate:"required"`
	BallotVersion     int64     `json:"ballot_version"      validate:"required"`
	Ranked            int       `json:"ranked"`
	Comments          int       `json:"comments"`
}

type BallotCast struct {
	Event BallotCastEvent `json:"event" validate:"required"`
	Message
}

type RankingFrozenEvent struct {
	InputsHash string `json:"inputs_hash" validate:"required"`
	Standings  int    `json:"standings"`
}

type RankingFrozen struct {
	Event RankingFrozenEvent `json:"event" validate:"required"`
	Message
}

type AIJobDispatchedEvent struct {
	JobID uuid.UUID `json:"job_id" validate:"required"`
	Kind  string    `json:"kind"   validate:"required"`
	Cost  int64     `json:"cost"`
}

type AIJobDispatched struct {
	Event AIJobDispatchedEvent `json:"event" validate:"required"`
	Message
}

// Exists to maintain existing contract structure of audit log
type OutOfCreditsEvent struct{}

type OutOfCredits struct {
	Event OutOfCreditsEvent `json:"event" validate:"required"`
	Message
}

type ResultsPublishedEvent struct {
	BucketName string `json:"bucket_name" validate:"required"`
	ObjectName string `json:"object_name" validate:"required"`
	SHA256     string `json:"sha256"      validate:"required"`
}

type ResultsPublished struct {
	Event ResultsPublishedEvent `json:"event" validate:"required"`
	Message
}
