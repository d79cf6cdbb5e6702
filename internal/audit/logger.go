package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quillfight/contest-api/internal/logger"
	"github.com/quillfight/contest-api/internal/types"
)

type Context struct {
	ActorID   *string
	ContestID string
}

func NewContext(contestID, actorID uuid.UUID) Context {
	c := Context{ContestID: contestID.String()}
	if actorID != uuid.Nil {
		actor := actorID.String()
		c.ActorID = &actor
	}
	return c
}

func newMessage(c Context, evt EventType, disposition Disposition) Message {
	return Message{
		ActorID:       c.ActorID,
		LogContext:    logContext,
		SchemaVersion: schemaVersion,
		ContestID:     c.ContestID,
		Disposition:   disposition,
		Type:          evt,
		Timestamp:     types.NewUnixMilli(time.Now()),
	}
}

func emit(event any, evt EventType, args ...any) {
	evtStr, err := json.Marshal(event)
	if err != nil {
		logger.Logger.Error(
			fmt.Sprintf("could not serialize %s event", evt),
			append([]any{"error", err}, args...)...,
		)
		return
	}

	// audit lines go to stdout, application logs to stderr
	fmt.Println(string(evtStr))
}

func LogContestCreated(c Context, title string, publiclyListed bool, protected bool) {
	event := ContestCreated{}
	event.Message = newMessage(c, EvtContestCreated, DispositionNeutral)

	event.Event.Title = title
	event.Event.PubliclyListed = publiclyListed
	event.Event.Protected = protected

	emit(event, EvtContestCreated, "title", title)
}

func LogContestTransition(c Context, from string, to string, override bool) {
	event := ContestTransition{}
	event.Message = newMessage(c, EvtContestTransition, DispositionNeutral)
	if override {
		event.Disposition = DispositionBad
	}

	event.Event.From = from
	event.Event.To = to
	event.Event.Override = override

	emit(event, EvtContestTransition, "from", from, "to", to, "override", override)
}

func LogSubmission(c Context, submissionID uuid.UUID, textID uuid.UUID, authorID uuid.UUID) {
	event := Submission{}
	event.Message = newMessage(c, EvtSubmission, DispositionGood)

	event.Event.SubmissionID = submissionID
	event.Event.TextID = textID
	event.Event.AuthorID = authorID

	emit(event, EvtSubmission, "submissionID", submissionID)
}

func LogSubmissionWithdrawn(c Context, submissionID uuid.UUID) {
	event := SubmissionWithdrawn{}
	event.Message = newMessage(c, EvtSubmissionWithdrawn, DispositionNeutral)

	event.Event.SubmissionID = submissionID

	emit(event, EvtSubmissionWithdrawn, "submissionID", submissionID)
}

func LogJudgeAssigned(c Context, judgeAssignmentID uuid.UUID, kind string, volunteer bool) {
	event := JudgeAssigned{}
	event.Message = newMessage(c, EvtJudgeAssigned, DispositionNeutral)

	event.Event.JudgeAssignmentID = judgeAssignmentID
	event.Event.Kind = kind
	event.Event.Volunteer = volunteer

	emit(event, EvtJudgeAssigned, "judgeAssignmentID", judgeAssignmentID)
}

func LogJudgeRemoved(c Context, judgeAssignmentID uuid.UUID) {
	event := JudgeRemoved{}
	event.Message = newMessage(c, EvtJudgeRemoved, DispositionNeutral)

	event.Event.JudgeAssignmentID = judgeAssignmentID

	emit(event, EvtJudgeRemoved, "judgeAssignmentID", judgeAssignmentID)
}

func LogBallotCast(c Context, judgeAssignmentID uuid.UUID, version int64, ranked int, comments int) {
	event := BallotCast{}
	event.Message = newMessage(c, EvtBallotCast, DispositionGood)

	event.Event.JudgeAssignmentID = judgeAssignmentID
	event.Event.BallotVersion = version
	event.Event.Ranked = ranked
	event.Event.Comments = comments

	emit(event, EvtBallotCast, "judgeAssignmentID", judgeAssignmentID, "version", version)
}

func LogRankingFrozen(c Context, inputsHash string, standings int) {
	event := RankingFrozen{}
	event.Message = newMessage(c, EvtRankingFrozen, DispositionGood)

	event.Event.InputsHash = inputsHash
	event.Event.Standings = standings

	emit(event, EvtRankingFrozen, "inputsHash", inputsHash)
}

func LogAIJobDispatched(c Context, jobID uuid.UUID, kind string, cost int64) {
	event := AIJobDispatched{}
	event.Message = newMessage(c, EvtAIJobDispatched, DispositionNeutral)

	event.Event.JobID = jobID
	event.Event.Kind = kind
	event.Event.Cost = cost

	emit(event, EvtAIJobDispatched, "jobID", jobID, "kind", kind)
}

func LogOutOfCredits(c Context) {
	event := OutOfCredits{}
	event.Message = newMessage(c, EvtOutOfCredits, DispositionBad)

	emit(event, EvtOutOfCredits)
}

func LogResultsPublished(c Context, bucketName string, objectName string, sha256 string) {
	event := ResultsPublished{}
	event.Message = newMessage(c, EvtResultsPublished, DispositionGood)

	event.Event.BucketName = bucketName
	event.Event.ObjectName = objectName
	event.Event.SHA256 = sha256

	emit(event, EvtResultsPublished, "bucketName", bucketName, "objectName", objectName)
}
