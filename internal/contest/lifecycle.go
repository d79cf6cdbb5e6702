package contest

import "fmt"

type Action string

const (
	ActionSubmit          Action = "submit"
	ActionWithdrawOwn     Action = "withdraw_own"
	ActionWithdrawAny     Action = "withdraw_any"
	ActionVolunteer       Action = "volunteer"
	ActionAssignJudge     Action = "assign_judge"
	ActionRemoveJudge     Action = "remove_judge"
	ActionVote            Action = "vote"
	ActionTriggerAIJudge  Action = "trigger_ai_judge"
	ActionTriggerAIWriter Action = "trigger_ai_writer"
	ActionConfigure       Action = "configure"
)

var statusOrder = map[Status]int{
	StatusDraft:      0,
	StatusOpen:       1,
	StatusEvaluation: 2,
	StatusClosed:     3,
}

// Per status legal actions. An action missing from a status row is rejected
// with the error from rejections.
var legalActions = map[Status]map[Action]bool{
	StatusDraft: {
		ActionAssignJudge: true,
		ActionRemoveJudge: true,
		ActionConfigure:   true,
	},
	StatusOpen: {
		ActionSubmit:          true,
		ActionWithdrawOwn:     true,
		ActionWithdrawAny:     true,
		ActionVolunteer:       true,
		ActionAssignJudge:     true,
		ActionRemoveJudge:     true,
		ActionTriggerAIWriter: true,
		ActionConfigure:       true,
	},
	StatusEvaluation: {
		ActionWithdrawAny:    true,
		ActionVolunteer:      true,
		ActionAssignJudge:    true,
		ActionRemoveJudge:    true,
		ActionVote:           true,
		ActionTriggerAIJudge: true,
		ActionConfigure:      true,
	},
	StatusClosed: {
		ActionConfigure: true,
	},
}

var rejections = map[Action]error{
	ActionSubmit:          ErrNotOpen,
	ActionWithdrawOwn:     ErrNotPermitted,
	ActionWithdrawAny:     ErrNotPermitted,
	ActionAssignJudge:     ErrNotPermitted,
	ActionRemoveJudge:     ErrNotPermitted,
	ActionVote:            ErrNotEvaluation,
	ActionTriggerAIJudge:  ErrNotEvaluation,
	ActionTriggerAIWriter: ErrNotOpen,
}

func (s Status) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// Next is the single forward step from s. Closed has none.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusDraft:
		return StatusOpen, true
	case StatusOpen:
		return StatusEvaluation, true
	case StatusEvaluation:
		return StatusClosed, true
	default:
		return "", false
	}
}

// Permits reports whether action is legal while a contest is in status.
func Permits(status Status, action Action) error {
	if legalActions[status][action] {
		return nil
	}

	if action == ActionVolunteer {
		if statusOrder[status] < statusOrder[StatusOpen] {
			return fmt.Errorf("%w: cannot volunteer while %s", ErrNotOpen, status)
		}
		return fmt.Errorf("%w: cannot volunteer while %s", ErrNotEvaluation, status)
	}

	err, ok := rejections[action]
	if !ok {
		err = ErrNotPermitted
	}
	return fmt.Errorf("%w: %s not allowed while %s", err, action, status)
}

// CheckTransition validates moving from one status to another. A single
// forward step is always legal, anything else needs override. Moving to the
// current status is accepted and handled by the caller.
func CheckTransition(from, to Status, override bool) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	if from == to {
		return nil
	}
	if next, ok := from.Next(); ok && next == to {
		return nil
	}
	if override {
		return nil
	}

	return fmt.Errorf("%w: %s to %s requires override", ErrInvalidTransition, from, to)
}
