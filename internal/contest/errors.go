package contest

import "errors"

// Expected outcomes. Callers match them with errors.Is; anything else coming
// out of the service is a store failure.
var (
	// Unknown contest, or one the actor may not know exists
	ErrNotFound = errors.New("not found")
	// Listed contest behind a password that was missing or wrong
	ErrForbidden       = errors.New("contest password required")
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotPermitted    = errors.New("not permitted")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotOpen           = errors.New("contest is not open")
	ErrNotEvaluation     = errors.New("contest is not in evaluation")
	ErrDeadlinePassed    = errors.New("contest deadline has passed")

	ErrDuplicateAuthor = errors.New("author already has an active submission")
	ErrDuplicateText   = errors.New("text is already submitted to this contest")

	ErrInvalidBallot       = errors.New("invalid ballot")
	ErrDuplicatePlace      = errors.New("place assigned to more than one submission")
	ErrInsufficientRanking = errors.New("ballot ranks too few submissions")

	ErrConflict        = errors.New("conflict")
	ErrAlreadyAssigned = &conflictError{msg: "judge is already assigned"}

	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidInput        = errors.New("invalid input")
)

type conflictError struct {
	msg string
}

func (e *conflictError) Error() string {
	return e.msg
}

func (e *conflictError) Unwrap() error {
	return ErrConflict
}
