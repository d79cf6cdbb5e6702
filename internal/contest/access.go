package contest

import "fmt"

// Grant is what an actor holds beyond their identity when reading a contest.
type Grant struct {
	// Actor has an active judge assignment in the contest
	Judge bool
}

// CanRead decides whether actor may see the contest at all. Unlisted and
// draft contests are indistinguishable from missing ones.
func CanRead(actor Actor, c *Contest, grant Grant) error {
	if c.IsPrivileged(actor) || (actor.Authenticated && actor.System) || grant.Judge {
		return nil
	}

	if !c.PubliclyListed || c.Status == StatusDraft {
		return ErrNotFound
	}

	if c.PasswordProtected && !CheckPassword(actor.ContestPassword, c.PasswordHash) {
		return ErrForbidden
	}

	return nil
}

// CanWrite layers authentication, role rules and the lifecycle table on top of
// CanRead.
func CanWrite(actor Actor, c *Contest, grant Grant, action Action) error {
	if err := CanRead(actor, c, grant); err != nil {
		return err
	}

	if !actor.Authenticated {
		return ErrUnauthenticated
	}

	privileged := c.IsPrivileged(actor)
	switch action {
	case ActionAssignJudge, ActionRemoveJudge, ActionWithdrawAny, ActionConfigure, ActionTriggerAIJudge:
		if !privileged {
			return fmt.Errorf("%w: %s is reserved to the creator", ErrNotPermitted, action)
		}
	case ActionVolunteer:
		if c.JudgeRestrictions && !privileged {
			return fmt.Errorf("%w: judges are assigned by the creator", ErrNotPermitted)
		}
	case ActionSubmit, ActionWithdrawOwn, ActionVote, ActionTriggerAIWriter:
	}

	return Permits(c.Status, action)
}
