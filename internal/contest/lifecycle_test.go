package contest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermits(t *testing.T) {
	type row map[Action]error

	expected := map[Status]row{
		StatusDraft: {
			ActionSubmit:          ErrNotOpen,
			ActionWithdrawOwn:     ErrNotPermitted,
			ActionWithdrawAny:     ErrNotPermitted,
			ActionVolunteer:       ErrNotOpen,
			ActionVote:            ErrNotEvaluation,
			ActionTriggerAIJudge:  ErrNotEvaluation,
			ActionTriggerAIWriter: ErrNotOpen,
			ActionAssignJudge:     nil,
			ActionConfigure:       nil,
		},
		StatusOpen: {
			ActionSubmit:          nil,
			ActionWithdrawOwn:     nil,
			ActionWithdrawAny:     nil,
			ActionVolunteer:       nil,
			ActionVote:            ErrNotEvaluation,
			ActionTriggerAIJudge:  ErrNotEvaluation,
			ActionTriggerAIWriter: nil,
			ActionAssignJudge:     nil,
			ActionConfigure:       nil,
		},
		StatusEvaluation: {
			ActionSubmit:          ErrNotOpen,
			ActionWithdrawOwn:     ErrNotPermitted,
			ActionWithdrawAny:     nil,
			ActionVolunteer:       nil,
			ActionVote:            nil,
			ActionTriggerAIJudge:  nil,
			ActionTriggerAIWriter: ErrNotOpen,
			ActionAssignJudge:     nil,
			ActionConfigure:       nil,
		},
		StatusClosed: {
			ActionSubmit:          ErrNotOpen,
			ActionWithdrawOwn:     ErrNotPermitted,
			ActionWithdrawAny:     ErrNotPermitted,
			ActionVolunteer:       ErrNotEvaluation,
			ActionVote:            ErrNotEvaluation,
			ActionTriggerAIJudge:  ErrNotEvaluation,
			ActionTriggerAIWriter: ErrNotOpen,
			ActionAssignJudge:     ErrNotPermitted,
			ActionRemoveJudge:     ErrNotPermitted,
			ActionConfigure:       nil,
		},
	}

	for status, actions := range expected {
		for action, want := range actions {
			t.Run(string(status)+"/"+string(action), func(t *testing.T) {
				err := Permits(status, action)
				if want == nil {
					assert.NoError(t, err)
					return
				}
				assert.ErrorIs(t, err, want)
			})
		}
	}
}

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from     Status
		to       Status
		override bool
		want     error
	}{
		{from: StatusDraft, to: StatusOpen},
		{from: StatusOpen, to: StatusEvaluation},
		{from: StatusEvaluation, to: StatusClosed},
		{from: StatusOpen, to: StatusOpen},
		{from: StatusClosed, to: StatusClosed},
		{from: StatusDraft, to: StatusEvaluation, want: ErrInvalidTransition},
		{from: StatusDraft, to: StatusClosed, want: ErrInvalidTransition},
		{from: StatusEvaluation, to: StatusOpen, want: ErrInvalidTransition},
		{from: StatusClosed, to: StatusEvaluation, want: ErrInvalidTransition},
		{from: StatusClosed, to: StatusDraft, want: ErrInvalidTransition},
		{from: StatusDraft, to: StatusClosed, override: true},
		{from: StatusClosed, to: StatusEvaluation, override: true},
		{from: StatusOpen, to: "archived", want: ErrInvalidInput},
		{from: StatusOpen, to: "archived", override: true, want: ErrInvalidInput},
	}

	for _, tt := range tests {
		name := string(tt.from) + "->" + string(tt.to)
		if tt.override {
			name += "/override"
		}
		t.Run(name, func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to, tt.override)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStatusNext(t *testing.T) {
	next, ok := StatusDraft.Next()
	require.True(t, ok)
	assert.Equal(t, StatusOpen, next)

	next, ok = StatusEvaluation.Next()
	require.True(t, ok)
	assert.Equal(t, StatusClosed, next)

	_, ok = StatusClosed.Next()
	assert.False(t, ok)

	assert.False(t, Status("archived").Valid())
}
