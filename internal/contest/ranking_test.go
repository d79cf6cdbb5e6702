package contest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func place(p int) *int {
	return &p
}

type rankingFixture struct {
	contestID   uuid.UUID
	submissions []Submission
	judges      []JudgeAssignment
	votes       []Vote
}

func newRankingFixture(submissions int) *rankingFixture {
	f := &rankingFixture{contestID: uuid.New()}
	for i := range submissions {
		f.submissions = append(f.submissions, Submission{
			ID:          uuid.New(),
			ContestID:   f.contestID,
			TextID:      uuid.New(),
			AuthorID:    uuid.New(),
			SubmittedAt: epoch.Add(time.Duration(i) * time.Minute),
		})
	}
	return f
}

func (f *rankingFixture) human() *JudgeAssignment {
	user := uuid.New()
	f.judges = append(f.judges, JudgeAssignment{
		ID:         uuid.New(),
		ContestID:  f.contestID,
		UserID:     &user,
		AssignedAt: epoch,
	})
	return &f.judges[len(f.judges)-1]
}

func (f *rankingFixture) agent() *JudgeAssignment {
	agent := uuid.New()
	f.judges = append(f.judges, JudgeAssignment{
		ID:         uuid.New(),
		ContestID:  f.contestID,
		AgentID:    &agent,
		AssignedAt: epoch,
	})
	return &f.judges[len(f.judges)-1]
}

func (f *rankingFixture) vote(judgeID uuid.UUID, sub int, p *int) {
	f.votes = append(f.votes, Vote{
		ID:                uuid.New(),
		ContestID:         f.contestID,
		JudgeAssignmentID: judgeID,
		SubmissionID:      f.submissions[sub].ID,
		Place:             p,
	})
}

func (f *rankingFixture) compute(filter JudgeFilter) []Standing {
	return ComputeRanking(f.submissions, f.judges, f.votes, filter)
}

func order(standings []Standing) []uuid.UUID {
	ids := make([]uuid.UUID, len(standings))
	for i := range standings {
		ids[i] = standings[i].SubmissionID
	}
	return ids
}

func scores(standings []Standing) []int {
	out := make([]int, len(standings))
	for i := range standings {
		out[i] = standings[i].Score
	}
	return out
}

func TestComputeRankingSingleJudge(t *testing.T) {
	f := newRankingFixture(4)
	j1 := f.human().ID
	f.vote(j1, 0, place(1))
	f.vote(j1, 1, place(2))
	f.vote(j1, 2, place(3))

	standings := f.compute(JudgeFilter{})

	require.Len(t, standings, 4)
	assert.Equal(t, []uuid.UUID{
		f.submissions[0].ID,
		f.submissions[1].ID,
		f.submissions[2].ID,
		f.submissions[3].ID,
	}, order(standings))
	assert.Equal(t, []int{3, 2, 1, 0}, scores(standings))
	for i := range standings {
		assert.Equal(t, i+1, standings[i].Position)
	}
	assert.Empty(t, standings[3].ContributingVotes)
}

func TestComputeRankingSumsJudges(t *testing.T) {
	f := newRankingFixture(2)
	j1 := f.human().ID
	j2 := f.human().ID
	f.vote(j1, 0, place(1))
	f.vote(j2, 0, place(3))

	standings := f.compute(JudgeFilter{})

	require.Len(t, standings, 2)
	assert.Equal(t, f.submissions[0].ID, standings[0].SubmissionID)
	assert.Equal(t, 4, standings[0].Score)
	require.Len(t, standings[0].ContributingVotes, 2)
	assert.Equal(t, 1, standings[0].ContributingVotes[0].Place)
	assert.Equal(t, 3, standings[0].ContributingVotes[0].Points)
	assert.Equal(t, 3, standings[0].ContributingVotes[1].Place)
	assert.Equal(t, 1, standings[0].ContributingVotes[1].Points)
}

func TestComputeRankingTies(t *testing.T) {
	f := newRankingFixture(3)
	j1 := f.human().ID
	j2 := f.human().ID
	// Submissions 1 and 2 both reach 3 points. The earlier one wins.
	f.vote(j1, 2, place(1))
	f.vote(j2, 1, place(1))

	standings := f.compute(JudgeFilter{})

	assert.Equal(t, []int{3, 3, 0}, scores(standings))
	assert.Equal(t, f.submissions[1].ID, standings[0].SubmissionID)
	assert.Equal(t, f.submissions[2].ID, standings[1].SubmissionID)

	t.Run("same instant falls back to id", func(t *testing.T) {
		g := newRankingFixture(2)
		g.submissions[1].SubmittedAt = g.submissions[0].SubmittedAt

		standings := g.compute(JudgeFilter{})

		first, second := g.submissions[0].ID, g.submissions[1].ID
		if string(second[:]) < string(first[:]) {
			first, second = second, first
		}
		assert.Equal(t, []uuid.UUID{first, second}, order(standings))
	})
}

func TestComputeRankingExclusions(t *testing.T) {
	f := newRankingFixture(3)
	kept := f.human().ID
	removed := f.human()
	removedAt := epoch.Add(time.Hour)
	removed.RemovedAt = &removedAt

	f.vote(kept, 0, place(1))
	f.vote(kept, 1, place(2))
	f.vote(kept, 2, nil)
	f.vote(removed.ID, 1, place(1))

	withdrawnAt := epoch.Add(time.Hour)
	f.submissions[0].WithdrawnAt = &withdrawnAt

	standings := f.compute(JudgeFilter{})

	require.Len(t, standings, 2)
	assert.Equal(t, f.submissions[1].ID, standings[0].SubmissionID)
	assert.Equal(t, 2, standings[0].Score)
	assert.Equal(t, f.submissions[2].ID, standings[1].SubmissionID)
	assert.Equal(t, 0, standings[1].Score)
}

func TestComputeRankingFilters(t *testing.T) {
	f := newRankingFixture(2)
	human := f.human().ID
	ai := f.agent().ID
	f.vote(human, 0, place(1))
	f.vote(ai, 1, place(1))
	f.vote(ai, 0, place(3))

	t.Run("kind", func(t *testing.T) {
		standings := f.compute(JudgeFilter{Kind: JudgeAI})
		assert.Equal(t, f.submissions[1].ID, standings[0].SubmissionID)
		assert.Equal(t, []int{3, 1}, scores(standings))
		assert.Equal(t, JudgeAI, standings[0].ContributingVotes[0].Kind)
	})

	t.Run("assignments", func(t *testing.T) {
		standings := f.compute(JudgeFilter{AssignmentIDs: []uuid.UUID{human}})
		assert.Equal(t, f.submissions[0].ID, standings[0].SubmissionID)
		assert.Equal(t, []int{3, 0}, scores(standings))
	})

	t.Run("unfiltered", func(t *testing.T) {
		assert.Equal(t, []int{4, 3}, scores(f.compute(JudgeFilter{})))
	})
}

func TestComputeRankingIsPure(t *testing.T) {
	f := newRankingFixture(4)
	j1 := f.human().ID
	j2 := f.agent().ID
	f.vote(j1, 3, place(1))
	f.vote(j1, 0, place(2))
	f.vote(j2, 0, place(1))
	f.vote(j2, 2, place(2))

	first := f.compute(JudgeFilter{})

	// Input order must not matter.
	f.votes[0], f.votes[3] = f.votes[3], f.votes[0]
	f.submissions[0], f.submissions[2] = f.submissions[2], f.submissions[0]

	assert.Equal(t, first, f.compute(JudgeFilter{}))
}

func TestInputsHash(t *testing.T) {
	f := newRankingFixture(2)
	j1 := f.human().ID
	f.vote(j1, 0, place(1))

	before := InputsHash(f.submissions, f.judges, f.votes, JudgeFilter{})
	assert.Len(t, before, 64)

	// Comment only votes do not change what counts.
	f.vote(j1, 1, nil)
	assert.Equal(t, before, InputsHash(f.submissions, f.judges, f.votes, JudgeFilter{}))

	f.votes[1].Place = place(2)
	assert.NotEqual(t, before, InputsHash(f.submissions, f.judges, f.votes, JudgeFilter{}))
}

func TestSummarizeCompletion(t *testing.T) {
	f := newRankingFixture(4)
	full := f.human().ID
	partial := f.human().ID
	f.human()
	f.vote(full, 0, place(1))
	f.vote(full, 1, place(2))
	f.vote(full, 2, place(3))
	f.vote(partial, 3, place(1))
	f.vote(partial, 0, nil)
	f.votes[len(f.votes)-1].Comment = "lovely imagery"

	c := &Contest{ID: f.contestID, MinVotesRequired: 5}
	completion := summarizeCompletion(c, f.submissions, f.judges, f.votes)

	assert.Equal(t, 3, completion.Required)
	assert.Equal(t, 3, completion.Total)
	assert.Equal(t, 2, completion.Completed)
	require.Len(t, completion.Judges, 3)

	byID := map[uuid.UUID]JudgeCompletion{}
	for _, jc := range completion.Judges {
		byID[jc.Judge.ID] = jc
	}
	assert.True(t, byID[full].MeetsMinimum)
	assert.Equal(t, 3, byID[full].Ranked)
	assert.True(t, byID[partial].HasVoted)
	assert.False(t, byID[partial].MeetsMinimum)
	assert.Equal(t, 1, byID[partial].Comments)
}
