package contest

import (
	"bytes"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/quillfight/contest-api/internal/hash"
)

// JudgeFilter narrows which judge assignments count toward a ranking. The zero
// value counts every active judge.
type JudgeFilter struct {
	AssignmentIDs []uuid.UUID
	Kind          JudgeKind
}

func (f JudgeFilter) IsZero() bool {
	return len(f.AssignmentIDs) == 0 && f.Kind == ""
}

func (f JudgeFilter) admits(j *JudgeAssignment) bool {
	if len(f.AssignmentIDs) > 0 && !slices.Contains(f.AssignmentIDs, j.ID) {
		return false
	}
	if f.Kind != "" && j.Kind() != f.Kind {
		return false
	}
	return true
}

type ContributingVote struct {
	JudgeAssignmentID uuid.UUID `json:"judge_assignment_id"`
	Kind              JudgeKind `json:"kind"`
	Place             int       `json:"place"`
	Points            int       `json:"points"`
}

type Standing struct {
	Position          int                `json:"position"`
	SubmissionID      uuid.UUID          `json:"submission_id"`
	TextID            uuid.UUID          `json:"text_id"`
	AuthorID          uuid.UUID          `json:"author_id"`
	SubmittedAt       time.Time          `json:"submitted_at"`
	Score             int                `json:"score"`
	ContributingVotes []ContributingVote `json:"contributing_votes"`
}

// RankingSnapshot is the frozen ranking of a closed contest.
type RankingSnapshot struct {
	ContestID  uuid.UUID  `json:"contest_id"`
	ComputedAt time.Time  `json:"computed_at"`
	InputsHash string     `json:"inputs_hash"`
	Standings  []Standing `json:"standings"`
}

// Ranking is the result of a ranking query.
type Ranking struct {
	Standings  []Standing
	InputsHash string
	// Served from the snapshot frozen at close
	Frozen     bool
	ComputedAt time.Time
}

// ComputeRanking scores every active submission from the counted votes. It has
// no side effects and returns the same standings for the same inputs.
//
// A vote counts when its submission is active, its judge assignment is not
// removed and passes filter, and it holds a place of 1 to 3. Standings order by
// score descending, then submission time, then submission id.
func ComputeRanking(submissions []Submission, judges []JudgeAssignment, votes []Vote, filter JudgeFilter) []Standing {
	counted := countedVotes(submissions, judges, votes, filter)

	standings := make([]Standing, 0, len(submissions))
	index := make(map[uuid.UUID]int, len(submissions))
	for i := range submissions {
		s := &submissions[i]
		if !s.Active() {
			continue
		}
		index[s.ID] = len(standings)
		standings = append(standings, Standing{
			SubmissionID:      s.ID,
			TextID:            s.TextID,
			AuthorID:          s.AuthorID,
			SubmittedAt:       s.SubmittedAt,
			ContributingVotes: []ContributingVote{},
		})
	}

	for _, cv := range counted {
		st := &standings[index[cv.submissionID]]
		st.Score += cv.vote.Points
		st.ContributingVotes = append(st.ContributingVotes, cv.vote)
	}

	slices.SortFunc(standings, func(a, b Standing) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		if c := a.SubmittedAt.Compare(b.SubmittedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.SubmissionID[:], b.SubmissionID[:])
	})

	for i := range standings {
		standings[i].Position = i + 1
		slices.SortFunc(standings[i].ContributingVotes, func(a, b ContributingVote) int {
			if a.Place != b.Place {
				return a.Place - b.Place
			}
			return bytes.Compare(a.JudgeAssignmentID[:], b.JudgeAssignmentID[:])
		})
	}

	return standings
}

// InputsHash digests the canonical set of counted votes. Two rankings computed
// from the same counted votes share the hash.
func InputsHash(submissions []Submission, judges []JudgeAssignment, votes []Vote, filter JudgeFilter) string {
	counted := countedVotes(submissions, judges, votes, filter)

	lines := make([]string, 0, len(counted))
	for _, cv := range counted {
		lines = append(lines, fmt.Sprintf("%s|%s|%d", cv.vote.JudgeAssignmentID, cv.submissionID, cv.vote.Place))
	}

	return hash.Lines(lines)
}

type countedVote struct {
	submissionID uuid.UUID
	vote         ContributingVote
}

func countedVotes(submissions []Submission, judges []JudgeAssignment, votes []Vote, filter JudgeFilter) []countedVote {
	active := make(map[uuid.UUID]bool, len(submissions))
	for i := range submissions {
		if submissions[i].Active() {
			active[submissions[i].ID] = true
		}
	}

	eligible := make(map[uuid.UUID]JudgeKind, len(judges))
	for i := range judges {
		j := &judges[i]
		if j.Active() && filter.admits(j) {
			eligible[j.ID] = j.Kind()
		}
	}

	counted := make([]countedVote, 0, len(votes))
	for i := range votes {
		v := &votes[i]
		kind, ok := eligible[v.JudgeAssignmentID]
		if !ok || !active[v.SubmissionID] || !v.Ranked() {
			continue
		}
		counted = append(counted, countedVote{
			submissionID: v.SubmissionID,
			vote: ContributingVote{
				JudgeAssignmentID: v.JudgeAssignmentID,
				Kind:              kind,
				Place:             *v.Place,
				Points:            v.Points(),
			},
		})
	}

	return counted
}
