// Package memory is an in-process contest.Store. Transactions are serialized
// behind one mutex and work on a copy of the state that replaces the original
// on commit.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillfight/contest-api/internal/contest"
)

type state struct {
	contests    map[uuid.UUID]contest.Contest
	submissions map[uuid.UUID]contest.Submission
	judges      map[uuid.UUID]contest.JudgeAssignment
	votes       map[uuid.UUID]contest.Vote
	snapshots   map[uuid.UUID]contest.RankingSnapshot
}

func (s *state) clone() *state {
	return &state{
		contests:    maps.Clone(s.contests),
		submissions: maps.Clone(s.submissions),
		judges:      maps.Clone(s.judges),
		votes:       maps.Clone(s.votes),
		snapshots:   maps.Clone(s.snapshots),
	}
}

type database struct {
	mu    sync.Mutex
	state *state
}

type Store struct {
	db *database
	// Set on stores bound to a transaction. The database mutex is held and
	// writes go to this copy.
	tx *state
}

var _ contest.Store = (*Store)(nil)

func New() *Store {
	return &Store{db: &database{state: &state{
		contests:    map[uuid.UUID]contest.Contest{},
		submissions: map[uuid.UUID]contest.Submission{},
		judges:      map[uuid.UUID]contest.JudgeAssignment{},
		votes:       map[uuid.UUID]contest.Vote{},
		snapshots:   map[uuid.UUID]contest.RankingSnapshot{},
	}}}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx contest.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &Store{db: s.db, tx: s.db.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}

	s.db.state = tx.tx
	return nil
}

// view runs fn against the current state, in a transaction or not.
func (s *Store) view(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(s.db.state)
}

// update runs a single write. Outside a transaction it commits on success.
func (s *Store) update(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	next := s.db.state.clone()
	if err := fn(next); err != nil {
		return err
	}
	s.db.state = next
	return nil
}

func (s *Store) CreateContest(_ context.Context, c *contest.Contest) error {
	return s.update(func(st *state) error {
		if _, ok := st.contests[c.ID]; ok {
			return fmt.Errorf("%w: contest %s exists", contest.ErrConflict, c.ID)
		}
		st.contests[c.ID] = *c
		return nil
	})
}

func (s *Store) GetContest(_ context.Context, id uuid.UUID) (*contest.Contest, error) {
	var found contest.Contest
	err := s.view(func(st *state) error {
		c, ok := st.contests[id]
		if !ok {
			return contest.ErrNotFound
		}
		found = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// LockContest reads the contest. Transactions already exclude each other.
func (s *Store) LockContest(ctx context.Context, id uuid.UUID) (*contest.Contest, error) {
	return s.GetContest(ctx, id)
}

func (s *Store) ShareLockContest(ctx context.Context, id uuid.UUID) (*contest.Contest, error) {
	return s.GetContest(ctx, id)
}

func (s *Store) UpdateContest(_ context.Context, c *contest.Contest) error {
	return s.update(func(st *state) error {
		if _, ok := st.contests[c.ID]; !ok {
			return contest.ErrNotFound
		}
		st.contests[c.ID] = *c
		return nil
	})
}

func (s *Store) ListContests(_ context.Context, filter contest.ContestFilter) ([]contest.Contest, error) {
	var out []contest.Contest
	err := s.view(func(st *state) error {
		for _, c := range st.contests {
			visible := filter.All ||
				(c.PubliclyListed && c.Status != contest.StatusDraft) ||
				(filter.CreatorID != uuid.Nil && c.CreatorID == filter.CreatorID)
			if !visible {
				continue
			}
			if filter.Status != "" && c.Status != filter.Status {
				continue
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(a, b contest.Contest) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(b.ID[:], a.ID[:])
	})

	return paginate(out, filter.Limit, filter.Offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	if items == nil {
		return []T{}
	}
	return items
}

func (s *Store) ListExpiredContests(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.view(func(st *state) error {
		for _, c := range st.contests {
			if c.Status == contest.StatusOpen && c.DeadlinePassed(now) {
				ids = append(ids, c.ID)
			}
		}
		return nil
	})
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return ids, err
}

func (s *Store) CreateSubmission(_ context.Context, sub *contest.Submission) error {
	return s.update(func(st *state) error {
		for _, other := range st.submissions {
			if other.ContestID != sub.ContestID || !other.Active() {
				continue
			}
			if other.TextID == sub.TextID {
				return contest.ErrDuplicateText
			}
			if sub.ExclusiveAuthorID != nil && other.ExclusiveAuthorID != nil &&
				*other.ExclusiveAuthorID == *sub.ExclusiveAuthorID {
				return contest.ErrDuplicateAuthor
			}
		}
		st.submissions[sub.ID] = *sub
		return nil
	})
}

func (s *Store) GetSubmission(_ context.Context, contestID, id uuid.UUID) (*contest.Submission, error) {
	var found contest.Submission
	err := s.view(func(st *state) error {
		sub, ok := st.submissions[id]
		if !ok || sub.ContestID != contestID {
			return contest.ErrNotFound
		}
		found = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (s *Store) ListSubmissions(_ context.Context, contestID uuid.UUID) ([]contest.Submission, error) {
	out := []contest.Submission{}
	err := s.view(func(st *state) error {
		for _, sub := range st.submissions {
			if sub.ContestID == contestID {
				out = append(out, sub)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b contest.Submission) int {
		if c := a.SubmittedAt.Compare(b.SubmittedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out, err
}

func (s *Store) findSubmission(match func(sub *contest.Submission) bool) (*contest.Submission, error) {
	var found *contest.Submission
	err := s.view(func(st *state) error {
		for _, sub := range st.submissions {
			if sub.Active() && match(&sub) {
				found = &sub
				return nil
			}
		}
		return contest.ErrNotFound
	})
	return found, err
}

func (s *Store) ActiveSubmissionByText(_ context.Context, contestID, textID uuid.UUID) (*contest.Submission, error) {
	return s.findSubmission(func(sub *contest.Submission) bool {
		return sub.ContestID == contestID && sub.TextID == textID
	})
}

func (s *Store) ActiveSubmissionByAuthor(_ context.Context, contestID, authorID uuid.UUID) (*contest.Submission, error) {
	return s.findSubmission(func(sub *contest.Submission) bool {
		return sub.ContestID == contestID && sub.AuthorID == authorID
	})
}

func (s *Store) WithdrawSubmission(_ context.Context, id, by uuid.UUID, at time.Time) error {
	return s.update(func(st *state) error {
		sub, ok := st.submissions[id]
		if !ok || !sub.Active() {
			return contest.ErrNotFound
		}
		sub.WithdrawnAt = &at
		sub.WithdrawnBy = &by
		sub.ExclusiveAuthorID = nil
		st.submissions[id] = sub
		return nil
	})
}

func (s *Store) SetExclusiveAuthors(_ context.Context, contestID uuid.UUID, exclusive bool) error {
	return s.update(func(st *state) error {
		seen := map[uuid.UUID]bool{}
		for id, sub := range st.submissions {
			if sub.ContestID != contestID || !sub.Active() {
				continue
			}
			sub.ExclusiveAuthorID = nil
			if exclusive {
				if seen[sub.AuthorID] {
					return contest.ErrDuplicateAuthor
				}
				seen[sub.AuthorID] = true
				author := sub.AuthorID
				sub.ExclusiveAuthorID = &author
			}
			st.submissions[id] = sub
		}
		return nil
	})
}

func sameRef(a, b *uuid.UUID) bool {
	return a != nil && b != nil && *a == *b
}

func (s *Store) CreateJudge(_ context.Context, j *contest.JudgeAssignment) error {
	return s.update(func(st *state) error {
		for _, other := range st.judges {
			if other.ContestID != j.ContestID || !other.Active() {
				continue
			}
			if sameRef(other.UserID, j.UserID) || sameRef(other.AgentID, j.AgentID) {
				return contest.ErrAlreadyAssigned
			}
		}
		st.judges[j.ID] = *j
		return nil
	})
}

func (s *Store) GetJudge(_ context.Context, contestID, id uuid.UUID) (*contest.JudgeAssignment, error) {
	var found contest.JudgeAssignment
	err := s.view(func(st *state) error {
		j, ok := st.judges[id]
		if !ok || j.ContestID != contestID {
			return contest.ErrNotFound
		}
		found = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (s *Store) LockJudge(ctx context.Context, contestID, id uuid.UUID) (*contest.JudgeAssignment, error) {
	return s.GetJudge(ctx, contestID, id)
}

func (s *Store) ActiveJudge(_ context.Context, contestID uuid.UUID, ref contest.JudgeRef) (*contest.JudgeAssignment, error) {
	var found *contest.JudgeAssignment
	err := s.view(func(st *state) error {
		for _, j := range st.judges {
			if j.ContestID != contestID || !j.Active() {
				continue
			}
			if sameRef(j.UserID, ref.UserID) || sameRef(j.AgentID, ref.AgentID) {
				found = &j
				return nil
			}
		}
		return contest.ErrNotFound
	})
	return found, err
}

func (s *Store) ListJudges(_ context.Context, contestID uuid.UUID) ([]contest.JudgeAssignment, error) {
	out := []contest.JudgeAssignment{}
	err := s.view(func(st *state) error {
		for _, j := range st.judges {
			if j.ContestID == contestID {
				out = append(out, j)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b contest.JudgeAssignment) int {
		if c := a.AssignedAt.Compare(b.AssignedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out, err
}

func (s *Store) RemoveJudge(_ context.Context, id uuid.UUID, at time.Time) error {
	return s.update(func(st *state) error {
		j, ok := st.judges[id]
		if !ok || !j.Active() {
			return contest.ErrNotFound
		}
		j.RemovedAt = &at
		st.judges[id] = j
		return nil
	})
}

func (s *Store) ReplaceBallot(_ context.Context, judgeID uuid.UUID, expectedVersion int64, votes []contest.Vote) error {
	return s.update(func(st *state) error {
		j, ok := st.judges[judgeID]
		if !ok {
			return contest.ErrNotFound
		}
		if j.BallotVersion != expectedVersion {
			return fmt.Errorf("%w: ballot version moved from %d", contest.ErrConflict, expectedVersion)
		}

		for id, v := range st.votes {
			if v.JudgeAssignmentID == judgeID {
				delete(st.votes, id)
			}
		}

		places := map[int]bool{}
		submissions := map[uuid.UUID]bool{}
		for _, v := range votes {
			if v.Place != nil {
				if places[*v.Place] {
					return contest.ErrDuplicatePlace
				}
				places[*v.Place] = true
			}
			if submissions[v.SubmissionID] {
				return contest.ErrInvalidBallot
			}
			submissions[v.SubmissionID] = true
			st.votes[v.ID] = v
		}

		j.BallotVersion++
		st.judges[judgeID] = j
		return nil
	})
}

func sortVotes(votes []contest.Vote) {
	slices.SortFunc(votes, func(a, b contest.Vote) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
}

func (s *Store) ListBallot(_ context.Context, judgeID uuid.UUID) ([]contest.Vote, error) {
	out := []contest.Vote{}
	err := s.view(func(st *state) error {
		for _, v := range st.votes {
			if v.JudgeAssignmentID == judgeID {
				out = append(out, v)
			}
		}
		return nil
	})
	sortVotes(out)
	return out, err
}

func (s *Store) ListVotes(_ context.Context, contestID uuid.UUID) ([]contest.Vote, error) {
	out := []contest.Vote{}
	err := s.view(func(st *state) error {
		for _, v := range st.votes {
			if v.ContestID == contestID {
				out = append(out, v)
			}
		}
		return nil
	})
	sortVotes(out)
	return out, err
}

func (s *Store) SaveRankingSnapshot(_ context.Context, snapshot *contest.RankingSnapshot) error {
	return s.update(func(st *state) error {
		st.snapshots[snapshot.ContestID] = *snapshot
		return nil
	})
}

func (s *Store) GetRankingSnapshot(_ context.Context, contestID uuid.UUID) (*contest.RankingSnapshot, error) {
	var found contest.RankingSnapshot
	err := s.view(func(st *state) error {
		snapshot, ok := st.snapshots[contestID]
		if !ok {
			return contest.ErrNotFound
		}
		found = snapshot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (s *Store) DeleteRankingSnapshot(_ context.Context, contestID uuid.UUID) error {
	return s.update(func(st *state) error {
		if _, ok := st.snapshots[contestID]; !ok {
			return contest.ErrNotFound
		}
		delete(st.snapshots, contestID)
		return nil
	})
}
