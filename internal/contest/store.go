package contest

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ContestFilter struct {
	// Every contest regardless of listing. Admin only.
	All bool
	// Also include contests created by this account
	CreatorID uuid.UUID
	Status    Status
	Limit     int
	Offset    int
}

// Store persists contests and everything hanging off them. Lookups of missing
// rows return ErrNotFound. Uniqueness violations map to ErrDuplicateText,
// ErrDuplicateAuthor or ErrConflict.
type Store interface {
	// Transaction runs fn against a store bound to a single transaction. Row
	// locks taken through the bound store are held until fn returns.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateContest(ctx context.Context, c *Contest) error
	GetContest(ctx context.Context, id uuid.UUID) (*Contest, error)
	// LockContest reads the contest and locks its row.
	LockContest(ctx context.Context, id uuid.UUID) (*Contest, error)
	// ShareLockContest reads the contest and blocks writers of its row, but
	// not other share lockers.
	ShareLockContest(ctx context.Context, id uuid.UUID) (*Contest, error)
	UpdateContest(ctx context.Context, c *Contest) error
	ListContests(ctx context.Context, filter ContestFilter) ([]Contest, error)
	// Ids of open contests whose end date is before now
	ListExpiredContests(ctx context.Context, now time.Time) ([]uuid.UUID, error)

	CreateSubmission(ctx context.Context, s *Submission) error
	GetSubmission(ctx context.Context, contestID, id uuid.UUID) (*Submission, error)
	ListSubmissions(ctx context.Context, contestID uuid.UUID) ([]Submission, error)
	ActiveSubmissionByText(ctx context.Context, contestID, textID uuid.UUID) (*Submission, error)
	ActiveSubmissionByAuthor(ctx context.Context, contestID, authorID uuid.UUID) (*Submission, error)
	WithdrawSubmission(ctx context.Context, id, by uuid.UUID, at time.Time) error
	// SetExclusiveAuthors marks every active submission of the contest as
	// holding its author's single slot, or releases them all. Fails with
	// ErrDuplicateAuthor when an author holds two active submissions.
	SetExclusiveAuthors(ctx context.Context, contestID uuid.UUID, exclusive bool) error

	CreateJudge(ctx context.Context, j *JudgeAssignment) error
	GetJudge(ctx context.Context, contestID, id uuid.UUID) (*JudgeAssignment, error)
	// LockJudge reads the assignment and locks its row.
	LockJudge(ctx context.Context, contestID, id uuid.UUID) (*JudgeAssignment, error)
	ActiveJudge(ctx context.Context, contestID uuid.UUID, ref JudgeRef) (*JudgeAssignment, error)
	ListJudges(ctx context.Context, contestID uuid.UUID) ([]JudgeAssignment, error)
	RemoveJudge(ctx context.Context, id uuid.UUID, at time.Time) error

	// ReplaceBallot swaps every vote of the assignment for votes and bumps
	// its ballot version. Fails with ErrConflict when the stored version no
	// longer equals expectedVersion.
	ReplaceBallot(ctx context.Context, judgeID uuid.UUID, expectedVersion int64, votes []Vote) error
	ListBallot(ctx context.Context, judgeID uuid.UUID) ([]Vote, error)
	ListVotes(ctx context.Context, contestID uuid.UUID) ([]Vote, error)

	SaveRankingSnapshot(ctx context.Context, s *RankingSnapshot) error
	GetRankingSnapshot(ctx context.Context, contestID uuid.UUID) (*RankingSnapshot, error)
	DeleteRankingSnapshot(ctx context.Context, contestID uuid.UUID) error
}
