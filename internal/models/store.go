package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quillfight/contest-api/internal/contest"
)

// Store implements contest.Store on postgres.
type Store struct {
	db *gorm.DB
	// Bound to an open transaction
	inTx    bool
	backoff func() retry.Backoff
}

var _ contest.Store = (*Store)(nil)

// NewStore wraps db. Transactions aborted by a serialization failure or a
// deadlock are run again up to retries times.
func NewStore(db *gorm.DB, retries uint64) *Store {
	return &Store{
		db: db,
		backoff: func() retry.Backoff {
			b := retry.NewFibonacci(25 * time.Millisecond)
			b = retry.WithMaxRetries(retries, b)
			return b
		},
	}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *Store) Transaction(ctx context.Context, fn func(tx contest.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	ctx, span := tracer.Start(ctx, "Store.Transaction")
	defer span.End()

	attempts := 0
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		attempts++
		err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&Store{db: tx, inTx: true, backoff: s.backoff})
		})
		if retryable(err) {
			span.AddEvent("retrying_transaction")
			return retry.RetryableError(err)
		}
		return err
	})
	span.SetAttributes(attribute.Int("attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
		return err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return nil
}

// inTransaction runs fn in the current transaction or a new one.
func (s *Store) inTransaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.Transaction(ctx, func(tx contest.Store) error {
		return fn(tx.(*Store))
	})
}

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
}

// unique indexes that back domain rules
var uniqueViolations = map[string]error{
	"submission_active_text_idx":             contest.ErrDuplicateText,
	"submission_active_exclusive_author_idx": contest.ErrDuplicateAuthor,
	"judge_assignment_active_user_idx":       contest.ErrAlreadyAssigned,
	"judge_assignment_active_agent_idx":      contest.ErrAlreadyAssigned,
	"vote_judge_place_idx":                   contest.ErrDuplicatePlace,
	"vote_judge_submission_unique":           contest.ErrInvalidBallot,
}

// translate maps driver errors onto the errors contest.Store promises.
func translate(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return contest.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if mapped, ok := uniqueViolations[pgErr.ConstraintName]; ok {
			return mapped
		}
		return fmt.Errorf("%w: %s", contest.ErrConflict, pgErr.ConstraintName)
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", contest.ErrConflict, err)
	}

	return err
}

func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

func lockForShare() clause.Locking {
	return clause.Locking{Strength: "SHARE"}
}

// failed records err on span and returns it translated. Missing rows are an
// expected outcome and leave the span ok.
func failed(span trace.Span, err error) error {
	translated := translate(err)
	span.RecordError(err)
	if errors.Is(translated, contest.ErrNotFound) {
		span.SetStatus(codes.Ok, "not found")
	} else {
		span.SetStatus(codes.Error, translated.Error())
	}
	return translated
}
