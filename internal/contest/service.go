package contest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quillfight/contest-api/internal/audit"
)

type Service struct {
	store      Store
	credits    CreditGate
	dispatcher Dispatcher
	publisher  ResultsPublisher
	costs      Costs
	// Clock used for deadlines and timestamps
	Now func() time.Time
}

// NewService wires the core to its collaborators. credits, dispatcher and
// publisher may be nil, which disables AI triggers and results publishing.
func NewService(
	store Store,
	credits CreditGate,
	dispatcher Dispatcher,
	publisher ResultsPublisher,
	costs Costs,
) *Service {
	return &Service{
		store:      store,
		credits:    credits,
		dispatcher: dispatcher,
		publisher:  publisher,
		costs:      costs,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

type receivedAtKey struct{}

// WithReceivedAt pins the clock of every service call made with ctx to t.
func WithReceivedAt(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, receivedAtKey{}, t.UTC())
}

func ReceivedAt(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(receivedAtKey{}).(time.Time)
	return t, ok
}

func (s *Service) now(ctx context.Context) time.Time {
	if t, ok := ReceivedAt(ctx); ok {
		return t
	}
	return s.Now()
}

var expectedErrors = []error{
	ErrNotFound,
	ErrForbidden,
	ErrUnauthenticated,
	ErrNotPermitted,
	ErrInvalidTransition,
	ErrNotOpen,
	ErrNotEvaluation,
	ErrDeadlinePassed,
	ErrDuplicateAuthor,
	ErrDuplicateText,
	ErrInvalidBallot,
	ErrDuplicatePlace,
	ErrInsufficientRanking,
	ErrConflict,
	ErrInsufficientCredits,
	ErrInvalidInput,
}

// IsExpected reports whether err is a domain outcome rather than a failure of
// the store or a collaborator.
func IsExpected(err error) bool {
	for _, e := range expectedErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func finish(span trace.Span, err error) {
	if err == nil {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "")
		return
	}

	span.RecordError(err)
	if IsExpected(err) {
		span.SetStatus(codes.Ok, err.Error())
		return
	}
	span.SetStatus(codes.Error, err.Error())
}

func newID() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to generate id: %w", err)
	}
	return id, nil
}

// grant looks up what the actor holds in the contest beyond their identity.
func (s *Service) grant(ctx context.Context, st Store, actor Actor, c *Contest) (Grant, error) {
	if !actor.Authenticated || c.IsPrivileged(actor) {
		return Grant{}, nil
	}

	userID := actor.ID
	_, err := st.ActiveJudge(ctx, c.ID, JudgeRef{UserID: &userID})
	if errors.Is(err, ErrNotFound) {
		return Grant{}, nil
	}
	if err != nil {
		return Grant{}, err
	}

	return Grant{Judge: true}, nil
}

type lockMode int

const (
	lockNone lockMode = iota
	lockShared
	lockExclusive
)

// load reads the contest and resolves the actor's grant on it. The contest is
// hidden behind ErrNotFound or ErrForbidden when the actor may not read it.
func (s *Service) load(
	ctx context.Context,
	st Store,
	actor Actor,
	id uuid.UUID,
	mode lockMode,
) (*Contest, Grant, error) {
	var c *Contest
	var err error
	switch mode {
	case lockExclusive:
		c, err = st.LockContest(ctx, id)
	case lockShared:
		c, err = st.ShareLockContest(ctx, id)
	default:
		c, err = st.GetContest(ctx, id)
	}
	if err != nil {
		return nil, Grant{}, err
	}

	grant, err := s.grant(ctx, st, actor, c)
	if err != nil {
		return nil, Grant{}, err
	}

	if err := CanRead(actor, c, grant); err != nil {
		return nil, Grant{}, err
	}

	return c, grant, nil
}

type ContestConfig struct {
	Title              string
	Description        string
	PubliclyListed     bool
	Password           string
	EndDate            *time.Time
	AuthorRestrictions bool
	JudgeRestrictions  bool
	MinVotesRequired   int
}

// ContestUpdate changes only the non-nil fields. A non-nil empty Password
// removes the protection.
type ContestUpdate struct {
	Title              *string
	Description        *string
	PubliclyListed     *bool
	Password           *string
	EndDate            *time.Time
	ClearEndDate       bool
	AuthorRestrictions *bool
	JudgeRestrictions  *bool
	MinVotesRequired   *int
}

type Counts struct {
	Submissions  int
	Participants int
	Judges       int
}

type ContestView struct {
	Contest
	Counts Counts
}

func (s *Service) CreateContest(ctx context.Context, actor Actor, cfg ContestConfig) (*Contest, error) {
	ctx, span := tracer.Start(ctx, "Service.CreateContest")
	defer span.End()

	c, err := s.createContest(ctx, actor, cfg)
	finish(span, err)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("contest.id", c.ID.String()))
	audit.LogContestCreated(audit.NewContext(c.ID, actor.ID), c.Title, c.PubliclyListed, c.PasswordProtected)

	return c, nil
}

func (s *Service) createContest(ctx context.Context, actor Actor, cfg ContestConfig) (*Contest, error) {
	if !actor.Authenticated {
		return nil, ErrUnauthenticated
	}

	title := strings.TrimSpace(cfg.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if cfg.MinVotesRequired < 0 {
		return nil, fmt.Errorf("%w: min votes required must not be negative", ErrInvalidInput)
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := s.now(ctx)
	c := &Contest{
		ID:                 id,
		Title:              title,
		Description:        cfg.Description,
		PubliclyListed:     cfg.PubliclyListed,
		Status:             StatusDraft,
		EndDate:            cfg.EndDate,
		AuthorRestrictions: cfg.AuthorRestrictions,
		JudgeRestrictions:  cfg.JudgeRestrictions,
		MinVotesRequired:   cfg.MinVotesRequired,
		CreatorID:          actor.ID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if cfg.Password != "" {
		c.PasswordHash, err = HashPassword(cfg.Password)
		if err != nil {
			return nil, err
		}
		c.PasswordProtected = true
	}

	if err := s.store.CreateContest(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) UpdateContest(
	ctx context.Context,
	actor Actor,
	id uuid.UUID,
	update ContestUpdate,
) (*Contest, error) {
	ctx, span := tracer.Start(ctx, "Service.UpdateContest", trace.WithAttributes(
		attribute.String("contest.id", id.String()),
	))
	defer span.End()

	var updated *Contest
	err := s.store.Transaction(ctx, func(tx Store) error {
		c, grant, err := s.load(ctx, tx, actor, id, lockExclusive)
		if err != nil {
			return err
		}

		if err := CanWrite(actor, c, grant, ActionConfigure); err != nil {
			return err
		}

		restricted := c.AuthorRestrictions
		if err := applyUpdate(c, update); err != nil {
			return err
		}
		c.UpdatedAt = s.now(ctx)

		// Submissions admitted while unrestricted must take their author's
		// slot, or give it back.
		if c.AuthorRestrictions != restricted {
			if err := tx.SetExclusiveAuthors(ctx, c.ID, c.AuthorRestrictions); err != nil {
				return err
			}
		}

		if err := tx.UpdateContest(ctx, c); err != nil {
			return err
		}

		updated = c
		return nil
	})
	finish(span, err)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func applyUpdate(c *Contest, u ContestUpdate) error {
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
		c.Title = title
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.PubliclyListed != nil {
		c.PubliclyListed = *u.PubliclyListed
	}
	if u.Password != nil {
		if *u.Password == "" {
			c.PasswordProtected = false
			c.PasswordHash = ""
		} else {
			hash, err := HashPassword(*u.Password)
			if err != nil {
				return err
			}
			c.PasswordProtected = true
			c.PasswordHash = hash
		}
	}
	if u.ClearEndDate {
		c.EndDate = nil
	} else if u.EndDate != nil {
		end := *u.EndDate
		c.EndDate = &end
	}
	if u.AuthorRestrictions != nil {
		c.AuthorRestrictions = *u.AuthorRestrictions
	}
	if u.JudgeRestrictions != nil {
		c.JudgeRestrictions = *u.JudgeRestrictions
	}
	if u.MinVotesRequired != nil {
		if *u.MinVotesRequired < 0 {
			return fmt.Errorf("%w: min votes required must not be negative", ErrInvalidInput)
		}
		c.MinVotesRequired = *u.MinVotesRequired
	}
	return nil
}

func (s *Service) GetContest(ctx context.Context, actor Actor, id uuid.UUID) (*ContestView, error) {
	ctx, span := tracer.Start(ctx, "Service.GetContest", trace.WithAttributes(
		attribute.String("contest.id", id.String()),
	))
	defer span.End()

	view, err := s.getContest(ctx, actor, id)
	finish(span, err)
	return view, err
}

func (s *Service) getContest(ctx context.Context, actor Actor, id uuid.UUID) (*ContestView, error) {
	c, _, err := s.load(ctx, s.store, actor, id, lockNone)
	if err != nil {
		return nil, err
	}

	submissions, err := s.store.ListSubmissions(ctx, id)
	if err != nil {
		return nil, err
	}
	judges, err := s.store.ListJudges(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &ContestView{Contest: *c, Counts: CountSubmissions(submissions)}
	for i := range judges {
		if judges[i].Active() {
			view.Counts.Judges++
		}
	}

	return view, nil
}

// ListContests returns the contests the actor may discover: listed contests
// past draft, plus their own. Admins see everything.
func (s *Service) ListContests(
	ctx context.Context,
	actor Actor,
	status Status,
	limit int,
	offset int,
) ([]Contest, error) {
	ctx, span := tracer.Start(ctx, "Service.ListContests")
	defer span.End()

	if status != "" && !status.Valid() {
		err := fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
		finish(span, err)
		return nil, err
	}

	filter := ContestFilter{
		All:    actor.IsAdmin(),
		Status: status,
		Limit:  limit,
		Offset: offset,
	}
	if actor.Authenticated {
		filter.CreatorID = actor.ID
	}

	contests, err := s.store.ListContests(ctx, filter)
	finish(span, err)
	if err != nil {
		return nil, err
	}

	return contests, nil
}
