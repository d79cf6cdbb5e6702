// Package credit talks to the external credit ledger that pays for AI runs.
package credit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/logger"
)

var tracer = otel.Tracer("github.com/quillfight/contest-api/internal/credit")

var _ contest.CreditGate = (*Ledger)(nil)

type Options struct {
	// Ledger base URL, e.g. https://ledger.internal
	BaseURL string
	// Bearer token sent with every request
	Token    string
	RetryMax int
	Timeout  time.Duration
}

// Ledger is the HTTP client of the credit ledger.
type Ledger struct {
	client  *http.Client
	baseURL *url.URL
	token   string
}

func NewLedger(opts Options) (*Ledger, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ledger url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid ledger url %q", opts.BaseURL)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = logger.Logger

	client := rc.StandardClient()
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}

	return &Ledger{client: client, baseURL: base, token: opts.Token}, nil
}

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

type debitRequest struct {
	ActorID uuid.UUID `json:"actor_id"`
	Amount  int64     `json:"amount"`
	Reason  string    `json:"reason"`
}

func (l *Ledger) endpoint(parts ...string) string {
	return l.baseURL.JoinPath(parts...).String() + "/"
}

func (l *Ledger) do(ctx context.Context, method, target string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	return l.client.Do(req)
}

// HasSufficientCredits reports whether the actor's balance covers cost. An
// actor unknown to the ledger has no credits.
func (l *Ledger) HasSufficientCredits(ctx context.Context, actorID uuid.UUID, cost contest.Cost) (bool, error) {
	ctx, span := tracer.Start(ctx, "Ledger.HasSufficientCredits", trace.WithAttributes(
		attribute.String("actor.id", actorID.String()),
		attribute.Int64("cost", int64(cost)),
	))
	defer span.End()

	resp, err := l.do(ctx, http.MethodGet, l.endpoint("v1", "balances", actorID.String()), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to request balance")
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "unknown actor")
		return false, nil
	default:
		err = fmt.Errorf("unexpected ledger status: %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return false, err
	}

	var balance balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&balance); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode balance")
		return false, err
	}

	span.SetAttributes(attribute.Int64("balance", balance.Balance))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
	return balance.Balance >= int64(cost), nil
}

// Debit charges cost to the actor. The ledger answers 402 when the balance
// dropped below cost since it was checked.
func (l *Ledger) Debit(ctx context.Context, actorID uuid.UUID, cost contest.Cost, reason string) error {
	ctx, span := tracer.Start(ctx, "Ledger.Debit", trace.WithAttributes(
		attribute.String("actor.id", actorID.String()),
		attribute.Int64("cost", int64(cost)),
		attribute.String("reason", reason),
	))
	defer span.End()

	resp, err := l.do(ctx, http.MethodPost, l.endpoint("v1", "debits"), debitRequest{
		ActorID: actorID,
		Amount:  int64(cost),
		Reason:  reason,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to request debit")
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "debited")
		return nil
	case http.StatusPaymentRequired:
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "insufficient credits")
		return contest.ErrInsufficientCredits
	default:
		err = fmt.Errorf("unexpected ledger status: %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		return err
	}
}
