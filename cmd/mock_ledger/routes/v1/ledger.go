package v1

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/quillfight/contest-api/internal/types"
)

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

type debitRequest struct {
	ActorID uuid.UUID `json:"actor_id" validate:"required"`
	Amount  int64     `json:"amount"   validate:"gt=0"`
	Reason  string    `json:"reason"   validate:"max=200"`
}

type Debit struct {
	ActorID uuid.UUID
	Amount  int64
	Reason  string
}

// Ledger keeps balances in memory. Actors it has not seen start with
// Initial credits, or are unknown when Initial is zero.
type Ledger struct {
	Initial int64

	mu       sync.Mutex
	balances map[uuid.UUID]int64
	debits   []Debit
}

func NewLedger(initial int64) *Ledger {
	return &Ledger{Initial: initial, balances: make(map[uuid.UUID]int64)}
}

// SetBalance overwrites the balance of an actor
func (l *Ledger) SetBalance(actorID uuid.UUID, balance int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[actorID] = balance
}

func (l *Ledger) Debits() []Debit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Debit(nil), l.debits...)
}

// must hold mu
func (l *Ledger) balance(actorID uuid.UUID) (int64, bool) {
	balance, ok := l.balances[actorID]
	if !ok && l.Initial > 0 {
		balance, ok = l.Initial, true
		l.balances[actorID] = balance
	}
	return balance, ok
}

// Balance responds with the credits of an actor
func (l *Ledger) Balance(c echo.Context) error {
	actorID, err := uuid.Parse(c.Param("actor_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, types.StringError("actor_id is not a uuid"))
	}

	l.mu.Lock()
	balance, ok := l.balance(actorID)
	l.mu.Unlock()

	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, types.StringError("unknown actor"))
	}

	return c.JSON(http.StatusOK, balanceResponse{Balance: balance})
}

// Debit takes credits from an actor. It answers 402 and changes nothing when
// the balance does not cover the amount.
func (l *Ledger) Debit(c echo.Context) error {
	var req debitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, types.StringError("failed parsing request data"))
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, types.ValidationError(err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, ok := l.balance(req.ActorID)
	if !ok || balance < req.Amount {
		return echo.NewHTTPError(http.StatusPaymentRequired, types.StringError("insufficient credits"))
	}

	l.balances[req.ActorID] = balance - req.Amount
	l.debits = append(l.debits, Debit{ActorID: req.ActorID, Amount: req.Amount, Reason: req.Reason})

	return c.JSON(http.StatusCreated, balanceResponse{Balance: balance - req.Amount})
}
