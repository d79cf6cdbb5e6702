package v1_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	routesv1 "github.com/quillfight/contest-api/cmd/mock_ledger/routes/v1"
	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/credit"
	"github.com/quillfight/contest-api/internal/logger"
)

func TestMockLedger(t *testing.T) {
	logger.InitSlog()

	ledger := routesv1.NewLedger(0)
	server := httptest.NewServer(routesv1.BuildEcho(ledger, "ledger-token"))
	defer server.Close()

	client, err := credit.NewLedger(credit.Options{BaseURL: server.URL, Token: "ledger-token"})
	require.NoError(t, err)

	rich, poor, unknown := uuid.New(), uuid.New(), uuid.New()
	ledger.SetBalance(rich, 20)
	ledger.SetBalance(poor, 3)

	t.Run("balance", func(t *testing.T) {
		ok, err := client.HasSufficientCredits(t.Context(), rich, contest.Cost(20))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = client.HasSufficientCredits(t.Context(), poor, contest.Cost(5))
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = client.HasSufficientCredits(t.Context(), unknown, contest.Cost(1))
		require.NoError(t, err)
		assert.False(t, ok, "unknown actors have no credits")
	})

	t.Run("debit", func(t *testing.T) {
		require.NoError(t, client.Debit(t.Context(), rich, contest.Cost(15), "ai_writer"))

		ok, err := client.HasSufficientCredits(t.Context(), rich, contest.Cost(6))
		require.NoError(t, err)
		assert.False(t, ok)

		err = client.Debit(t.Context(), poor, contest.Cost(5), "ai_judge")
		require.ErrorIs(t, err, contest.ErrInsufficientCredits)

		debits := ledger.Debits()
		require.Len(t, debits, 1)
		assert.Equal(t, rich, debits[0].ActorID)
		assert.Equal(t, int64(15), debits[0].Amount)
		assert.Equal(t, "ai_writer", debits[0].Reason)
	})

	t.Run("token", func(t *testing.T) {
		res, err := http.Get(server.URL + "/v1/balances/" + rich.String() + "/")
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, "missing bearer token")

		req, err := http.NewRequest(http.MethodGet, server.URL+"/v1/balances/"+rich.String()+"/", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer wrong")
		res2, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer res2.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, res2.StatusCode)
	})
}

func TestMockLedgerInitialBalance(t *testing.T) {
	ledger := routesv1.NewLedger(10)
	server := httptest.NewServer(routesv1.BuildEcho(ledger, ""))
	defer server.Close()

	client, err := credit.NewLedger(credit.Options{BaseURL: server.URL})
	require.NoError(t, err)

	actor := uuid.New()
	ok, err := client.HasSufficientCredits(t.Context(), actor, contest.Cost(10))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, client.Debit(t.Context(), actor, contest.Cost(4), "ai_judge"))

	ok, err = client.HasSufficientCredits(t.Context(), actor, contest.Cost(7))
	require.NoError(t, err)
	assert.False(t, ok)
}
