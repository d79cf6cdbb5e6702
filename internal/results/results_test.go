package results_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/results"
	"github.com/quillfight/contest-api/internal/taskrunner"
	"github.com/quillfight/contest-api/internal/upload"
	mockstore "github.com/quillfight/contest-api/internal/upload/mock"
)

func snapshot() *contest.RankingSnapshot {
	return &contest.RankingSnapshot{
		ContestID:  uuid.New(),
		ComputedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		InputsHash: "abc",
		Standings: []contest.Standing{
			{Position: 1, SubmissionID: uuid.New(), Score: 3, ContributingVotes: []contest.ContributingVote{}},
		},
	}
}

func wait(t *testing.T, runner *taskrunner.Client) {
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	require.NoError(t, runner.Shutdown(ctx))
}

func TestPublish(t *testing.T) {
	ctrl := gomock.NewController(t)
	u := mockstore.NewMockStore(ctrl)
	runner := taskrunner.Create()
	snap := snapshot()
	key := results.Key(snap.ContestID)

	var uploaded contest.RankingSnapshot
	gomock.InOrder(
		u.EXPECT().
			Put(gomock.Any(), gomock.Eq(key), gomock.Any(), gomock.Eq(upload.ContentTypeJSON)).
			DoAndReturn(func(_ context.Context, _ string, body []byte, _ string) error {
				require.NoError(t, json.Unmarshal(body, &uploaded))
				return nil
			}),
		u.EXPECT().Location().Return("results"),
		u.EXPECT().ReadLink(gomock.Any(), gomock.Eq(key), gomock.Eq(time.Hour)).Return("https://example.test/r", nil),
	)

	results.NewPublisher(u, runner, time.Hour).Publish(t.Context(), snap)
	wait(t, runner)

	assert.Equal(t, snap.ContestID, uploaded.ContestID)
	assert.Equal(t, snap.InputsHash, uploaded.InputsHash)
	require.Len(t, uploaded.Standings, 1)
	assert.Equal(t, snap.Standings[0].SubmissionID, uploaded.Standings[0].SubmissionID)
}

func TestPublishWithoutLink(t *testing.T) {
	ctrl := gomock.NewController(t)
	u := mockstore.NewMockStore(ctrl)
	runner := taskrunner.Create()

	u.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	u.EXPECT().Location().Return("results")
	u.EXPECT().ReadLink(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	results.NewPublisher(u, runner, 0).Publish(t.Context(), snapshot())
	wait(t, runner)
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	u := mockstore.NewMockStore(ctrl)
	runner := taskrunner.Create()

	u.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("expected error"))
	u.EXPECT().Location().Times(0)

	request, cancel := context.WithCancel(t.Context())
	results.NewPublisher(u, runner, time.Hour).Publish(request, snapshot())
	cancel()
	wait(t, runner)
}

func TestKey(t *testing.T) {
	id := uuid.MustParse("0190c3e0-0000-7000-8000-000000000001")
	assert.Equal(t, "contests/0190c3e0-0000-7000-8000-000000000001/ranking.json", results.Key(id))
}
