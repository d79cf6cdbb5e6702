package upload_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/quillfight/contest-api/internal/hash"
	"github.com/quillfight/contest-api/internal/upload"
	mockstore "github.com/quillfight/contest-api/internal/upload/mock"
)

func fastBackoff() retry.Backoff {
	return retry.WithMaxRetries(3, retry.NewConstant(10*time.Millisecond))
}

func TestRetryPut(t *testing.T) {
	key := "contests/abc/ranking.json"
	body := []byte(`{"standings":[]}`)

	tests := []struct {
		name     string
		failures int
		calls    int
		wantErr  bool
	}{
		{name: "NoError", calls: 1},
		{name: "ErrorAfter1Try", failures: 1, calls: 2},
		{name: "Error", failures: 10, calls: 4, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			s := mockstore.NewMockStore(ctrl)

			calls := 0
			s.EXPECT().
				Put(gomock.Any(), gomock.Eq(key), gomock.Eq(body), gomock.Eq(upload.ContentTypeJSON)).
				DoAndReturn(func(context.Context, string, []byte, string) error {
					calls++
					if calls <= tt.failures {
						return errors.New("expected error")
					}
					return nil
				}).
				Times(tt.calls)

			err := upload.NewRetryStore(s, fastBackoff).Put(t.Context(), key, body, upload.ContentTypeJSON)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRetryExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mockstore.NewMockStore(ctrl)

	gomock.InOrder(
		s.EXPECT().Exists(gomock.Any(), "key").Return(false, errors.New("expected error")),
		s.EXPECT().Exists(gomock.Any(), "key").Return(true, nil),
	)

	exists, err := upload.NewRetryStore(s, fastBackoff).Exists(t.Context(), "key")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRetryReadLink(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mockstore.NewMockStore(ctrl)

	s.EXPECT().ReadLink(gomock.Any(), "key", time.Minute).Return("https://example.test/key?sig=1", nil)
	s.EXPECT().Location().Return("results")

	r := upload.NewRetryStore(s, fastBackoff)
	link, err := r.ReadLink(t.Context(), "key", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/key?sig=1", link)
	assert.Equal(t, "results", r.Location())
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mockstore.NewMockStore(ctrl)

	ctx, cancel := context.WithCancel(t.Context())
	s.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, []byte, string) error {
			cancel()
			return errors.New("expected error")
		}).
		Times(1)

	slow := func() retry.Backoff { return retry.NewConstant(time.Hour) }
	err := upload.NewRetryStore(s, slow).Put(ctx, "key", []byte("{}"), upload.ContentTypeJSON)
	require.Error(t, err)
}

func TestJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mockstore.NewMockStore(ctrl)

	expected := `{"score":3}`
	s.EXPECT().
		Put(gomock.Any(), gomock.Eq("doc.json"), gomock.Any(), gomock.Eq(upload.ContentTypeJSON)).
		DoAndReturn(func(_ context.Context, _ string, body []byte, _ string) error {
			assert.JSONEq(t, expected, string(body))
			return nil
		})

	sum, err := upload.JSON(t.Context(), s, "doc.json", map[string]int{"score": 3})
	require.NoError(t, err)
	assert.Equal(t, hash.Buffer([]byte(expected)), sum)

	_, err = upload.JSON(t.Context(), s, "bad.json", func() {})
	require.Error(t, err, "functions do not marshal")
}
