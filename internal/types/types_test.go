package types_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillfight/contest-api/internal/types"
)

func TestContestPatch(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		defined bool
		isNull  bool
	}{
		{name: "missing", body: `{}`},
		{name: "null", body: `{"password":null}`, defined: true, isNull: true},
		{name: "empty", body: `{"password":""}`, defined: true},
		{name: "value", body: `{"password":"quillpen"}`, defined: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var patch types.ContestPatch
			require.NoError(t, json.Unmarshal([]byte(tt.body), &patch))

			assert.Equal(t, tt.defined, patch.Password.Defined)
			assert.Equal(t, tt.isNull, tt.defined && patch.Password.Value == nil)
			assert.False(t, patch.Title.Defined)
			assert.Nil(t, patch.Title.Set())
		})
	}

	var patch types.ContestPatch
	require.NoError(t, json.Unmarshal([]byte(`{"min_votes_required":2}`), &patch))
	require.NotNil(t, patch.MinVotesRequired.Set())
	assert.Equal(t, 2, *patch.MinVotesRequired.Set())
}
