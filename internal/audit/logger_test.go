package audit

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func captureStdout(fn func()) (string, error) {
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}

	os.Stdout = w

	fn()

	if err := w.Close(); err != nil {
		return "", err
	}
	os.Stdout = orig

	var buf bytes.Buffer
	if _, err = io.Copy(&buf, r); err != nil {
		return "", err
	}

	if err := r.Close(); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func testContext() Context {
	return Context{
		ActorID:   ptr("actor"),
		ContestID: "contest",
	}
}

func TestNewContext(t *testing.T) {
	contestID := uuid.New()
	actorID := uuid.New()

	c := NewContext(contestID, actorID)
	assert.Equal(t, contestID.String(), c.ContestID)
	require.NotNil(t, c.ActorID)
	assert.Equal(t, actorID.String(), *c.ActorID)

	c = NewContext(contestID, uuid.Nil)
	assert.Nil(t, c.ActorID)
}

func TestLogContestCreated(t *testing.T) {
	got, err := captureStdout(func() {
		LogContestCreated(testContext(), "Spring", true, false)
	})
	require.NoError(t, err)

	expect := regexp.MustCompile(
		`{"event":{"title":"Spring","publicly_listed":true,"password_protected":false},"actor_id":"actor","log_context":"audit","version":"\d\.\d\.\d","contest_id":"contest","disposition":"neutral","event_type":"contest_created","timestamp":\d+}`,
	)
	assert.Regexp(t, expect, got)
}

func TestLogContestTransition(t *testing.T) {
	tests := []struct {
		name        string
		override    bool
		disposition string
	}{
		{name: "forward", override: false, disposition: "neutral"},
		{name: "override", override: true, disposition: "bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := captureStdout(func() {
				LogContestTransition(testContext(), "open", "evaluation", tt.override)
			})
			require.NoError(t, err)

			assert.Contains(t, got, `"event_type":"contest_transition"`)
			assert.Contains(t, got, `"disposition":"`+tt.disposition+`"`)
			assert.Contains(t, got, `"from":"open","to":"evaluation"`)
		})
	}
}

func TestLogSubmission(t *testing.T) {
	submissionID := uuid.MustParse("01927e9c-0000-7000-8000-000000000001")
	textID := uuid.MustParse("01927e9c-0000-7000-8000-000000000002")
	authorID := uuid.MustParse("01927e9c-0000-7000-8000-000000000003")

	got, err := captureStdout(func() {
		LogSubmission(testContext(), submissionID, textID, authorID)
	})
	require.NoError(t, err)

	expect := regexp.MustCompile(
		`{"event":{"submission_id":"01927e9c-0000-7000-8000-000000000001","text_id":"01927e9c-0000-7000-8000-000000000002","author_id":"01927e9c-0000-7000-8000-000000000003"},"actor_id":"actor","log_context":"audit","version":"\d\.\d\.\d","contest_id":"contest","disposition":"good","event_type":"submission","timestamp":\d+}`,
	)
	assert.Regexp(t, expect, got)
}

func TestLogBallotCast(t *testing.T) {
	judgeID := uuid.MustParse("01927e9c-0000-7000-8000-000000000004")

	got, err := captureStdout(func() {
		LogBallotCast(testContext(), judgeID, 3, 2, 1)
	})
	require.NoError(t, err)

	assert.Contains(
		t,
		got,
		`"event":{"judge_assignment_id":"01927e9c-0000-7000-8000-000000000004","ballot_version":3,"ranked":2,"comments":1}`,
	)
	assert.Contains(t, got, `"event_type":"ballot_cast"`)
}

func TestLogOutOfCredits(t *testing.T) {
	c := testContext()
	c.ActorID = nil

	got, err := captureStdout(func() {
		LogOutOfCredits(c)
	})
	require.NoError(t, err)

	expect := regexp.MustCompile(
		`{"event":{},"actor_id":null,"log_context":"audit","version":"\d\.\d\.\d","contest_id":"contest","disposition":"bad","event_type":"out_of_credits","timestamp":\d+}`,
	)
	assert.Regexp(t, expect, got)
}

func TestLogResultsPublished(t *testing.T) {
	got, err := captureStdout(func() {
		LogResultsPublished(testContext(), "results", "contests/x/ranking.json", "abc")
	})
	require.NoError(t, err)

	assert.Contains(
		t,
		got,
		`"event":{"bucket_name":"results","object_name":"contests/x/ranking.json","sha256":"abc"}`,
	)
	assert.Contains(t, got, `"disposition":"good"`)
}
