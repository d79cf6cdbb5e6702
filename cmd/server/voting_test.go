package main

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/types"
)

func (s *ServerTestSuite) assignJudge(contestID uuid.UUID, userID string) types.JudgeResponse {
	r := s.call(
		http.MethodPost,
		"/v1/contests/"+contestID.String()+"/judges/",
		as(creator),
		map[string]any{"user_id": userID},
	)
	s.requireStatus(r, http.StatusCreated)
	return decode[types.JudgeResponse](s, r)
}

func ballotPath(contestID, judgeID uuid.UUID) string {
	return "/v1/contests/" + contestID.String() + "/judges/" + judgeID.String() + "/ballot/"
}

func (s *ServerTestSuite) TestSubmissions() {
	c := s.openContest(map[string]any{"author_restrictions": true})
	path := "/v1/contests/" + c.ID.String() + "/submissions/"

	first := s.submit(c.ID, alice)
	s.True(first.Active)
	s.Equal(alice.ID, first.AuthorID.String())

	s.Run("InvalidSameText", func() {
		r := s.call(http.MethodPost, path, as(bob), map[string]any{"text_id": first.TextID})
		s.Equal(http.StatusConflict, r.code)
	})

	s.Run("InvalidSecondEntry", func() {
		r := s.call(http.MethodPost, path, as(alice), map[string]any{"text_id": uuid.New()})
		s.Equal(http.StatusConflict, r.code)
	})

	s.Run("InvalidMissingText", func() {
		r := s.call(http.MethodPost, path, as(alice), map[string]any{})
		s.Equal(http.StatusBadRequest, r.code)
	})

	s.Run("InvalidOnBehalf", func() {
		r := s.call(http.MethodPost, path, as(bob), map[string]any{
			"text_id":   uuid.New(),
			"author_id": carol.ID,
		})
		s.Equal(http.StatusForbidden, r.code)
	})

	s.Run("PipelineOnBehalf", func() {
		r := s.call(http.MethodPost, path, as(pipeline), map[string]any{
			"text_id":   uuid.New(),
			"author_id": carol.ID,
		})
		s.requireStatus(r, http.StatusCreated)
		s.Equal(carol.ID, decode[types.SubmissionResponse](s, r).AuthorID.String())
	})

	s.Run("Withdraw", func() {
		withdraw := path + first.ID.String() + "/"

		r := s.call(http.MethodDelete, withdraw, as(bob), nil)
		s.Equal(http.StatusForbidden, r.code, "not the author")

		r = s.call(http.MethodDelete, withdraw, as(alice), nil)
		s.Equal(http.StatusNoContent, r.code)

		r = s.call(http.MethodPost, path, as(alice), map[string]any{"text_id": uuid.New()})
		s.Equal(http.StatusCreated, r.code, "room for a new entry")
	})

	s.Run("List", func() {
		r := s.call(http.MethodGet, path, as(creator), nil)
		s.requireStatus(r, http.StatusOK)

		list := decode[types.SubmissionListResponse](s, r)
		s.Len(list.Submissions, 3)
		s.Equal(2, list.Counts.Submissions)
		s.Equal(2, list.Counts.Participants)
	})

	s.Run("InvalidAfterOpen", func() {
		s.transition(c.ID, "evaluation")
		r := s.call(http.MethodPost, path, as(bob), map[string]any{"text_id": uuid.New()})
		s.Equal(http.StatusConflict, r.code)
	})
}

func (s *ServerTestSuite) TestJudges() {
	c := s.openContest(map[string]any{"judge_restrictions": true})
	path := "/v1/contests/" + c.ID.String() + "/judges/"

	s.Run("InvalidVolunteerWhenRestricted", func() {
		r := s.call(http.MethodPost, path, as(bob), nil)
		s.Equal(http.StatusForbidden, r.code)
	})

	s.Run("InvalidBothKinds", func() {
		r := s.call(http.MethodPost, path, as(creator), map[string]any{
			"user_id":  judge.ID,
			"agent_id": uuid.New(),
		})
		s.Equal(http.StatusBadRequest, r.code)
	})

	human := s.assignJudge(c.ID, judge.ID)
	s.Equal("human", human.Kind)
	s.False(human.Volunteer)

	s.Run("AssignTwice", func() {
		r := s.call(http.MethodPost, path, as(creator), map[string]any{"user_id": judge.ID})
		s.requireStatus(r, http.StatusOK)
		s.Equal(human.ID, decode[types.JudgeResponse](s, r).ID, "existing assignment")
	})

	s.Run("Agent", func() {
		r := s.call(http.MethodPost, path, as(creator), map[string]any{"agent_id": uuid.New()})
		s.requireStatus(r, http.StatusCreated)
		s.Equal("ai", decode[types.JudgeResponse](s, r).Kind)
	})

	s.Run("CompletionStatus", func() {
		r := s.call(http.MethodGet, path, as(creator), nil)
		s.requireStatus(r, http.StatusOK)

		completion := decode[types.CompletionResponse](s, r)
		s.Equal(2, completion.Total)
		s.Zero(completion.Completed)
	})

	s.Run("Remove", func() {
		r := s.call(http.MethodDelete, path+human.ID.String()+"/", as(alice), nil)
		s.Equal(http.StatusForbidden, r.code, "not the creator")

		r = s.call(http.MethodDelete, path+human.ID.String()+"/", as(creator), nil)
		s.Equal(http.StatusNoContent, r.code)

		r = s.call(http.MethodGet, path, as(creator), nil)
		s.requireStatus(r, http.StatusOK)
		s.Equal(1, decode[types.CompletionResponse](s, r).Total)
	})
}

func (s *ServerTestSuite) TestVolunteer() {
	c := s.openContest(map[string]any{})

	r := s.call(http.MethodPost, "/v1/contests/"+c.ID.String()+"/judges/", as(bob), nil)
	s.requireStatus(r, http.StatusCreated)

	j := decode[types.JudgeResponse](s, r)
	s.True(j.Volunteer)
	s.Require().NotNil(j.UserID)
	s.Equal(bob.ID, j.UserID.String())

	r = s.call(http.MethodPost, "/v1/contests/"+c.ID.String()+"/judges/", as(bob), nil)
	s.requireStatus(r, http.StatusOK)
	s.Equal(j.ID, decode[types.JudgeResponse](s, r).ID)
}

func place(p int) *int {
	return &p
}

// Three entries, one judge, close and read the frozen ranking
func (s *ServerTestSuite) TestVotingAndRanking() {
	c := s.openContest(map[string]any{"min_votes_required": 2})

	subA := s.submit(c.ID, alice)
	subB := s.submit(c.ID, bob)
	subC := s.submit(c.ID, carol)
	j := s.assignJudge(c.ID, judge.ID)

	ballot := ballotPath(c.ID, j.ID)
	ranking := "/v1/contests/" + c.ID.String() + "/ranking/"

	s.Run("InvalidBeforeEvaluation", func() {
		r := s.call(http.MethodPut, ballot, as(judge), map[string]any{"entries": []map[string]any{
			{"submission_id": subA.ID, "place": 1},
			{"submission_id": subB.ID, "place": 2},
		}})
		s.Equal(http.StatusConflict, r.code)
	})

	s.transition(c.ID, "evaluation")

	s.Run("InvalidBallots", func() {
		tests := []struct {
			name           string
			auth           *clientAuth
			entries        []map[string]any
			expectedStatus int
		}{
			{
				name: "too few ranked",
				auth: as(judge),
				entries: []map[string]any{
					{"submission_id": subA.ID, "place": 1},
					{"submission_id": subB.ID, "comment": "close"},
				},
				expectedStatus: http.StatusUnprocessableEntity,
			},
			{
				name: "duplicate place",
				auth: as(judge),
				entries: []map[string]any{
					{"submission_id": subA.ID, "place": 1},
					{"submission_id": subB.ID, "place": 1},
				},
				expectedStatus: http.StatusUnprocessableEntity,
			},
			{
				name: "place out of range",
				auth: as(judge),
				entries: []map[string]any{
					{"submission_id": subA.ID, "place": 4},
				},
				expectedStatus: http.StatusBadRequest,
			},
			{
				name: "unknown submission",
				auth: as(judge),
				entries: []map[string]any{
					{"submission_id": uuid.New(), "place": 1},
					{"submission_id": subB.ID, "place": 2},
				},
				expectedStatus: http.StatusUnprocessableEntity,
			},
			{
				name: "someone else's assignment",
				auth: as(alice),
				entries: []map[string]any{
					{"submission_id": subA.ID, "place": 1},
					{"submission_id": subB.ID, "place": 2},
				},
				expectedStatus: http.StatusForbidden,
			},
		}

		for _, tt := range tests {
			s.Run(tt.name, func() {
				r := s.call(http.MethodPut, ballot, tt.auth, map[string]any{"entries": tt.entries})
				s.Equal(tt.expectedStatus, r.code, string(r.body))
			})
		}
	})

	s.Run("CastAndReplace", func() {
		r := s.call(http.MethodPut, ballot, as(judge), map[string]any{"entries": []map[string]any{
			{"submission_id": subB.ID, "place": 1},
			{"submission_id": subA.ID, "place": 2},
		}})
		s.requireStatus(r, http.StatusOK)
		s.Equal(int64(1), decode[types.BallotResponse](s, r).Judge.BallotVersion)

		r = s.call(http.MethodPut, ballot, as(judge), map[string]any{"entries": []map[string]any{
			{"submission_id": subA.ID, "place": 1},
			{"submission_id": subB.ID, "place": 2},
			{"submission_id": subC.ID, "comment": "lovely imagery"},
		}})
		s.requireStatus(r, http.StatusOK)

		cast := decode[types.BallotResponse](s, r)
		s.Equal(int64(2), cast.Judge.BallotVersion)
		s.Len(cast.Votes, 3)

		r = s.call(http.MethodGet, ballot, as(judge), nil)
		s.requireStatus(r, http.StatusOK)
		s.Len(decode[types.BallotResponse](s, r).Votes, 3)
	})

	s.Run("Completion", func() {
		r := s.call(http.MethodGet, "/v1/contests/"+c.ID.String()+"/judges/", as(creator), nil)
		s.requireStatus(r, http.StatusOK)

		completion := decode[types.CompletionResponse](s, r)
		s.Equal(1, completion.Completed)
		s.Require().Len(completion.Judges, 1)
		s.Equal(2, completion.Judges[0].Ranked)
		s.Equal(1, completion.Judges[0].Comments)
		s.True(completion.Judges[0].MeetsMinimum)
	})

	s.Run("RankingHiddenUntilClose", func() {
		r := s.call(http.MethodGet, ranking, nil, nil)
		s.Equal(http.StatusUnauthorized, r.code)

		r = s.call(http.MethodGet, ranking, as(alice), nil)
		s.Equal(http.StatusForbidden, r.code)

		r = s.call(http.MethodGet, ranking, as(creator), nil)
		s.requireStatus(r, http.StatusOK)
		s.False(decode[types.RankingResponse](s, r).Frozen)
	})

	s.Run("InvalidRankingFilter", func() {
		r := s.call(http.MethodGet, ranking+"?judge_id=nope", as(creator), nil)
		s.Equal(http.StatusBadRequest, r.code)

		r = s.call(http.MethodGet, ranking+"?kind=robot", as(creator), nil)
		s.Equal(http.StatusBadRequest, r.code)
	})

	s.publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		Do(func(_ any, snapshot *contest.RankingSnapshot) {
			s.Equal(c.ID, snapshot.ContestID)
		})
	s.transition(c.ID, "closed")

	s.Run("FrozenRanking", func() {
		r := s.call(http.MethodGet, ranking, nil, nil)
		s.requireStatus(r, http.StatusOK)

		frozen := decode[types.RankingResponse](s, r)
		s.True(frozen.Frozen)
		s.NotEmpty(frozen.InputsHash)
		s.Require().Len(frozen.Standings, 3)

		s.Equal(subA.ID, frozen.Standings[0].SubmissionID)
		s.Equal(3, frozen.Standings[0].Score)
		s.Equal(subB.ID, frozen.Standings[1].SubmissionID)
		s.Equal(2, frozen.Standings[1].Score)
		s.Equal(subC.ID, frozen.Standings[2].SubmissionID)
		s.Zero(frozen.Standings[2].Score)
	})

	s.Run("FilteredRanking", func() {
		r := s.call(http.MethodGet, ranking+"?kind=ai", nil, nil)
		s.requireStatus(r, http.StatusOK)

		filtered := decode[types.RankingResponse](s, r)
		s.False(filtered.Frozen)
		for _, st := range filtered.Standings {
			s.Zero(st.Score)
		}

		r = s.call(http.MethodGet, ranking+"?judge_id="+j.ID.String(), nil, nil)
		s.requireStatus(r, http.StatusOK)
		s.Equal(3, decode[types.RankingResponse](s, r).Standings[0].Score)
	})

	s.Run("BallotsArePublic", func() {
		r := s.call(http.MethodGet, ballot, nil, nil)
		s.Equal(http.StatusOK, r.code)
	})
}

func (s *ServerTestSuite) TestAIWriter() {
	c := s.openContest(map[string]any{})
	path := "/v1/contests/" + c.ID.String() + "/ai-writer/"
	agent := uuid.New()
	aliceID := uuid.MustParse(alice.ID)

	s.Run("Accepted", func() {
		gomock.InOrder(
			s.credits.EXPECT().HasSufficientCredits(gomock.Any(), aliceID, contest.Cost(10)).Return(true, nil),
			s.credits.EXPECT().Debit(gomock.Any(), aliceID, contest.Cost(10), gomock.Any()).Return(nil),
			s.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(nil),
		)

		r := s.call(http.MethodPost, path, as(alice), map[string]any{"agent_id": agent, "prompt": "a sonnet about rain"})
		s.requireStatus(r, http.StatusAccepted)

		job := decode[types.AIJobResponse](s, r)
		s.Equal("ai_writer", job.Kind)
		s.Equal(aliceID, job.RequestedBy)
		s.Require().NotNil(job.AgentID)
		s.Equal(agent, *job.AgentID)
	})

	s.Run("InsufficientCredits", func() {
		s.credits.EXPECT().HasSufficientCredits(gomock.Any(), aliceID, contest.Cost(10)).Return(false, nil)

		r := s.call(http.MethodPost, path, as(alice), map[string]any{"agent_id": agent})
		s.Equal(http.StatusPaymentRequired, r.code)
	})

	s.Run("InvalidMissingAgent", func() {
		r := s.call(http.MethodPost, path, as(alice), map[string]any{"prompt": "anything"})
		s.Equal(http.StatusBadRequest, r.code)
	})
}

func (s *ServerTestSuite) TestAIJudge() {
	c := s.openContest(map[string]any{})
	s.submit(c.ID, alice)

	r := s.call(
		http.MethodPost,
		"/v1/contests/"+c.ID.String()+"/judges/",
		as(creator),
		map[string]any{"agent_id": uuid.New()},
	)
	s.requireStatus(r, http.StatusCreated)
	agentJudge := decode[types.JudgeResponse](s, r)

	path := "/v1/contests/" + c.ID.String() + "/judges/" + agentJudge.ID.String() + "/ai-run/"

	r = s.call(http.MethodPost, path, as(creator), nil)
	s.Equal(http.StatusConflict, r.code, "contest still open")

	s.transition(c.ID, "evaluation")

	r = s.call(http.MethodPost, path, as(alice), nil)
	s.Equal(http.StatusForbidden, r.code, "not the creator")

	creatorID := uuid.MustParse(creator.ID)
	s.credits.EXPECT().HasSufficientCredits(gomock.Any(), creatorID, contest.Cost(5)).Return(true, nil)
	s.credits.EXPECT().Debit(gomock.Any(), creatorID, contest.Cost(5), gomock.Any()).Return(nil)
	s.dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(nil)

	r = s.call(http.MethodPost, path, as(creator), nil)
	s.requireStatus(r, http.StatusAccepted)

	job := decode[types.AIJobResponse](s, r)
	s.Equal("ai_judge", job.Kind)
	s.Require().NotNil(job.JudgeAssignmentID)
	s.Equal(agentJudge.ID, *job.JudgeAssignmentID)
}
