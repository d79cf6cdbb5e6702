package main

import (
	"net/http"

	"github.com/quillfight/contest-api/internal/types"
)

func (s *ServerTestSuite) TestCreateContest() {
	tests := []struct {
		name           string
		auth           *clientAuth
		body           map[string]any
		expectedStatus int
	}{
		{
			name:           "Valid",
			auth:           as(creator),
			body:           map[string]any{"title": "Villanelles", "min_votes_required": 2},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "InvalidNoAuth",
			body:           map[string]any{"title": "Villanelles"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "InvalidBlankTitle",
			auth:           as(creator),
			body:           map[string]any{"title": "   "},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "InvalidNegativeMinimum",
			auth:           as(creator),
			body:           map[string]any{"title": "Villanelles", "min_votes_required": -1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "InvalidShortPassword",
			auth:           as(creator),
			body:           map[string]any{"title": "Villanelles", "password": "a"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			r := s.call(http.MethodPost, "/v1/contests/", tt.auth, tt.body)
			s.Equal(tt.expectedStatus, r.code, string(r.body))

			if r.code == http.StatusBadRequest {
				body := decode[map[string]any](s, r)
				s.Contains(body, "message")
				s.Contains(body, "fields")
			}
		})
	}

	s.Run("StartsAsDraft", func() {
		c := s.createContest(map[string]any{"password": "quillpen"})
		s.Equal("draft", c.Status)
		s.True(c.PasswordProtected)
		s.Equal(creator.ID, c.CreatorID.String())
		s.Require().NotNil(c.Counts)
		s.Zero(c.Counts.Submissions)
	})
}

func (s *ServerTestSuite) TestDraftsAreHidden() {
	c := s.createContest(map[string]any{"publicly_listed": true})
	path := "/v1/contests/" + c.ID.String() + "/"

	r := s.call(http.MethodGet, path, nil, nil)
	s.Equal(http.StatusNotFound, r.code, "anonymous")

	r = s.call(http.MethodGet, path, as(alice), nil)
	s.Equal(http.StatusNotFound, r.code, "stranger")

	r = s.call(http.MethodGet, path, as(admin), nil)
	s.Equal(http.StatusOK, r.code, "admin")

	r = s.call(http.MethodGet, path, as(creator), nil)
	s.requireStatus(r, http.StatusOK)
	s.Equal(c.ID, decode[types.ContestResponse](s, r).ID)

	s.transition(c.ID, "open")

	r = s.call(http.MethodGet, path, nil, nil)
	s.Equal(http.StatusOK, r.code, "listed and open")
}

func (s *ServerTestSuite) TestListContests() {
	listed := s.openContest(map[string]any{"title": "Listed"})
	unlisted := s.createContest(map[string]any{"title": "Unlisted"})
	s.transition(unlisted.ID, "open")

	r := s.call(http.MethodGet, "/v1/contests/?status=open&limit=100", nil, nil)
	s.requireStatus(r, http.StatusOK)
	list := decode[types.ContestListResponse](s, r)
	s.Equal(100, list.Limit)

	ids := make(map[string]bool)
	for _, c := range list.Contests {
		ids[c.ID.String()] = true
		s.Equal("open", c.Status)
	}
	s.True(ids[listed.ID.String()])
	s.False(ids[unlisted.ID.String()])

	r = s.call(http.MethodGet, "/v1/contests/?status=pending", nil, nil)
	s.Equal(http.StatusBadRequest, r.code)

	r = s.call(http.MethodGet, "/v1/contests/?limit=1000", nil, nil)
	s.Equal(http.StatusBadRequest, r.code)
}

func (s *ServerTestSuite) TestPasswordProtectedContest() {
	c := s.openContest(map[string]any{"password": "quillpen"})
	path := "/v1/contests/" + c.ID.String() + "/"

	r := s.call(http.MethodGet, path, nil, nil)
	s.Equal(http.StatusForbidden, r.code, "no password")

	r = s.call(http.MethodGet, path, as(alice), nil, "X-Contest-Password", "wrong one")
	s.Equal(http.StatusForbidden, r.code, "wrong password")

	r = s.call(http.MethodGet, path, as(alice), nil, "X-Contest-Password", "quillpen")
	s.Equal(http.StatusOK, r.code, "right password")

	r = s.call(http.MethodPatch, path, as(creator), map[string]any{"password": nil})
	s.requireStatus(r, http.StatusOK)
	s.False(decode[types.ContestResponse](s, r).PasswordProtected)

	r = s.call(http.MethodGet, path, nil, nil)
	s.Equal(http.StatusOK, r.code, "password dropped")
}

func (s *ServerTestSuite) TestUpdateContest() {
	c := s.createContest(map[string]any{"description": "rhymes", "end_date": "2999-01-01T00:00:00Z"})
	path := "/v1/contests/" + c.ID.String() + "/"

	s.Run("InvalidNotCreator", func() {
		r := s.call(http.MethodPatch, path, as(alice), map[string]any{"title": "Mine"})
		s.Equal(http.StatusNotFound, r.code)
	})

	s.Run("InvalidBlankTitle", func() {
		r := s.call(http.MethodPatch, path, as(creator), map[string]any{"title": " "})
		s.Equal(http.StatusBadRequest, r.code)
	})

	s.Run("OnlyDefinedFieldsChange", func() {
		r := s.call(http.MethodPatch, path, as(creator), map[string]any{
			"title":              "Autumn Odes",
			"min_votes_required": 2,
			"end_date":           nil,
		})
		s.requireStatus(r, http.StatusOK)

		updated := decode[types.ContestResponse](s, r)
		s.Equal("Autumn Odes", updated.Title)
		s.Equal("rhymes", updated.Description)
		s.Equal(2, updated.MinVotesRequired)
		s.Nil(updated.EndDate)
	})
}

func (s *ServerTestSuite) TestTransition() {
	c := s.createContest(map[string]any{})
	path := "/v1/contests/" + c.ID.String() + "/transition/"

	r := s.call(http.MethodPost, path, as(creator), map[string]any{"status": "evaluation"})
	s.Equal(http.StatusConflict, r.code, "skipping a step")

	r = s.call(http.MethodPost, path, as(creator), map[string]any{"status": "finished"})
	s.Equal(http.StatusBadRequest, r.code, "unknown status")

	r = s.call(http.MethodPost, path, as(admin), map[string]any{"status": "evaluation", "override": true})
	s.requireStatus(r, http.StatusOK)
	s.Equal("evaluation", decode[types.ContestResponse](s, r).Status)

	r = s.call(http.MethodPost, path, as(creator), map[string]any{"status": "open", "override": true})
	s.requireStatus(r, http.StatusOK)
	s.Equal("open", decode[types.ContestResponse](s, r).Status)

	r = s.call(http.MethodPost, path, as(alice), map[string]any{"status": "evaluation"})
	s.Equal(http.StatusForbidden, r.code, "not the creator")
}
