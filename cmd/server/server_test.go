package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	sloggorm "github.com/imdatngo/slog-gorm/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/mock/gomock"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/quillfight/contest-api/cmd/server/internal/middleware"
	"github.com/quillfight/contest-api/cmd/server/internal/routes"
	routesv1 "github.com/quillfight/contest-api/cmd/server/internal/routes/v1"
	"github.com/quillfight/contest-api/internal/config"
	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/contest/mock"
	"github.com/quillfight/contest-api/internal/logger"
	"github.com/quillfight/contest-api/internal/migrations"
	"github.com/quillfight/contest-api/internal/models"
	"github.com/quillfight/contest-api/internal/otel"
	"github.com/quillfight/contest-api/internal/types"
)

type clientAuth struct {
	id    string
	token string
}

func account(note, role string, system, active bool) config.Account {
	return config.Account{
		ID:     uuid.NewString(),
		Note:   note,
		Token:  "token of " + note + " for tests",
		Role:   role,
		System: system,
		Active: &active,
	}
}

var (
	creator  = account("creator", "user", false, true)
	alice    = account("alice", "user", false, true)
	bob      = account("bob", "user", false, true)
	carol    = account("carol", "user", false, true)
	judge    = account("judge", "user", false, true)
	admin    = account("admin", "admin", false, true)
	pipeline = account("pipeline", "user", true, true)
	inactive = account("inactive", "user", false, false)
)

func as(a config.Account) *clientAuth {
	return &clientAuth{id: a.ID, token: a.Token}
}

type ServerTestSuite struct {
	suite.Suite

	ctrl       *gomock.Controller
	credits    *mock.MockCreditGate
	dispatcher *mock.MockDispatcher
	publisher  *mock.MockResultsPublisher

	postgres     *postgres.PostgresContainer
	db           *gorm.DB
	otelShutdown func(context.Context) error
	server       *httptest.Server
}

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) SetupSuite() {
	logger.InitSlog()

	postgresContainer, err := postgres.Run(
		s.T().Context(),
		"postgres:16.4-alpine",
		postgres.WithDatabase("contestapi"),
		postgres.WithUsername("contestapi"),
		postgres.WithPassword("contestapi"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	s.Require().NoError(err, "failed to start postgres container")
	s.postgres = postgresContainer

	dsn, err := s.postgres.ConnectionString(s.T().Context(), "sslmode=disable")
	s.Require().NoError(err, "failed to get connection string to container")

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: sloggorm.New()})
	s.Require().NoError(err, "failed to connect to the database")
	s.db = db

	err = migrations.Up(s.T().Context(), db)
	s.Require().NoError(err, "failed to run up migrations")

	err = models.SyncAccounts(s.T().Context(), db, []config.Account{
		creator, alice, bob, carol, judge, admin, pipeline, inactive,
	})
	s.Require().NoError(err, "failed to sync accounts")

	shutdownOTel, err := otel.SetupOTelSDK(s.T().Context(), routes.ServiceName, false)
	s.Require().NoError(err, "could not setup otel")
	s.otelShutdown = shutdownOTel
}

func (s *ServerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.credits = mock.NewMockCreditGate(s.ctrl)
	s.dispatcher = mock.NewMockDispatcher(s.ctrl)
	s.publisher = mock.NewMockResultsPublisher(s.ctrl)

	service := contest.NewService(
		models.NewStore(s.db, 3),
		s.credits,
		s.dispatcher,
		s.publisher,
		contest.Costs{AIJudge: 5, AIWriter: 10},
	)

	v1Handler := routesv1.NewHandler(service, &config.Config{}, nil)
	middlewareHandler := middleware.Handler{DB: s.db}

	e, err := routes.BuildEcho(logger.Logger)
	s.Require().NoError(err, "failed to construct router")

	v1Handler.AddRoutes(e, &middlewareHandler)

	s.server = httptest.NewServer(e)
}

func (s *ServerTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *ServerTestSuite) TearDownSuite() {
	s.Require().NoError(testcontainers.TerminateContainer(s.postgres))
	s.Require().NoError(s.otelShutdown(s.T().Context()))
}

type resp struct {
	body []byte
	code int
}

func doRequest(t *testing.T, req *http.Request) *resp {
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "failed to send http request")
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err, "failed to read body")

	return &resp{body: body, code: res.StatusCode}
}

// call sends body as json when it is not nil. Extra headers come in pairs.
func (s *ServerTestSuite) call(method, path string, auth *clientAuth, body any, headers ...string) *resp {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(s.T().Context(), method, s.server.URL+path, reader)
	s.Require().NoError(err, "failed to construct http request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != nil {
		req.SetBasicAuth(auth.id, auth.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	return doRequest(s.T(), req)
}

func decode[T any](s *ServerTestSuite, r *resp) T {
	var v T
	s.Require().NoError(json.Unmarshal(r.body, &v), string(r.body))
	return v
}

func (s *ServerTestSuite) requireStatus(r *resp, code int) {
	s.Require().Equal(code, r.code, string(r.body))
}

func (s *ServerTestSuite) createContest(req map[string]any) types.ContestResponse {
	if _, ok := req["title"]; !ok {
		req["title"] = "Spring Sonnets"
	}
	r := s.call(http.MethodPost, "/v1/contests/", as(creator), req)
	s.requireStatus(r, http.StatusCreated)
	return decode[types.ContestResponse](s, r)
}

func (s *ServerTestSuite) transition(id uuid.UUID, status string) {
	r := s.call(
		http.MethodPost,
		"/v1/contests/"+id.String()+"/transition/",
		as(creator),
		map[string]any{"status": status},
	)
	s.requireStatus(r, http.StatusOK)
}

func (s *ServerTestSuite) openContest(req map[string]any) types.ContestResponse {
	req["publicly_listed"] = true
	c := s.createContest(req)
	s.transition(c.ID, "open")
	return c
}

func (s *ServerTestSuite) submit(contestID uuid.UUID, author config.Account) types.SubmissionResponse {
	r := s.call(
		http.MethodPost,
		"/v1/contests/"+contestID.String()+"/submissions/",
		as(author),
		map[string]any{"text_id": uuid.New()},
	)
	s.requireStatus(r, http.StatusCreated)
	return decode[types.SubmissionResponse](s, r)
}

func (s *ServerTestSuite) TestHealth() {
	r := s.call(http.MethodGet, "/health/", nil, nil)
	s.requireStatus(r, http.StatusOK)
	s.Equal("ok", decode[types.HealthResponse](s, r).Status)
}

func (s *ServerTestSuite) TestAuthentication() {
	tests := []struct {
		name           string
		method         string
		auth           *clientAuth
		expectedStatus int
	}{
		{
			name:           "anonymous read",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "anonymous write",
			method:         http.MethodPost,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong token",
			method:         http.MethodGet,
			auth:           &clientAuth{creator.ID, "not the token of anyone"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown account",
			method:         http.MethodGet,
			auth:           &clientAuth{uuid.NewString(), creator.Token},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "inactive account",
			method:         http.MethodGet,
			auth:           as(inactive),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "valid account",
			method:         http.MethodGet,
			auth:           as(alice),
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			var body any
			if tt.method == http.MethodPost {
				body = map[string]any{"title": "Haiku"}
			}
			r := s.call(tt.method, "/v1/contests/", tt.auth, body)
			s.Equal(tt.expectedStatus, r.code, string(r.body))
		})
	}
}

func (s *ServerTestSuite) TestMalformedIDs() {
	r := s.call(http.MethodGet, "/v1/contests/not-a-uuid/", as(creator), nil)
	s.Equal(http.StatusNotFound, r.code)

	r = s.call(http.MethodGet, "/v1/contests/"+uuid.NewString()+"/", as(creator), nil)
	s.Equal(http.StatusNotFound, r.code)
}
