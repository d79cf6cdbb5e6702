package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	srverr "github.com/quillfight/contest-api/cmd/server/internal/error"
	servermiddleware "github.com/quillfight/contest-api/cmd/server/internal/middleware"
	"github.com/quillfight/contest-api/cmd/server/internal/ratelimit"
	"github.com/quillfight/contest-api/cmd/server/internal/response"
	"github.com/quillfight/contest-api/internal/config"
	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/logger"
	"github.com/quillfight/contest-api/internal/models"
	"github.com/quillfight/contest-api/internal/types"
)

const name = "github.com/quillfight/contest-api/server/routes/v1"

var tracer = otel.Tracer(name)

// context keys of parsed path ids
const (
	contestIDKey    = "contestID"
	submissionIDKey = "submissionID"
	judgeIDKey      = "judgeID"
)

type Handler struct {
	service *contest.Service
	config  *config.Config
	// Nil disables rate limiting
	redis *redis.Client
}

func NewHandler(service *contest.Service, cfg *config.Config, redisClient *redis.Client) Handler {
	return Handler{
		service: service,
		config:  cfg,
		redis:   redisClient,
	}
}

func NewRedisLimiter(
	rdb *redis.Client,
	limiterKey string,
	perMinute int64,
	failOpen bool,
	skipper middleware.Skipper,
) middleware.RateLimiterConfig {
	store := ratelimit.NewRedisLimitStore(ratelimit.RedisLimiterConfig{
		PerMinute:   perMinute,
		RedisClient: rdb,
		LimiterKey:  limiterKey,
		FailOpen:    failOpen,
	})

	if skipper == nil {
		skipper = middleware.DefaultSkipper
	}

	return middleware.RateLimiterConfig{
		Skipper: skipper,
		Store:   store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if account, ok := c.Get(servermiddleware.AuthKey).(*models.Account); ok {
				return account.ID.String(), nil
			}
			// anonymous callers share a window per address
			return "ip-" + c.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, _ error) error {
			return context.JSON(http.StatusForbidden, nil)
		},
		DenyHandler: func(context echo.Context, _ string, _ error) error {
			return context.JSON(http.StatusTooManyRequests, types.StringError("rate limit exceeded"))
		},
	}
}

func onlyWrites(c echo.Context) bool {
	switch c.Request().Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func (h *Handler) AddRoutes(e *echo.Echo, middlewareHandler *servermiddleware.Handler) {
	l := logger.Logger

	v1Group := e.Group(
		"/v1",
		middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
			Skipper:   servermiddleware.SkipWithoutCredentials,
			Validator: middlewareHandler.BasicAuthValidator,
		}),
		servermiddleware.RequireAuthForWrites(),
		servermiddleware.Actor(),
	)

	rateLimit := h.config.RateLimit
	if h.redis != nil && rateLimit != nil && rateLimit.GlobalPerMinute > 0 {
		v1Group.Use(middleware.RateLimiterWithConfig(
			NewRedisLimiter(h.redis, "global", rateLimit.GlobalPerMinute, rateLimit.FailOpen, nil),
		))
	} else {
		l.Warn("not configured to have a global rate limit")
	}

	if h.redis != nil && rateLimit != nil && rateLimit.WritePerMinute > 0 {
		v1Group.Use(middleware.RateLimiterWithConfig(
			NewRedisLimiter(h.redis, "write", rateLimit.WritePerMinute, rateLimit.FailOpen, onlyWrites),
		))
	} else {
		l.Warn("not configured to have a write rate limit")
	}

	contests := v1Group.Group("/contests")
	contests.GET("/", h.ListContests)
	contests.POST("/", h.CreateContest)

	contestGroup := contests.Group(
		"/:contest_id",
		servermiddleware.ParseIDParam("contest_id", contestIDKey),
	)
	contestGroup.GET("/", h.GetContest)
	contestGroup.PATCH("/", h.UpdateContest)
	contestGroup.POST("/transition/", h.Transition)
	contestGroup.GET("/ranking/", h.Ranking)
	contestGroup.POST("/ai-writer/", h.TriggerAIWriter)

	contestGroup.GET("/submissions/", h.ListSubmissions)
	contestGroup.POST("/submissions/", h.Submit)
	contestGroup.DELETE(
		"/submissions/:submission_id/",
		h.Withdraw,
		servermiddleware.ParseIDParam("submission_id", submissionIDKey),
	)

	contestGroup.GET("/judges/", h.CompletionStatus)
	contestGroup.POST("/judges/", h.AssignJudge)

	judgeGroup := contestGroup.Group(
		"/judges/:judge_id",
		servermiddleware.ParseIDParam("judge_id", judgeIDKey),
	)
	judgeGroup.DELETE("/", h.RemoveJudge)
	judgeGroup.GET("/ballot/", h.GetBallot)
	judgeGroup.PUT("/ballot/", h.CastBallot)
	judgeGroup.POST("/ai-run/", h.TriggerAIJudge)
}

func actorFrom(c echo.Context) (contest.Actor, error) {
	actor, ok := c.Get(servermiddleware.ActorKey).(contest.Actor)
	if !ok {
		return contest.Actor{}, fmt.Errorf("actor: %w", srverr.ErrTypeAssertMismatch)
	}
	return actor, nil
}

func idFrom(c echo.Context, key string) (uuid.UUID, error) {
	id, ok := c.Get(key).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("%s: %w", key, srverr.ErrTypeAssertMismatch)
	}
	return id, nil
}

// request pulls the actor and the listed path ids out of the context
func request(span trace.Span, c echo.Context, keys ...string) (contest.Actor, []uuid.UUID, error) {
	actor, err := actorFrom(c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return actor, nil, response.InternalServerError
	}

	ids := make([]uuid.UUID, 0, len(keys))
	for _, key := range keys {
		id, err := idFrom(c, key)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return actor, nil, response.InternalServerError
		}
		ids = append(ids, id)
	}

	return actor, ids, nil
}

// bindAndValidate fills req from the request and checks its tags.
func bindAndValidate(span trace.Span, c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to bind request")
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return echo.NewHTTPError(http.StatusBadRequest, types.StringError(fmt.Sprint(httpErr.Message)))
		}
		return response.BadRequestError
	}

	if err := c.Validate(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to validate request")
		return echo.NewHTTPError(http.StatusBadRequest, types.ValidationError(err))
	}

	return nil
}

// serviceError records err and maps it onto the http error for the client.
func serviceError(span trace.Span, c echo.Context, err error) error {
	if contest.IsExpected(err) {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, err.Error())
	} else {
		span.RecordError(err)
		span.SetStatus(codes.Error, "service failure")
		logger.Logger.ErrorContext(c.Request().Context(), "request failed", "path", c.Path(), "error", err)
	}

	return response.FromError(err)
}

func ok(span trace.Span) {
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")
}
