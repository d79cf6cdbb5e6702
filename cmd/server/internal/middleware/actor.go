package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/models"
	"github.com/quillfight/contest-api/internal/types"
)

// Context key of the contest.Actor of a request
const ActorKey = "actor"

// Header carrying the password of a protected contest
const ContestPasswordHeader = "X-Contest-Password"

// Actor derives the acting identity from the authenticated account, or
// anonymous when there is none.
func Actor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			_, span := tracer.Start(c.Request().Context(), "Actor")
			defer span.End()

			actor := contest.Anonymous()
			if account, ok := c.Get(AuthKey).(*models.Account); ok {
				actor = account.Actor()
			}
			actor.ContestPassword = c.Request().Header.Get(ContestPasswordHeader)

			span.SetAttributes(
				attribute.Bool("authenticated", actor.Authenticated),
				attribute.String("actor.id", actor.ID.String()),
				attribute.Bool("contest_password", actor.ContestPassword != ""),
			)

			c.Set(ActorKey, actor)

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "set actor")
			return next(c)
		}
	}
}

// RequireAuthForWrites rejects anonymous requests that are not reads.
func RequireAuthForWrites() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			_, span := tracer.Start(c.Request().Context(), "RequireAuthForWrites", trace.WithAttributes(
				attribute.String("method", c.Request().Method),
			))
			defer span.End()

			switch c.Request().Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				span.SetStatus(codes.Ok, "read")
				return next(c)
			}

			if _, ok := c.Get(AuthKey).(*models.Account); !ok {
				span.RecordError(nil)
				span.SetStatus(codes.Ok, "anonymous write")
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, `basic realm="Restricted"`)
				return echo.NewHTTPError(http.StatusUnauthorized, types.StringError("authentication required"))
			}

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "authenticated write")
			return next(c)
		}
	}
}
