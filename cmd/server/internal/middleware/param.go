package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/quillfight/contest-api/cmd/server/internal/response"
)

// Parses the uuid in `paramName` into the context under `contextName`. A
// malformed id cannot name anything, so it is a 404.
func ParseIDParam(paramName string, contextName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			_, span := tracer.Start(c.Request().Context(), "ParseIDParam")
			defer span.End()

			rawID := c.Param(paramName)

			span.SetAttributes(
				attribute.String("paramName", paramName),
				attribute.String("contextName", contextName),
				attribute.String("id.raw", rawID),
			)

			span.AddEvent("parsing rawID into uuid")
			id, err := uuid.Parse(rawID)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to parse rawID into a UUID")
				return response.NotFoundError
			}

			c.Set(contextName, id)

			span.RecordError(nil)
			span.SetStatus(codes.Ok, "parsed id")
			return next(c)
		}
	}
}
