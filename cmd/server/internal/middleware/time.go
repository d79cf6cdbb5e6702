package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/quillfight/contest-api/internal/contest"
)

// ReceivedAt pins the service clock to the arrival time of the request.
func ReceivedAt() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(c.Request().Context(), "ReceivedAt")

			t := time.Now()
			span.AddEvent("received", trace.WithAttributes(
				attribute.String("time", t.UTC().Format(time.RFC3339Nano)),
			))
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "")
			span.End()

			c.SetRequest(c.Request().WithContext(contest.WithReceivedAt(ctx, t)))
			return next(c)
		}
	}
}
