package routes

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	servermiddleware "github.com/quillfight/contest-api/cmd/server/internal/middleware"
	"github.com/quillfight/contest-api/internal/types"
	"github.com/quillfight/contest-api/internal/validator"
)

const ServiceName = "contest-api"

func BuildEcho(logger *slog.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	validate := validator.Create()
	e.Validator = &validate

	e.Pre(middleware.AddTrailingSlash())

	e.Use(
		otelecho.Middleware(ServiceName),
		slogecho.NewWithConfig(logger, slogecho.Config{
			WithSpanID:  true,
			WithTraceID: true,
		}),
		middleware.Recover(),
		servermiddleware.ReceivedAt(),
	)

	e.GET("/health/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, types.HealthResponse{Status: "ok"})
	})

	return e, nil
}
