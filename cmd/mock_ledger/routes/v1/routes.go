package v1

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/quillfight/contest-api/internal/validator"
)

// BuildEcho serves ledger under /v1. A non-empty token is required as a
// bearer token on every request.
func BuildEcho(ledger *Ledger, token string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	validate := validator.Create()
	e.Validator = &validate

	e.Pre(middleware.AddTrailingSlash())

	v1Group := e.Group("/v1", middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Skipper: func(echo.Context) bool { return token == "" },
		Validator: func(key string, _ echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1, nil
		},
	}))

	v1Group.GET("/balances/:actor_id/", ledger.Balance)
	v1Group.POST("/debits/", ledger.Debit)

	return e
}
