package response

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/types"
)

var (
	InternalServerError = echo.NewHTTPError(
		http.StatusInternalServerError,
		types.StringError("something went wrong"),
	)
	NotFoundError   = echo.NewHTTPError(http.StatusNotFound, types.StringError("not found"))
	BadRequestError = echo.NewHTTPError(http.StatusBadRequest, types.StringError("malformed request"))
)

// Status codes of the domain outcomes, most specific first
var statuses = []struct {
	err    error
	status int
}{
	{contest.ErrNotFound, http.StatusNotFound},
	{contest.ErrForbidden, http.StatusForbidden},
	{contest.ErrUnauthenticated, http.StatusUnauthorized},
	{contest.ErrNotPermitted, http.StatusForbidden},
	{contest.ErrInsufficientRanking, http.StatusUnprocessableEntity},
	{contest.ErrDuplicatePlace, http.StatusUnprocessableEntity},
	{contest.ErrInvalidBallot, http.StatusUnprocessableEntity},
	{contest.ErrInvalidInput, http.StatusBadRequest},
	{contest.ErrInsufficientCredits, http.StatusPaymentRequired},
	{contest.ErrInvalidTransition, http.StatusConflict},
	{contest.ErrNotOpen, http.StatusConflict},
	{contest.ErrNotEvaluation, http.StatusConflict},
	{contest.ErrDeadlinePassed, http.StatusConflict},
	{contest.ErrDuplicateAuthor, http.StatusConflict},
	{contest.ErrDuplicateText, http.StatusConflict},
	{contest.ErrConflict, http.StatusConflict},
}

// FromError turns a service error into the http error returned to clients.
// Anything that is not a domain outcome is hidden behind a 500.
func FromError(err error) *echo.HTTPError {
	if errors.Is(err, contest.ErrNotFound) {
		return NotFoundError
	}

	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return echo.NewHTTPError(s.status, types.StringError(err.Error()))
		}
	}

	return InternalServerError
}
