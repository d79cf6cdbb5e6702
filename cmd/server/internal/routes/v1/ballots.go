package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/types"
)

func (h *Handler) CastBallot(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CastBallot")
	defer span.End()

	actor, ids, err := request(span, c, contestIDKey, judgeIDKey)
	if err != nil {
		return err
	}

	var req types.BallotRequest
	if err := bindAndValidate(span, c, &req); err != nil {
		return err
	}

	entries := make([]contest.BallotEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, contest.BallotEntry{
			SubmissionID: e.SubmissionID,
			Place:        e.Place,
			Comment:      e.Comment,
		})
	}

	span.SetAttributes(attribute.Int("entries", len(entries)))

	ballot, err := h.service.CastBallot(ctx, actor, ids[0], ids[1], entries)
	if err != nil {
		return serviceError(span, c, err)
	}

	ok(span)
	return c.JSON(http.StatusOK, ballotResponse(ballot))
}

func (h *Handler) GetBallot(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "GetBallot")
	defer span.End()

	actor, ids, err := request(span, c, contestIDKey, judgeIDKey)
	if err != nil {
		return err
	}

	ballot, err := h.service.GetBallot(ctx, actor, ids[0], ids[1])
	if err != nil {
		return serviceError(span, c, err)
	}

	ok(span)
	return c.JSON(http.StatusOK, ballotResponse(ballot))
}
