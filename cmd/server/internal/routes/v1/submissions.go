package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/types"
)

func (h *Handler) ListSubmissions(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListSubmissions")
	defer span.End()

	actor, ids, err := request(span, c, contestIDKey)
	if err != nil {
		return err
	}

	submissions, err := h.service.ListSubmissions(ctx, actor, ids[0])
	if err != nil {
		return serviceError(span, c, err)
	}

	counts := contest.CountSubmissions(submissions)
	resp := types.SubmissionListResponse{
		Submissions: make([]types.SubmissionResponse, 0, len(submissions)),
		Counts: types.ContestCounts{
			Submissions:  counts.Submissions,
			Participants: counts.Participants,
		},
	}
	for i := range submissions {
		resp.Submissions = append(resp.Submissions, submissionResponse(&submissions[i]))
	}

	span.SetAttributes(attribute.Int("submissions", len(submissions)))
	ok(span)
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Submit(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Submit")
	defer span.End()

	actor, ids, err := request(span, c, contestIDKey)
	if err != nil {
		return err
	}

	var req types.SubmitRequest
	if err := bindAndValidate(span, c, &req); err != nil {
		return err
	}

	submission, err := h.service.Submit(ctx, actor, ids[0], contest.SubmitRequest{
		TextID:   req.TextID,
		AuthorID: req.AuthorID,
	})
	if err != nil {
		return serviceError(span, c, err)
	}

	span.SetAttributes(attribute.String("submission.id", submission.ID.String()))
	ok(span)
	return c.JSON(http.StatusCreated, submissionResponse(submission))
}

func (h *Handler) Withdraw(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Withdraw")
	defer span.End()

	actor, ids, err := request(span, c, contestIDKey, submissionIDKey)
	if err != nil {
		return err
	}

	if err := h.service.Withdraw(ctx, actor, ids[0], ids[1]); err != nil {
		return serviceError(span, c, err)
	}

	ok(span)
	return c.NoContent(http.StatusNoContent)
}
