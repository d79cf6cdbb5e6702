package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/types"
)

// Jobs are accepted, not finished: the pipeline answers later through the
// ballot and submission routes.

func (h *Handler) TriggerAIJudge(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "TriggerAIJudge")
	defer span.End()

	actor, ids, err := request(span, c, contestIDKey, judgeIDKey)
	if err != nil {
		return err
	}

	job, err := h.service.TriggerAIJudge(ctx, actor, ids[0], ids[1])
	if err != nil {
		return serviceError(span, c, err)
	}

	span.SetAttributes(attribute.String("job.id", job.ID.String()))
	ok(span)
	return c.JSON(http.StatusAccepted, jobResponse(job))
}

func (h *Handler) TriggerAIWriter(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "TriggerAIWriter")
	defer span.End()

	actor, ids, err := request(span, c, contestIDKey)
	if err != nil {
		return err
	}

	var req types.AIWriterRequest
	if err := bindAndValidate(span, c, &req); err != nil {
		return err
	}

	job, err := h.service.TriggerAIWriter(ctx, actor, ids[0], contest.AIWriterRequest{
		AgentID: req.AgentID,
		Prompt:  req.Prompt,
	})
	if err != nil {
		return serviceError(span, c, err)
	}

	span.SetAttributes(attribute.String("job.id", job.ID.String()))
	ok(span)
	return c.JSON(http.StatusAccepted, jobResponse(job))
}
