package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/types"
)

func (h *Handler) CompletionStatus(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CompletionStatus")
	defer span.End()

	actor, ids, err := request(span, c, contestIDKey)
	if err != nil {
		return err
	}

	completion, err := h.service.CompletionStatus(ctx, actor, ids[0])
	if err != nil {
		return serviceError(span, c, err)
	}

	ok(span)
	return c.JSON(http.StatusOK, completionResponse(completion))
}

func (h *Handler) AssignJudge(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "AssignJudge")
	defer span.End()

	actor, ids, err := request(span, c, contestIDKey)
	if err != nil {
		return err
	}

	var req types.AssignJudgeRequest
	if err := bindAndValidate(span, c, &req); err != nil {
		return err
	}

	ref := contest.JudgeRef{UserID: req.UserID, AgentID: req.AgentID}
	if ref.UserID == nil && ref.AgentID == nil {
		// empty body: the caller volunteers
		self := actor.ID
		ref.UserID = &self
	}

	span.SetAttributes(attribute.String("kind", string(ref.Kind())))

	judge, err := h.service.AssignJudge(ctx, actor, ids[0], ref)
	if errors.Is(err, contest.ErrAlreadyAssigned) && judge != nil {
		span.AddEvent("already_assigned")
		ok(span)
		return c.JSON(http.StatusOK, judgeResponse(judge))
	}
	if err != nil {
		return serviceError(span, c, err)
	}

	ok(span)
	return c.JSON(http.StatusCreated, judgeResponse(judge))
}

func (h *Handler) RemoveJudge(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "RemoveJudge")
	defer span.End()

	actor, ids, err := request(span, c, contestIDKey, judgeIDKey)
	if err != nil {
		return err
	}

	if err := h.service.RemoveJudge(ctx, actor, ids[0], ids[1]); err != nil {
		return serviceError(span, c, err)
	}

	ok(span)
	return c.NoContent(http.StatusNoContent)
}
