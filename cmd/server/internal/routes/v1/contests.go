package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/quillfight/contest-api/cmd/server/internal/response"
	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/types"
)

const defaultPageSize = 50

func (h *Handler) ListContests(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListContests")
	defer span.End()

	actor, _, err := request(span, c)
	if err != nil {
		return err
	}

	var query types.ContestListQuery
	if err := bindAndValidate(span, c, &query); err != nil {
		return err
	}
	if query.Limit == 0 {
		query.Limit = defaultPageSize
	}

	span.SetAttributes(
		attribute.String("status", query.Status),
		attribute.Int("limit", query.Limit),
		attribute.Int("offset", query.Offset),
	)

	contests, err := h.service.ListContests(ctx, actor, contest.Status(query.Status), query.Limit, query.Offset)
	if err != nil {
		return serviceError(span, c, err)
	}

	resp := types.ContestListResponse{
		Contests: make([]types.ContestResponse, 0, len(contests)),
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	for i := range contests {
		resp.Contests = append(resp.Contests, contestResponse(&contests[i], nil))
	}

	ok(span)
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) CreateContest(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateContest")
	defer span.End()

	actor, _, err := request(span, c)
	if err != nil {
		return err
	}

	var req types.ContestCreate
	if err := bindAndValidate(span, c, &req); err != nil {
		return err
	}

	created, err := h.service.CreateContest(ctx, actor, contest.ContestConfig{
		Title:              req.Title,
		Description:        req.Description,
		PubliclyListed:     req.PubliclyListed,
		Password:           req.Password,
		EndDate:            req.EndDate,
		AuthorRestrictions: req.AuthorRestrictions,
		JudgeRestrictions:  req.JudgeRestrictions,
		MinVotesRequired:   req.MinVotesRequired,
	})
	if err != nil {
		return serviceError(span, c, err)
	}

	span.SetAttributes(attribute.String("contest.id", created.ID.String()))
	ok(span)
	return c.JSON(http.StatusCreated, contestResponse(created, &contest.Counts{}))
}

func (h *Handler) GetContest(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "GetContest")
	defer span.End()

	actor, ids, err := request(span, c, contestIDKey)
	if err != nil {
		return err
	}

	view, err := h.service.GetContest(ctx, actor, ids[0])
	if err != nil {
		return serviceError(span, c, err)
	}

	ok(span)
	return c.JSON(http.StatusOK, contestResponse(&view.Contest, &view.Counts))
}

// patchCheck carries the validation rules of the fields a patch may set
type patchCheck struct {
	Title            *string `json:"title"              validate:"omitnil,notblank,printable,max=200"`
	Description      *string `json:"description"        validate:"omitnil,printable,max=10000"`
	Password         *string `json:"password"           validate:"omitnil,contest_password"`
	MinVotesRequired *int    `json:"min_votes_required" validate:"omitnil,gte=0"`
}

func (h *Handler) UpdateContest(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "UpdateContest")
	defer span.End()

	actor, ids, err := request(span, c, contestIDKey)
	if err != nil {
		return err
	}

	var patch types.ContestPatch
	if err := c.Bind(&patch); err != nil {
		span.RecordError(err)
		return response.BadRequestError
	}

	check := patchCheck{
		Title:            patch.Title.Value,
		Description:      patch.Description.Value,
		Password:         patch.Password.Value,
		MinVotesRequired: patch.MinVotesRequired.Value,
	}
	if err := c.Validate(&check); err != nil {
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusBadRequest, types.ValidationError(err))
	}

	update := contest.ContestUpdate{
		Title:              patch.Title.Set(),
		Description:        patch.Description.Set(),
		PubliclyListed:     patch.PubliclyListed.Set(),
		AuthorRestrictions: patch.AuthorRestrictions.Set(),
		JudgeRestrictions:  patch.JudgeRestrictions.Set(),
		MinVotesRequired:   patch.MinVotesRequired.Set(),
	}
	if patch.Password.Defined {
		// null and "" both drop the password
		password := ""
		if patch.Password.Value != nil {
			password = *patch.Password.Value
		}
		update.Password = &password
	}
	if patch.EndDate.Defined {
		if patch.EndDate.Value == nil {
			update.ClearEndDate = true
		} else {
			end := patch.EndDate.Value.UTC()
			update.EndDate = &end
		}
	}

	updated, err := h.service.UpdateContest(ctx, actor, ids[0], update)
	if err != nil {
		return serviceError(span, c, err)
	}

	ok(span)
	return c.JSON(http.StatusOK, contestResponse(updated, nil))
}

func (h *Handler) Transition(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Transition")
	defer span.End()

	actor, ids, err := request(span, c, contestIDKey)
	if err != nil {
		return err
	}

	var req types.TransitionRequest
	if err := bindAndValidate(span, c, &req); err != nil {
		return err
	}

	span.SetAttributes(
		attribute.String("target", req.Status),
		attribute.Bool("override", req.Override),
	)

	moved, err := h.service.Transition(ctx, actor, ids[0], contest.Status(req.Status), req.Override)
	if err != nil {
		return serviceError(span, c, err)
	}

	ok(span)
	return c.JSON(http.StatusOK, contestResponse(moved, nil))
}

