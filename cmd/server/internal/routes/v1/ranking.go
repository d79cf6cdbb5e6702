package v1

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/quillfight/contest-api/internal/contest"
	"github.com/quillfight/contest-api/internal/types"
)

func (h *Handler) Ranking(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Ranking")
	defer span.End()

	actor, ids, err := request(span, c, contestIDKey)
	if err != nil {
		return err
	}

	var query types.RankingQuery
	if err := bindAndValidate(span, c, &query); err != nil {
		return err
	}

	filter := contest.JudgeFilter{Kind: contest.JudgeKind(query.Kind)}
	for _, raw := range query.JudgeIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			span.RecordError(err)
			return echo.NewHTTPError(http.StatusBadRequest, types.Error{
				Message: "validation error",
				Fields:  &map[string]string{"judge_id": "not a uuid: " + raw},
			})
		}
		filter.AssignmentIDs = append(filter.AssignmentIDs, id)
	}

	span.SetAttributes(
		attribute.Int("filter.judges", len(filter.AssignmentIDs)),
		attribute.String("filter.kind", query.Kind),
	)

	ranking, err := h.service.Ranking(ctx, actor, ids[0], filter)
	if err != nil {
		return serviceError(span, c, err)
	}

	span.SetAttributes(attribute.Bool("frozen", ranking.Frozen))
	ok(span)
	return c.JSON(http.StatusOK, rankingResponse(ids[0], ranking))
}
