package fiber

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	aggdomain "panopticon-aggregator/internal/aggregation/core/domain"
	"panopticon-aggregator/internal/dailystats/core/domain"
	"panopticon-aggregator/internal/dailystats/core/usecase"
	"panopticon-aggregator/internal/telemetry"

	"github.com/gofiber/fiber/v2"
)

type GetDailyStatsUseCase interface {
	Range(ctx context.Context, in usecase.RangeInput) ([]domain.DailyStats, error)
	Day(ctx context.Context, day int64) (*domain.DailyStats, error)
	Latest(ctx context.Context) (*domain.DailyStats, error)
	Health(ctx context.Context) error
}

type DailyStatsHandler struct {
	uc GetDailyStatsUseCase
}

func NewDailyStatsHandler(uc GetDailyStatsUseCase) *DailyStatsHandler {
	return &DailyStatsHandler{uc: uc}
}

// Register mounts the handler's routes on r.
func (h *DailyStatsHandler) Register(r fiber.Router) {
	r.Get("/health", h.Health)
	r.Get("/aggregates", h.ListAggregates)
	r.Get("/aggregates/latest", h.GetLatestAggregate)
	r.Get("/aggregates/:day", h.GetAggregate)
}

// ListAggregates godoc
// @Summary List daily aggregates
// @Description Returns aggregated days with from <= day < to, oldest first
// @Tags Aggregates
// @Produce json
// @Param from query int true "From timestamp (inclusive)"
// @Param to query int true "To timestamp (exclusive)"
// @Success 200 {object} DailyStatsListResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /aggregates [get]
func (h *DailyStatsHandler) ListAggregates(c *fiber.Ctx) error {
	fromStr := c.Query("from", "")
	toStr := c.Query("to", "")
	if fromStr == "" || toStr == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_query",
			Message: "from and to are required",
		})
	}

	from, err := strconv.ParseInt(fromStr, 10, 64)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_query",
			Message: "invalid 'from' parameter",
		})
	}
	to, err := strconv.ParseInt(toStr, 10, 64)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_query",
			Message: "invalid 'to' parameter",
		})
	}

	days, err := h.uc.Range(c.UserContext(), usecase.RangeInput{From: from, To: to})
	if err != nil {
		return writeError(c, err)
	}

	resp := DailyStatsListResponse{
		From: from,
		To:   to,
		Days: make([]DailyStatsResponse, 0, len(days)),
	}
	for _, d := range days {
		resp.Days = append(resp.Days, toResponse(d))
	}

	return c.Status(http.StatusOK).JSON(resp)
}

// GetAggregate godoc
// @Summary Get one daily aggregate
// @Tags Aggregates
// @Produce json
// @Param day path int true "UTC midnight, unix seconds"
// @Success 200 {object} DailyStatsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /aggregates/{day} [get]
func (h *DailyStatsHandler) GetAggregate(c *fiber.Ctx) error {
	day, err := strconv.ParseInt(c.Params("day"), 10, 64)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_query",
			Message: "invalid 'day' parameter",
		})
	}

	stats, err := h.uc.Day(c.UserContext(), day)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(toResponse(*stats))
}

// GetLatestAggregate godoc
// @Summary Get the most recent daily aggregate
// @Tags Aggregates
// @Produce json
// @Success 200 {object} DailyStatsResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /aggregates/latest [get]
func (h *DailyStatsHandler) GetLatestAggregate(c *fiber.Ctx) error {
	stats, err := h.uc.Latest(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(http.StatusOK).JSON(toResponse(*stats))
}

// Health godoc
// @Summary Database health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *DailyStatsHandler) Health(c *fiber.Ctx) error {
	if err := h.uc.Health(c.UserContext()); err != nil {
		return c.Status(http.StatusServiceUnavailable).JSON(HealthResponse{Status: "unavailable"})
	}
	return c.Status(http.StatusOK).JSON(HealthResponse{Status: "ok"})
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidRange),
		errors.Is(err, usecase.ErrRangeTooLarge),
		errors.Is(err, usecase.ErrInvalidDay):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_query",
			Message: err.Error(),
		})
	case errors.Is(err, usecase.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	default:
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal_server_error",
		})
	}
}

func toResponse(d domain.DailyStats) DailyStatsResponse {
	metrics := make(map[string]*int64, len(telemetry.MetricColumns))
	for i, name := range telemetry.MetricColumns {
		if i < len(d.Metrics) {
			metrics[name] = d.Metrics[i]
		} else {
			metrics[name] = nil
		}
	}

	return DailyStatsResponse{
		Day:                    d.Day,
		Date:                   aggdomain.FormatDay(d.Day),
		Metrics:                metrics,
		DailyActiveHomeservers: d.ActiveHomeservers,
	}
}
