package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/cloudpulse/telemetry-pipeline/internal/domain"
	"github.com/cloudpulse/telemetry-pipeline/internal/ports"
)

type AggregationHandler struct {
	service ports.AggregationService
	log     *zap.Logger
}

func NewAggregationHandler(service ports.AggregationService, log *zap.Logger) *AggregationHandler {
	return &AggregationHandler{
		service: service,
		log:     log,
	}
}

type triggerRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

// Trigger runs aggregation on demand. Without a body the preceding hour is
// processed; with one, the supplied window is.
func (h *AggregationHandler) Trigger(c *fiber.Ctx) error {
	window := h.service.DefaultWindow()

	if len(c.Body()) > 0 {
		var req triggerRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
		}
		if (req.StartTime == nil) != (req.EndTime == nil) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_time and end_time must be supplied together"})
		}
		if req.StartTime != nil {
			var err error
			window, err = domain.NewTimeWindow(*req.StartTime, *req.EndTime)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
		}
	}

	result, err := h.service.Run(c.Context(), window)
	if err != nil {
		h.log.Error("Triggered aggregation run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  err.Error(),
			"result": result,
		})
	}
	return c.JSON(result)
}

// LatestRun returns the most recent run result.
func (h *AggregationHandler) LatestRun(c *fiber.Ctx) error {
	result := h.service.LatestRun()
	if result == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No aggregation runs yet"})
	}
	return c.JSON(result)
}
