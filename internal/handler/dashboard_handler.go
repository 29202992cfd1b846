package handler

import (
	"strconv"

	"go-site-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	maxOverviewLimit = 100
	maxMovementDays  = 366
)

// boundedInt parses a positive query value, falling back to def when it is
// missing or invalid and capping it at ceiling.
func boundedInt(raw string, def, ceiling int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return min(n, ceiling)
}

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetOverview returns per-site totals and the latest transactions.
// Query params: limit (default 10, at most 100)
func (h *DashboardHandler) GetOverview(c *fiber.Ctx) error {
	limit := boundedInt(c.Query("limit"), 10, maxOverviewLimit)

	overview, err := h.service.Overview(c.UserContext(), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(overview)
}

// GetStockMovement returns daily in/out weight for charts
// Query params: days (default 7, at most 366)
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	siteID, m, err := scope(c)
	if err != nil {
		return respondError(c, err)
	}
	days := boundedInt(c.Query("days"), 7, maxMovementDays)

	data, err := h.service.Movement(c.UserContext(), m, siteID, days)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}
