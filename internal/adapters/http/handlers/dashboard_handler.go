package handlers

import (
	"audiochamber/internal/adapters/http/middleware"
	"audiochamber/internal/core/domain"
	"audiochamber/internal/core/services"
	"audiochamber/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetApproverDashboard returns the approver overview
// @Summary Approver Dashboard
// @Description Booking and user overview (Admin/Owner only)
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard/approver [get]
func (h *DashboardHandler) GetApproverDashboard(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetApproverDashboard(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to get approver dashboard")
	}

	return response.Success(c, "Approver dashboard retrieved successfully", data)
}

// GetMyDashboard returns dashboard based on user role
// @Summary My Dashboard
// @Description Get dashboard based on current user's role (auto-detect)
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) GetMyDashboard(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var data interface{}
	var err error
	if domain.IsApprover(actor.Role) {
		data, err = h.dashboardService.GetApproverDashboard(c.UserContext())
	} else {
		data, err = h.dashboardService.GetUserDashboard(c.UserContext(), *actor)
	}
	if err != nil {
		return response.InternalServerError(c, "Failed to get dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", fiber.Map{
		"role": actor.Role,
		"data": data,
	})
}
