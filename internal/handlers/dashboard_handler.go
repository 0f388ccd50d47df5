package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gastos/internal/services"
)

// DashboardHandler serves the dashboard aggregates. Every endpoint accepts
// the movement filter query parameters; the text search is ignored.
type DashboardHandler struct {
	dashboardService services.DashboardServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService services.DashboardServicer) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetSummary returns headline totals and the balance projection
// @Summary     Dashboard summary
// @Tags        dashboard
// @Produce     json
// @Param       fecha_desde query string false "From date (inclusive)"
// @Param       fecha_hasta query string false "To date (inclusive)"
// @Success     200 {object} services.DashboardSummary
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.dashboardService.GetSummary(filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetMonthlySeries returns expenses and income per calendar month
// @Summary     Monthly series
// @Tags        dashboard
// @Produce     json
// @Success     200 {array} services.MonthlyPoint
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /dashboard/monthly [get]
func (h *DashboardHandler) GetMonthlySeries(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	series, err := h.dashboardService.GetMonthlySeries(filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, series)
}

// GetByCategory returns totals per category
// @Summary     Totals by category
// @Tags        dashboard
// @Produce     json
// @Success     200 {array} services.CategoryPoint
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /dashboard/by-category [get]
func (h *DashboardHandler) GetByCategory(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	points, err := h.dashboardService.GetByCategory(filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, points)
}

// GetYearlySeries returns expenses and income per year
// @Summary     Yearly series
// @Tags        dashboard
// @Produce     json
// @Success     200 {array} services.YearPoint
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Router      /dashboard/yearly [get]
func (h *DashboardHandler) GetYearlySeries(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	series, err := h.dashboardService.GetYearlySeries(filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, series)
}
