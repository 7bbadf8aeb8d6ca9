package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stayops/stayops-api/internal/middleware"
	"github.com/stayops/stayops-api/internal/services"
)

type DayBoundaryHandler struct {
	dayBoundaryService *services.DayBoundaryService
}

func NewDayBoundaryHandler(dayBoundarySvc *services.DayBoundaryService) *DayBoundaryHandler {
	return &DayBoundaryHandler{dayBoundaryService: dayBoundarySvc}
}

// @Summary Validate Day Boundary
// @Description Check the property's reservations against the operational day rollover
// @Tags DayBoundary
// @Produce json
// @Success 200 {object} services.DayBoundaryResult
// @Security BearerAuth
// @Router /day_boundary/validate [get]
func (h *DayBoundaryHandler) Validate(c *gin.Context) {
	result, err := h.dayBoundaryService.Validate(c.Request.Context(), middleware.GetPropertyID(c), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
