package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stayops/stayops-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health      *HealthHandler
	Reservation *ReservationHandler
	Approval    *ApprovalHandler
	Settings    *SettingsHandler
	DayBoundary *DayBoundaryHandler
	Job         *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(),
		Reservation: NewReservationHandler(svcs.Transition, svcs.Audit),
		Approval:    NewApprovalHandler(svcs.Approval),
		Settings:    NewSettingsHandler(svcs.Settings),
		DayBoundary: NewDayBoundaryHandler(svcs.DayBoundary),
		Job:         NewJobHandler(svcs.Job, svcs.Scheduler),
	}
}

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// @Summary Health Check
// @Description Checks if the API is running
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "stayops-api",
		"version": "1.0.0",
	})
}
