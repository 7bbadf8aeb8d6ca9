package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stayops/stayops-api/internal/services"
)

type JobHandler struct {
	jobService       *services.JobService
	schedulerService *services.SchedulerService
}

func NewJobHandler(jobSvc *services.JobService, schedulerSvc *services.SchedulerService) *JobHandler {
	return &JobHandler{
		jobService:       jobSvc,
		schedulerService: schedulerSvc,
	}
}

// Status returns the current worker status
// @Summary Get background job status
// @Description Get statistics about background jobs (active, finished, failed, queue length)
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	status := h.jobService.GetStatus()
	c.JSON(http.StatusOK, status)
}

// @Summary Run Scheduler Scan
// @Description Trigger one automatic transition scan immediately
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /jobs/scan [post]
func (h *JobHandler) RunScan(c *gin.Context) {
	stats, err := h.schedulerService.RunScan(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if stats == nil {
		c.JSON(http.StatusAccepted, gin.H{"message": "a scan is already in progress"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"properties_scanned":    stats.PropertiesScanned,
		"no_shows_marked":       stats.NoShowsMarked,
		"expired_cancelled":     stats.ExpiredCancelled,
		"late_checkouts_marked": stats.LateCheckoutsMarked,
		"skipped":               stats.Skipped,
		"failed":                stats.Failed,
		"duration":              stats.Duration.String(),
	})
}
