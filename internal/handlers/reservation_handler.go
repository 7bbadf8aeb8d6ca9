package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stayops/stayops-api/internal/middleware"
	"github.com/stayops/stayops-api/internal/models"
	"github.com/stayops/stayops-api/internal/repository"
	"github.com/stayops/stayops-api/internal/services"
)

type ReservationHandler struct {
	transitionService *services.TransitionService
	auditService      *services.AuditService
}

func NewReservationHandler(transitionSvc *services.TransitionService, auditSvc *services.AuditService) *ReservationHandler {
	return &ReservationHandler{transitionService: transitionSvc, auditService: auditSvc}
}

type transitionRequest struct {
	NewStatus string `json:"new_status" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

type noteRequest struct {
	Text string `json:"text" binding:"required"`
}

func listQueryFrom(c *gin.Context) *repository.ListQuery {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 || query.PerPage > 100 {
		query.PerPage = 20
	}
	return query
}

func paginationFor(query *repository.ListQuery, total int64) gin.H {
	return gin.H{
		"page":        query.Page,
		"per_page":    query.PerPage,
		"total":       total,
		"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
	}
}

// @Summary Get Reservation
// @Description Get a reservation with its current status snapshot
// @Tags Reservations
// @Produce json
// @Param reservation_id path int true "Reservation ID"
// @Success 200 {object} models.ReservationResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /reservations/{reservation_id} [get]
func (h *ReservationHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("reservation_id"), 10, 32)

	reservation, err := h.transitionService.GetReservation(c.Request.Context(), middleware.GetPropertyID(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": reservation})
}

// @Summary Transition Reservation
// @Description Move a reservation to a new lifecycle status
// @Tags Reservations
// @Accept json
// @Produce json
// @Param reservation_id path int true "Reservation ID"
// @Param body body transitionRequest true "Target status and reason"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /reservations/{reservation_id}/transition [post]
func (h *ReservationHandler) Transition(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("reservation_id"), 10, 32)

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new_status and reason are required"})
		return
	}

	origin := services.ManualOrigin(middleware.GetUserID(c))
	result, err := h.transitionService.Transition(c.Request.Context(), middleware.GetPropertyID(c), uint(id), req.NewStatus, req.Reason, origin)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reservation": result.Reservation.ToResponse(),
		"no_op":       result.NoOp,
	})
}

// @Summary Status History
// @Description Get a reservation's status transitions, newest first
// @Tags Reservations
// @Produce json
// @Param reservation_id path int true "Reservation ID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /reservations/{reservation_id}/status_history [get]
func (h *ReservationHandler) StatusHistory(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("reservation_id"), 10, 32)
	query := listQueryFrom(c)

	entries, total, err := h.transitionService.GetStatusHistory(c.Request.Context(), middleware.GetPropertyID(c), uint(id), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.StatusHistoryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, entries[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"history":    responses,
		"pagination": paginationFor(query, total),
	})
}

// @Summary Audit Log
// @Description Get a reservation's audit ledger, newest first
// @Tags Reservations
// @Produce json
// @Param reservation_id path int true "Reservation ID"
// @Param action query string false "Filter by action"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /reservations/{reservation_id}/audit_log [get]
func (h *ReservationHandler) AuditLog(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("reservation_id"), 10, 32)
	query := listQueryFrom(c)
	if action := c.Query("action"); action != "" {
		query.Filters["action"] = action
	}

	entries, total, err := h.auditService.GetAuditLog(c.Request.Context(), middleware.GetPropertyID(c), uint(id), query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.AuditLogResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, entries[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_log":  responses,
		"pagination": paginationFor(query, total),
	})
}

// @Summary List Notes
// @Description Get the live notes of a reservation
// @Tags Notes
// @Produce json
// @Param reservation_id path int true "Reservation ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /reservations/{reservation_id}/notes [get]
func (h *ReservationHandler) ListNotes(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("reservation_id"), 10, 32)

	notes, err := h.auditService.GetNotes(c.Request.Context(), middleware.GetPropertyID(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

// @Summary Add Note
// @Description Add a note to a reservation
// @Tags Notes
// @Accept json
// @Produce json
// @Param reservation_id path int true "Reservation ID"
// @Param body body noteRequest true "Note text"
// @Success 201 {object} models.AuditLogResponse
// @Security BearerAuth
// @Router /reservations/{reservation_id}/notes [post]
func (h *ReservationHandler) AddNote(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("reservation_id"), 10, 32)

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	entry, err := h.auditService.AddNote(c.Request.Context(), middleware.GetPropertyID(c), uint(id), middleware.GetUserID(c), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"note": entry.ToResponse()})
}

// @Summary Edit Note
// @Description Edit a note; the ledger records the edit as a new entry
// @Tags Notes
// @Accept json
// @Produce json
// @Param reservation_id path int true "Reservation ID"
// @Param thread_id path string true "Note thread ID"
// @Param body body noteRequest true "New note text"
// @Success 200 {object} models.AuditLogResponse
// @Security BearerAuth
// @Router /reservations/{reservation_id}/notes/{thread_id} [put]
func (h *ReservationHandler) EditNote(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("reservation_id"), 10, 32)
	threadID := c.Param("thread_id")

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	entry, err := h.auditService.EditNote(c.Request.Context(), middleware.GetPropertyID(c), uint(id), middleware.GetUserID(c), threadID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": entry.ToResponse()})
}

// @Summary Delete Note
// @Description Delete a note; the ledger records the deletion, nothing is erased
// @Tags Notes
// @Produce json
// @Param reservation_id path int true "Reservation ID"
// @Param thread_id path string true "Note thread ID"
// @Success 200 {object} models.AuditLogResponse
// @Security BearerAuth
// @Router /reservations/{reservation_id}/notes/{thread_id} [delete]
func (h *ReservationHandler) DeleteNote(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("reservation_id"), 10, 32)
	threadID := c.Param("thread_id")

	entry, err := h.auditService.DeleteNote(c.Request.Context(), middleware.GetPropertyID(c), uint(id), middleware.GetUserID(c), threadID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"note": entry.ToResponse()})
}

// @Summary Note History
// @Description Get the full ledger of one note thread, oldest first
// @Tags Notes
// @Produce json
// @Param reservation_id path int true "Reservation ID"
// @Param thread_id path string true "Note thread ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /reservations/{reservation_id}/notes/{thread_id}/history [get]
func (h *ReservationHandler) NoteHistory(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("reservation_id"), 10, 32)
	threadID := c.Param("thread_id")

	entries, err := h.auditService.GetNoteHistory(c.Request.Context(), middleware.GetPropertyID(c), uint(id), threadID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.AuditLogResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, entries[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"history": responses})
}
