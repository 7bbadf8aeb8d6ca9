package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stayops/stayops-api/internal/middleware"
	"github.com/stayops/stayops-api/internal/models"
	"github.com/stayops/stayops-api/internal/services"
)

type ApprovalHandler struct {
	approvalService *services.ApprovalService
}

func NewApprovalHandler(approvalSvc *services.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalSvc}
}

type approvalRequestBody struct {
	ReservationID uint   `json:"reservation_id" binding:"required"`
	RequestType   string `json:"request_type" binding:"required"`
	NewStatus     string `json:"new_status"`
	Reason        string `json:"reason" binding:"required"`
}

type decisionBody struct {
	Decision string `json:"decision" binding:"required"`
	Notes    string `json:"notes"`
}

// @Summary Request Approval
// @Description Open an approval request for a gated transition such as early check-in
// @Tags Approvals
// @Accept json
// @Produce json
// @Param body body approvalRequestBody true "Approval request"
// @Success 201 {object} models.ApprovalRequestResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /approvals [post]
func (h *ApprovalHandler) Create(c *gin.Context) {
	var req approvalRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reservation_id, request_type and reason are required"})
		return
	}

	request, err := h.approvalService.RequestApproval(
		c.Request.Context(),
		middleware.GetPropertyID(c),
		req.ReservationID,
		middleware.GetUserID(c),
		req.RequestType,
		req.NewStatus,
		req.Reason,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"approval_request": request.ToResponse()})
}

// @Summary List Approvals
// @Description Get the property's approval requests, newest first
// @Tags Approvals
// @Produce json
// @Param status query string false "Filter by status (PENDING, APPROVED, REJECTED)"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /approvals [get]
func (h *ApprovalHandler) Index(c *gin.Context) {
	query := listQueryFrom(c)
	status := c.Query("status")

	requests, total, err := h.approvalService.List(c.Request.Context(), middleware.GetPropertyID(c), status, query)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.ApprovalRequestResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, requests[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"approval_requests": responses,
		"pagination":        paginationFor(query, total),
	})
}

// @Summary Get Approval
// @Description Get one approval request
// @Tags Approvals
// @Produce json
// @Param approval_id path int true "Approval Request ID"
// @Success 200 {object} models.ApprovalRequestResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /approvals/{approval_id} [get]
func (h *ApprovalHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("approval_id"), 10, 32)

	request, err := h.approvalService.Get(c.Request.Context(), middleware.GetPropertyID(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"approval_request": request.ToResponse()})
}

// @Summary Decide Approval
// @Description Approve or reject a pending request; approval executes the gated transition
// @Tags Approvals
// @Accept json
// @Produce json
// @Param approval_id path int true "Approval Request ID"
// @Param body body decisionBody true "Decision"
// @Success 200 {object} models.ApprovalRequestResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /approvals/{approval_id}/decision [post]
func (h *ApprovalHandler) Decide(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("approval_id"), 10, 32)

	var req decisionBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision is required"})
		return
	}

	request, err := h.approvalService.Decide(
		c.Request.Context(),
		middleware.GetPropertyID(c),
		uint(id),
		middleware.GetUserID(c),
		req.Decision,
		req.Notes,
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"approval_request": request.ToResponse()})
}
