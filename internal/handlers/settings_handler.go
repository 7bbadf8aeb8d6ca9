package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stayops/stayops-api/internal/middleware"
	"github.com/stayops/stayops-api/internal/models"
	"github.com/stayops/stayops-api/internal/services"
)

type SettingsHandler struct {
	settingsService *services.SettingsService
}

func NewSettingsHandler(settingsSvc *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsSvc}
}

// @Summary Get Automation Settings
// @Description Get the property's effective automation settings
// @Tags Settings
// @Produce json
// @Success 200 {object} models.AutomationSettings
// @Security BearerAuth
// @Router /settings [get]
func (h *SettingsHandler) Show(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context(), middleware.GetPropertyID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// @Summary Update Automation Settings
// @Description Override the property's automation settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param body body models.AutomationSettings true "Settings"
// @Success 200 {object} models.AutomationSettings
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var settings models.AutomationSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings payload"})
		return
	}

	updated, err := h.settingsService.Update(c.Request.Context(), middleware.GetPropertyID(c), &settings)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": updated})
}
