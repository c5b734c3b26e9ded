package handler

import (
	"log/slog"
	"net/http"

	"github.com/cuongbtq/botmr-be/internal/api/dto"
	"github.com/cuongbtq/botmr-be/internal/service"
	"github.com/gin-gonic/gin"
)

// SettingsHandler handles the user settings document
type SettingsHandler struct {
	logger   *slog.Logger
	settings *service.SettingsService
}

func NewSettingsHandler(deps *Dependencies) *SettingsHandler {
	return &SettingsHandler{logger: deps.Logger, settings: deps.Settings}
}

// GetSettings handles GET /settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	us, err := h.settings.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, us)
}

// ReplaceSettings handles POST /settings
func (h *SettingsHandler) ReplaceSettings(c *gin.Context) {
	var req dto.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "request body", err)
		return
	}

	us, err := h.settings.ReplaceSettings(c.Request.Context(), req.Settings())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.BaseResponse{
		Success: true,
		Message: "Settings updated successfully",
		Data:    us,
	})
}

// PatchSettings handles PATCH /settings
func (h *SettingsHandler) PatchSettings(c *gin.Context) {
	var req dto.SettingsPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, "request body", err)
		return
	}

	us, err := h.settings.PatchSettings(c.Request.Context(), req.Patch())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, us)
}
