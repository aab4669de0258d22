package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aman3008akn/chitchat/internal/domain"
	"github.com/Aman3008akn/chitchat/internal/service"
)

// SettingsHandler exposes the persisted user settings.
type SettingsHandler struct {
	logger   *zap.Logger
	settings *service.SettingsService
}

func NewSettingsHandler(logger *zap.Logger, settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{logger: logger, settings: settings}
}

// GetSettings handles GET /settings.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"settings": h.settings.Get()})
}

// UpdateSettings handles PATCH /settings.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var patch domain.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Warn("invalid settings patch", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	updated := h.settings.Update(c.Request.Context(), patch)
	c.JSON(http.StatusOK, gin.H{"settings": updated})
}
