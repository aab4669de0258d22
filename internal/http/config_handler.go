package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aman3008akn/chitchat/internal/service"
)

// ConfigHandler serves the synchronized UI configuration and its projection.
type ConfigHandler struct {
	logger    *zap.Logger
	configs   *service.ConfigService
	projector *service.ThemeProjector
}

func NewConfigHandler(logger *zap.Logger, configs *service.ConfigService, projector *service.ThemeProjector) *ConfigHandler {
	return &ConfigHandler{logger: logger, configs: configs, projector: projector}
}

// GetConfig handles GET /ui-config.
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	cfg := h.configs.CurrentConfig()
	if cfg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ui config not available yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"config":         cfg,
		"featureClasses": h.projector.FeatureClasses(),
		"stale":          h.configs.IsStale(),
	})
}

// ThemeCSS handles GET /ui-config/theme.css.
func (h *ConfigHandler) ThemeCSS(c *gin.Context) {
	c.Header("Content-Type", "text/css; charset=utf-8")
	c.String(http.StatusOK, h.projector.Stylesheet())
}

// ForceRefresh handles POST /ui-config/refresh.
func (h *ConfigHandler) ForceRefresh(c *gin.Context) {
	cfg, err := h.configs.ForceRefresh(c.Request.Context())
	if err != nil {
		h.logger.Warn("force refresh failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not refresh ui config"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}
