package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aman3008akn/chitchat/internal/service"
)

// AdminHandler exposes operator actions.
type AdminHandler struct {
	logger *zap.Logger
	deploy *service.DeployService
}

func NewAdminHandler(logger *zap.Logger, deploy *service.DeployService) *AdminHandler {
	return &AdminHandler{logger: logger, deploy: deploy}
}

// Rebuild handles POST /admin/rebuild by signalling the external build
// pipeline.
func (h *AdminHandler) Rebuild(c *gin.Context) {
	if err := h.deploy.TriggerBuild(c.Request.Context()); err != nil {
		if errors.Is(err, service.ErrBuildWebhookNotConfigured) {
			c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("build trigger failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "build trigger failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "build triggered"})
}
