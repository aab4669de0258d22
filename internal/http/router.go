package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter configures the gin router with middlewares and routes.
func NewRouter(
	logger *zap.Logger,
	chatH *ChatHandler,
	configH *ConfigHandler,
	settingsH *SettingsHandler,
	adminH *AdminHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	conversations := r.Group("/conversations")
	conversations.POST("", chatH.CreateConversation)
	conversations.GET("", chatH.ListConversations)
	conversations.GET("/:id", chatH.GetConversation)
	conversations.DELETE("/:id", chatH.DeleteConversation)
	conversations.PUT("/:id/activate", chatH.ActivateConversation)

	messages := r.Group("/messages")
	messages.POST("", chatH.SendMessage)
	messages.POST("/:id/regenerate", chatH.Regenerate)

	r.POST("/stream/stop", chatH.StopStream)

	uiConfig := r.Group("/ui-config")
	uiConfig.GET("", configH.GetConfig)
	uiConfig.GET("/theme.css", configH.ThemeCSS)
	uiConfig.POST("/refresh", configH.ForceRefresh)

	r.GET("/settings", settingsH.GetSettings)
	r.PATCH("/settings", settingsH.UpdateSettings)

	r.POST("/admin/rebuild", adminH.Rebuild)

	return r
}

// zapLoggerMiddleware logs every request with zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware defaults responses to application/json; handlers
// serving other types override it explicitly.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
