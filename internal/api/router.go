package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"notification-orchestrator/internal/config"
	"notification-orchestrator/internal/logging"
	"notification-orchestrator/internal/services"
)

func NewRouter(svc *services.Service, logger *logging.Logger, cfg config.Config, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	h := NewHandler(svc, logger)
	api := r.Group(cfg.API.BasePath)
	{
		// Feeds
		api.GET("/feeds", h.GetFeeds)
		api.GET("/ws", h.Subscribe)

		// Notifications
		api.GET("/notifications", h.ListNotifications)
		api.POST("/notifications", h.CreateNotification)
		api.POST("/notifications/read-all", h.MarkAllRead)
		api.GET("/notifications/:id", h.GetNotification)
		api.POST("/notifications/:id/read", h.MarkRead)
		api.POST("/notifications/:id/dismiss", h.Dismiss)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "subscribers": svc.WebSockets().Count()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return r
}
