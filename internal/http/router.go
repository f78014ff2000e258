package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"hr_notify/internal/config"
	"hr_notify/internal/http/controller"
	"hr_notify/internal/http/middleware"
	"hr_notify/internal/metrics"
)

func NewRouter(cfg *config.Config, handler *controller.Handler, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		otelgin.Middleware(cfg.OTELServiceName),
		middleware.ZapLogger(logger),
		middleware.ZapRecovery(logger),
	)

	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	router.GET("/events", handler.Events)
	router.GET("/ws", handler.Socket)

	notifications := router.Group("/notifications")
	notifications.POST("", handler.CreateNotification)
	notifications.POST("/publish", handler.PublishNotification)
	notifications.GET("", handler.ListNotifications)
	notifications.PATCH("/read-all", handler.MarkAllRead)
	notifications.PATCH("/:id/read", handler.MarkRead)
	notifications.DELETE("/:id", middleware.AdminOnly(cfg.AdminJWTSecret, logger), handler.DeleteNotification)

	push := router.Group("/push")
	push.POST("/subscribe", handler.SubscribePush)
	push.GET("/vapid-public-key", handler.VAPIDPublicKey)

	return router
}
