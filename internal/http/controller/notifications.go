package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"hr_notify/internal/config"
	"hr_notify/internal/domain"
	"hr_notify/internal/http/dto"
	"hr_notify/internal/http/resp"
	"hr_notify/internal/metrics"
	"hr_notify/internal/model"
	"hr_notify/internal/queue"
	"hr_notify/internal/realtime"
	"hr_notify/internal/service/notify"
	"hr_notify/internal/sse"
)

// VAPIDKeySource exposes the application server key browsers subscribe
// against.
type VAPIDKeySource interface {
	PublicKey() string
}

type Handler struct {
	cfg     *config.Config
	svc     *notify.Service
	hub     *sse.Hub
	bus     *realtime.Bus
	keys    VAPIDKeySource
	pub     queue.Publisher
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewHandler(
	cfg *config.Config,
	svc *notify.Service,
	hub *sse.Hub,
	bus *realtime.Bus,
	keys VAPIDKeySource,
	publisher queue.Publisher,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		cfg:     cfg,
		svc:     svc,
		hub:     hub,
		bus:     bus,
		keys:    keys,
		pub:     publisher,
		log:     logger,
		metrics: m,
	}
}

func (h *Handler) CreateNotification(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return
	}
	created, err := h.svc.Notify(c.Request.Context(), notifyInput(req))
	if err != nil {
		h.writeError(c, err, "failed to create notification")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// PublishNotification queues the request for the consumer to notify
// asynchronously.
func (h *Handler) PublishNotification(c *gin.Context) {
	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return
	}
	if err := notify.Validate(notifyInput(req)); err != nil {
		h.writeError(c, err, "")
		return
	}

	payload, err := json.Marshal(queue.NotifyMessage{
		RecipientID: req.RecipientID,
		SenderID:    req.SenderID,
		Type:        req.Type,
		Message:     req.Message,
		Link:        req.Link,
	})
	if err != nil {
		h.log.Error("publish payload marshal failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "failed to publish notification"})
		return
	}

	routingKey := queue.RoutingKey(h.cfg.RabbitPublishPrefix, domain.NormalizeType(req.Type))
	if err := h.pub.Publish(c.Request.Context(), payload, routingKey); err != nil {
		h.log.Error("publish notification failed",
			zap.String("recipient_id", req.RecipientID),
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "failed to publish notification"})
		return
	}

	c.JSON(http.StatusAccepted, dto.StatusResponse{Code: resp.CodeQueued, Message: "queued"})
}

func (h *Handler) ListNotifications(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	list, err := h.svc.List(c.Request.Context(), c.Query("userId"), limit)
	if err != nil {
		h.writeError(c, err, "failed to list notifications")
		return
	}
	if list == nil {
		list = []model.Notification{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, ok := h.notificationID(c)
	if !ok {
		return
	}
	updated, err := h.svc.MarkRead(c.Request.Context(), id, c.Query("userId"))
	if err != nil {
		h.writeError(c, err, "failed to mark notification read")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	n, err := h.svc.MarkAllRead(c.Request.Context(), c.Query("userId"))
	if err != nil {
		h.writeError(c, err, "failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, dto.MarkAllReadResponse{Updated: n})
}

func (h *Handler) DeleteNotification(c *gin.Context) {
	id, ok := h.notificationID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err, "failed to delete notification")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) notificationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid notification id"})
		return 0, false
	}
	return id, true
}

// writeError maps service errors onto status codes. Anything that is not a
// validation or lookup failure is reported as internal with fallback as the
// message; the cause was already logged by the service.
func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Code: resp.CodeNotFound, Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: fallback})
	}
}

func notifyInput(req dto.CreateNotificationRequest) notify.NotifyInput {
	return notify.NotifyInput{
		RecipientID: req.RecipientID,
		SenderID:    req.SenderID,
		Type:        req.Type,
		Message:     req.Message,
		Link:        req.Link,
	}
}
