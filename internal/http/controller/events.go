package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"hr_notify/internal/http/dto"
	"hr_notify/internal/http/resp"
	"hr_notify/internal/sse"
)

// Events streams the notifications of ?userId= as server-sent events until
// the client goes away or the server shuts down.
func (h *Handler) Events(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "userId required"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.log.Error("streaming unsupported", zap.String("user_id", userID))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "streaming unsupported"})
		return
	}

	limit := h.cfg.HistoryLimit
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			limit = n
		}
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	// Register before the backfill so nothing created in between is missed;
	// a notification may then show up twice, never zero times.
	client := sse.NewClient(userID)
	h.hub.Register(client)
	h.metrics.SSEConnections.Inc()
	ping := time.NewTicker(h.pingInterval())
	defer func() {
		ping.Stop()
		h.hub.Unregister(client)
		h.metrics.SSEConnections.Dec()
	}()

	if limit > 0 {
		history, err := h.svc.List(c.Request.Context(), userID, limit)
		if err != nil {
			h.log.Error("list history failed", zap.String("user_id", userID), zap.Int("limit", limit), zap.Error(err))
		}
		for i := len(history) - 1; i >= 0; i-- {
			if err := sse.WriteEvent(c.Writer, sse.NotificationEvent(history[i])); err != nil {
				h.log.Warn("write history failed", zap.String("user_id", userID), zap.Error(err))
				return
			}
		}
	}
	flusher.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-h.hub.Done():
			return
		case <-ping.C:
			if err := sse.WriteEvent(c.Writer, sse.PingEvent()); err != nil {
				h.log.Debug("ping write failed", zap.String("user_id", userID), zap.Error(err))
				return
			}
			flusher.Flush()
		case ev := <-client.Ch:
			if err := sse.WriteEvent(c.Writer, ev); err != nil {
				h.log.Warn("write notification failed", zap.String("user_id", userID), zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) pingInterval() time.Duration {
	if h.cfg.SSEPing > 0 {
		return h.cfg.SSEPing
	}
	return 20 * time.Second
}
