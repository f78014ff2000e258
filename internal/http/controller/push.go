package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"hr_notify/internal/http/dto"
	"hr_notify/internal/http/resp"
	"hr_notify/internal/model"
)

func (h *Handler) SubscribePush(c *gin.Context) {
	var req dto.PushSubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return
	}
	saved, err := h.svc.SubscribePush(c.Request.Context(), model.PushSubscription{
		UserID:   req.UserID,
		Endpoint: req.Subscription.Endpoint,
		Keys: model.PushKeys{
			P256dh: req.Subscription.Keys.P256dh,
			Auth:   req.Subscription.Keys.Auth,
		},
	})
	if err != nil {
		h.writeError(c, err, "failed to save subscription")
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) VAPIDPublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, dto.VAPIDPublicKeyResponse{PublicKey: h.keys.PublicKey()})
}

// Socket hands the request to the realtime bus; gin only routes it.
func (h *Handler) Socket(c *gin.Context) {
	h.bus.ServeWS(c.Writer, c.Request)
}
