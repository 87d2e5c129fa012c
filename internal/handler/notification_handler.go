package handler

import (
	"net/http"

	"github.com/closehq/close-api/internal/model"
	"github.com/closehq/close-api/internal/service"
	"github.com/gin-gonic/gin"
)

// NotificationHandler exposes the push-delivery endpoint used by clients to
// push a notification to a partner device directly
type NotificationHandler struct {
	push service.PushSender
}

func NewNotificationHandler(push service.PushSender) *NotificationHandler {
	return &NotificationHandler{push: push}
}

// SendNotification godoc
// @Summary Send a push notification to a device token
// @Description Delivers through the messaging provider. When the provider is unavailable or rejects the token, responds 206 and asks the caller to fall back to a client-side notification.
// @Tags Notifications
// @Accept json
// @Produce json
// @Param body body model.SendNotificationRequest true "Token, title, body and data bag"
// @Success 200 {object} model.SendNotificationResponse
// @Success 206 {object} model.SendNotificationFallback
// @Failure 400 {object} model.ErrorResponse
// @Router /api/send-notification [post]
func (h *NotificationHandler) SendNotification(c *gin.Context) {
	var req model.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to send notification",
			"details": err.Error(),
		})
		return
	}

	if req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token is required"})
		return
	}

	title := req.Title
	if title == "" {
		title = "Your person just pinged you 💖"
	}
	body := req.Body
	if body == "" {
		body = "Someone is thinking of you!"
	}

	messageID, err := h.push.Send(c.Request.Context(), req.Token, title, body, req.Data)
	if err != nil {
		// push is best-effort: tell the caller to show a local notification instead
		c.JSON(http.StatusPartialContent, model.SendNotificationFallback{
			Success:                         false,
			Error:                           err.Error(),
			ShouldTriggerClientNotification: true,
		})
		return
	}

	c.JSON(http.StatusOK, model.SendNotificationResponse{
		Success:   true,
		MessageID: messageID,
	})
}
