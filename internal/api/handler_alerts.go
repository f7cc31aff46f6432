package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quakealert-backend/internal/apperr"
)

// GetUnreadAlerts returns the caller's inbox, newest first.
func (h *Handler) GetUnreadAlerts(c *gin.Context) {
	token := c.Query("fcm_token")
	if token == "" {
		writeError(c, apperr.Validation("get unread alerts", "fcm_token is required"))
		return
	}

	alerts, err := h.store.GetUnread(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

type clearAlertsRequest struct {
	FCMToken string `json:"fcm_token" binding:"required"`
}

// ClearUserAlerts empties the caller's inbox.
func (h *Handler) ClearUserAlerts(c *gin.Context) {
	var req clearAlertsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation("clear alerts", err.Error()))
		return
	}

	if err := h.store.ClearUnread(c.Request.Context(), req.FCMToken); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusOK)
}
