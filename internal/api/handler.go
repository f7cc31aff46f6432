package api

import (
	"log"

	"github.com/gin-gonic/gin"

	"quakealert-backend/internal/apperr"
	"quakealert-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store          store.Store
	vapidPublicKey string
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, vapidPublicKey string) *Handler {
	return &Handler{
		store:          s,
		vapidPublicKey: vapidPublicKey,
	}
}

// writeError renders err with the status its kind maps to.
func writeError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= 500 {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
