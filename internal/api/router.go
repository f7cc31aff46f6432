package api

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"quakealert-backend/config"
	"quakealert-backend/internal/apperr"
	"quakealert-backend/internal/metrics"
	"quakealert-backend/internal/store"
)

func init() {
	binding.EnableDecoderDisallowUnknownFields = true
}

// NewRouter creates and configures a new Gin router.
// The metrics endpoint is mounted only when m is non-nil and enabled in cfg.
func NewRouter(s store.Store, cfg *config.Config, m *metrics.Metrics) *gin.Engine {
	r := gin.Default()
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		writeError(c, &apperr.Error{Kind: apperr.ErrMethodNotAllowed, Op: c.Request.Method + " " + c.Request.URL.Path})
	})

	handler := NewHandler(s, cfg.Push.WebPush.PublicKey)

	r.GET("/healthz", handler.Healthz)
	if m != nil && cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	api := r.Group("/api")
	{
		api.POST("/preferences", handler.UpdatePreferences)
		api.GET("/alerts", handler.GetUnreadAlerts)
		api.POST("/alerts/clear", handler.ClearUserAlerts)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
