package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quakealert-backend/internal/apperr"
	"quakealert-backend/internal/model"
)

// zoneRequest uses pointers so that an omitted field is distinguishable from zero.
type zoneRequest struct {
	Latitude     *float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude    *float64 `json:"longitude" binding:"required,min=-180,max=180"`
	RadiusKm     *float64 `json:"radius_km" binding:"required,min=0"`
	MinMagnitude *float64 `json:"min_magnitude" binding:"required"`
}

type preferencesRequest struct {
	FCMToken string        `json:"fcm_token" binding:"required"`
	Cities   []zoneRequest `json:"cities" binding:"required,dive"`
}

// UpdatePreferences replaces the caller's watch zones and resets their inbox.
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.Validation("update preferences", err.Error()))
		return
	}

	zones := make([]model.WatchZone, 0, len(req.Cities))
	for _, z := range req.Cities {
		zones = append(zones, model.WatchZone{
			Latitude:     *z.Latitude,
			Longitude:    *z.Longitude,
			RadiusKm:     *z.RadiusKm,
			MinMagnitude: *z.MinMagnitude,
		})
	}

	if err := h.store.Upsert(c.Request.Context(), req.FCMToken, zones); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusOK)
}
