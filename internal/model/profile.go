package model

import "time"

// WatchZone is a circular region around a point plus a minimum magnitude.
type WatchZone struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusKm     float64 `json:"radius_km"`
	MinMagnitude float64 `json:"min_magnitude"`
}

// SubscriptionProfile holds the watch zones registered for one device token.
// The token doubles as the push delivery address.
type SubscriptionProfile struct {
	Token     string      `gorm:"primaryKey"`
	Zones     []WatchZone `gorm:"serializer:json;not null"`
	CreatedAt time.Time   `gorm:"not null"`
	UpdatedAt time.Time   `gorm:"not null"`

	// Associations
	UnreadAlerts []UnreadAlert `gorm:"foreignKey:Token;references:Token;constraint:OnDelete:CASCADE"`
}

// ShortToken returns a log-safe prefix of a device token.
func ShortToken(token string) string {
	if len(token) <= 10 {
		return token
	}
	return token[:10] + "..."
}
