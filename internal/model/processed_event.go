package model

import "time"

// ProcessedEvent marks an event as already matched against the full user set.
// Rows are append-only.
type ProcessedEvent struct {
	EventID   string    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}
