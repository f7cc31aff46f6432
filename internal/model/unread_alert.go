package model

import "time"

// UnreadAlert is a copy of an event sitting in a profile's inbox.
// (Token, EventID) is unique, so an event lands in an inbox at most once.
type UnreadAlert struct {
	Token     string    `gorm:"primaryKey"`
	EventID   string    `gorm:"primaryKey"`
	EventTime int64     `gorm:"not null;index"`
	Event     Event     `gorm:"serializer:json;not null"`
	CreatedAt time.Time `gorm:"not null"`
}
