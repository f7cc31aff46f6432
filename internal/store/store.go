package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quakealert-backend/internal/apperr"
	"quakealert-backend/internal/model"
)

// Store defines the subscription profile and inbox operations.
type Store interface {
	Upsert(ctx context.Context, token string, zones []model.WatchZone) error
	ListAll(ctx context.Context) ([]model.SubscriptionProfile, error)
	AddUnread(ctx context.Context, token string, event model.Event) error
	GetUnread(ctx context.Context, token string) ([]model.Event, error)
	ClearUnread(ctx context.Context, token string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Upsert replaces the profile for token and empties its inbox.
// An empty zone list is valid and matches nothing; a nil one is rejected.
func (s *gormStore) Upsert(ctx context.Context, token string, zones []model.WatchZone) error {
	if token == "" {
		return apperr.Validation("upsert profile", "fcm_token is required")
	}
	if zones == nil {
		return apperr.Validation("upsert profile", "cities is required")
	}

	profile := model.SubscriptionProfile{
		Token: token,
		Zones: append(make([]model.WatchZone, 0, len(zones)), zones...),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"zones", "updated_at"}),
		}).Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}

		if err := tx.Where("token = ?", token).Delete(&model.UnreadAlert{}).Error; err != nil {
			return fmt.Errorf("failed to reset unread alerts: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperr.Storage("upsert profile", err)
	}
	return nil
}

// ListAll returns every profile ordered by token.
func (s *gormStore) ListAll(ctx context.Context) ([]model.SubscriptionProfile, error) {
	var profiles []model.SubscriptionProfile
	if err := s.db.WithContext(ctx).Order("token").Find(&profiles).Error; err != nil {
		return nil, apperr.Storage("list profiles", err)
	}
	return profiles, nil
}

// AddUnread inserts event into token's inbox unless it is already there.
// Nothing is written when the token has no profile.
func (s *gormStore) AddUnread(ctx context.Context, token string, event model.Event) error {
	alert := model.UnreadAlert{
		Token:     token,
		EventID:   event.ID,
		EventTime: event.Time,
		Event:     event,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profiles int64
		if err := tx.Model(&model.SubscriptionProfile{}).Where("token = ?", token).Count(&profiles).Error; err != nil {
			return fmt.Errorf("failed to look up profile: %w", err)
		}
		if profiles == 0 {
			return nil
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&alert).Error; err != nil {
			return fmt.Errorf("failed to insert unread alert %s: %w", event.ID, err)
		}
		return nil
	})
	if err != nil {
		return apperr.Storage("add unread alert", err)
	}
	return nil
}

// GetUnread returns token's inbox, newest event first.
func (s *gormStore) GetUnread(ctx context.Context, token string) ([]model.Event, error) {
	var alerts []model.UnreadAlert
	if err := s.db.WithContext(ctx).
		Where("token = ?", token).
		Order("event_time DESC").
		Order("event_id").
		Find(&alerts).Error; err != nil {
		return nil, apperr.Storage("get unread alerts", err)
	}

	events := make([]model.Event, 0, len(alerts))
	for _, a := range alerts {
		events = append(events, a.Event)
	}
	return events, nil
}

// ClearUnread empties token's inbox.
func (s *gormStore) ClearUnread(ctx context.Context, token string) error {
	if err := s.db.WithContext(ctx).Where("token = ?", token).Delete(&model.UnreadAlert{}).Error; err != nil {
		return apperr.Storage("clear unread alerts", err)
	}
	return nil
}
