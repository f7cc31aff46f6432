package ledger

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"quakealert-backend/internal/apperr"
	"quakealert-backend/internal/model"
)

type gormLedger struct {
	db *gorm.DB
}

// NewGormLedger stores markers in the processed_events table.
func NewGormLedger(db *gorm.DB) Ledger {
	return &gormLedger{db: db}
}

func (l *gormLedger) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var marker model.ProcessedEvent
	err := l.db.WithContext(ctx).Where("event_id = ?", eventID).Take(&marker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Storage("check processed event", err)
	}
	return true, nil
}

// MarkProcessed relies on the primary key: the insert that does not conflict wins.
func (l *gormLedger) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	res := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.ProcessedEvent{EventID: eventID})
	if res.Error != nil {
		return false, apperr.Storage("mark processed event", res.Error)
	}
	return res.RowsAffected == 1, nil
}
