package main

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"quakealert-backend/config"
	"quakealert-backend/internal/db"
	"quakealert-backend/internal/feed"
	"quakealert-backend/internal/ledger"
	"quakealert-backend/internal/metrics"
	"quakealert-backend/internal/notification"
	"quakealert-backend/internal/poller"
	"quakealert-backend/internal/store"
)

// app wires the components shared by serve and poll.
type app struct {
	db      *gorm.DB
	ledger  ledger.Ledger
	store   store.Store
	metrics *metrics.Metrics
	poller  *poller.Service
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Println("database initialized successfully")

	appStore := store.NewGormStore(gormDB)

	a := &app{db: gormDB, store: appStore}

	processed, err := ledger.New(ctx, &cfg.Ledger, gormDB)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize ledger: %w", err)
	}
	a.ledger = processed

	dispatcher, err := notification.NewDispatcher(ctx, &cfg.Push)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize push dispatcher: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	feedClient := feed.NewClient(&cfg.Feed)
	svc := poller.NewService(&cfg.Poller, feedClient, appStore, processed, dispatcher, m)

	a.metrics = m
	a.poller = svc
	return a, nil
}

func (a *app) close() {
	if a.ledger != nil {
		if err := ledger.Close(a.ledger); err != nil {
			logger.Printf("failed to close ledger: %v", err)
		}
	}

	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Printf("failed to close database: %v", err)
	}
}
