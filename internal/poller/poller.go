// Package poller runs the match-and-notify sweep over all subscription
// profiles and the current feed events.
package poller

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"quakealert-backend/config"
	"quakealert-backend/internal/geo"
	"quakealert-backend/internal/ledger"
	"quakealert-backend/internal/metrics"
	"quakealert-backend/internal/model"
	"quakealert-backend/internal/notification"
	"quakealert-backend/internal/store"
)

// EventSource supplies the current batch of events.
type EventSource interface {
	Fetch(ctx context.Context) ([]model.Event, error)
}

// Dispatcher delivers an alert for one event to one token.
type Dispatcher interface {
	Send(ctx context.Context, token string, event model.Event) (notification.Delivery, error)
}

// CycleReport summarizes one poll cycle.
type CycleReport struct {
	Events         int
	Profiles       int
	Matches        int
	Claimed        int
	Dispatched     int
	DispatchFailed int
	StorageFailed  int
}

// Service orchestrates poll cycles.
type Service struct {
	cfg        *config.PollerConfig
	source     EventSource
	store      store.Store
	ledger     ledger.Ledger
	dispatcher Dispatcher
	metrics    *metrics.Metrics

	running sync.Mutex
}

// NewService creates a poller. m may be nil.
func NewService(cfg *config.PollerConfig, source EventSource, st store.Store, l ledger.Ledger, d Dispatcher, m *metrics.Metrics) *Service {
	return &Service{
		cfg:        cfg,
		source:     source,
		store:      st,
		ledger:     l,
		dispatcher: d,
		metrics:    m,
	}
}

// Run polls immediately and then every configured interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Println("Poller is disabled. Not starting.")
		return
	}
	log.Printf("Starting poller (interval %s)...", s.cfg.Interval)

	s.tick(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Poller shutting down.")
			return
		case <-timer.C:
			s.tick(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// tick runs a cycle unless the previous one is still in progress.
func (s *Service) tick(ctx context.Context) bool {
	if !s.running.TryLock() {
		log.Println("Previous poll cycle still running; skipping this tick.")
		s.metrics.CycleFinished(metrics.ResultSkipped, 0)
		return false
	}
	defer s.running.Unlock()

	if _, err := s.PollOnce(ctx); err != nil {
		log.Printf("Poll cycle failed: %v", err)
	}
	return true
}

// PollOnce fetches events, matches them against every profile and notifies
// each matched user. A user gets at most one alert per cycle, and an event
// triggers at most one alert across all users and cycles.
//
// Only feed and profile listing failures abort the cycle. A ledger or inbox
// failure ends the scan for that user and the cycle moves on to the next one.
// Dispatch failures are logged and do not undo the inbox or ledger writes.
func (s *Service) PollOnce(ctx context.Context) (report CycleReport, err error) {
	start := time.Now()
	defer func() {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultFailure
		}
		s.metrics.CycleFinished(result, time.Since(start))
	}()

	events, err := s.source.Fetch(ctx)
	if err != nil {
		return report, err
	}
	report.Events = len(events)
	s.metrics.EventsFetched(len(events))

	profiles, err := s.store.ListAll(ctx)
	if err != nil {
		return report, err
	}
	report.Profiles = len(profiles)
	log.Printf("Checking %d events against %d profiles.", len(events), len(profiles))

	for _, profile := range profiles {
		for _, event := range events {
			if !geo.ProfileMatches(event, profile.Zones) {
				continue
			}
			report.Matches++
			s.metrics.Matched()

			if err := s.notify(ctx, profile.Token, event, &report); err != nil {
				report.StorageFailed++
				log.Printf("Skipping %s for this cycle: %v", model.ShortToken(profile.Token), err)
			}
			// One alert per user per cycle, whether or not this match was new
			// or could be stored.
			break
		}
	}

	log.Printf("Poll cycle complete: %d matches, %d claimed, %d sent, %d failed, %d storage errors (took %s).",
		report.Matches, report.Claimed, report.Dispatched, report.DispatchFailed, report.StorageFailed, time.Since(start).Round(time.Millisecond))
	return report, nil
}

func (s *Service) notify(ctx context.Context, token string, event model.Event, report *CycleReport) error {
	claimed, err := s.ledger.MarkProcessed(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to mark event %s as processed: %w", event.ID, err)
	}
	if !claimed {
		return nil
	}
	report.Claimed++

	if err := s.store.AddUnread(ctx, token, event); err != nil {
		return fmt.Errorf("failed to add %s to the inbox: %w", event.ID, err)
	}

	delivery, err := s.dispatcher.Send(ctx, token, event)
	s.metrics.Notification(err)
	if err != nil {
		report.DispatchFailed++
		log.Printf("Failed to notify %s about %s: %v", model.ShortToken(token), event.ID, err)
		return nil
	}
	report.Dispatched++
	log.Printf("Notified %s about %s via %s.", model.ShortToken(token), event.ID, delivery)
	return nil
}
