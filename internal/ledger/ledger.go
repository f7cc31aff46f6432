// Package ledger records which events have already been processed.
//
// The ledger is global rather than per user: once an event is marked, no
// user is notified about it again. MarkProcessed is the atomic test-and-set
// that keeps overlapping poll cycles from notifying twice.
package ledger

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"quakealert-backend/config"
)

// Ledger is the set of processed event ids.
type Ledger interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	// MarkProcessed records eventID and reports whether this call created
	// the marker. Exactly one of any number of concurrent callers gets true.
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
}

// New builds the ledger selected by cfg.
func New(ctx context.Context, cfg *config.LedgerConfig, db *gorm.DB) (Ledger, error) {
	var l Ledger
	switch strings.ToLower(cfg.Backend) {
	case "database", "":
		l = NewGormLedger(db)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		l = &redisLedger{client: client, prefix: cfg.KeyPrefix, closer: client}
	default:
		return nil, fmt.Errorf("unsupported ledger backend %q", cfg.Backend)
	}

	if cfg.CacheTTLMinutes > 0 {
		l = NewCached(l, time.Duration(cfg.CacheTTLMinutes)*time.Minute)
	}
	log.Printf("ledger backend %q ready (cache ttl %d min)", cfg.Backend, cfg.CacheTTLMinutes)
	return l, nil
}

// Close releases connections owned by l, if any.
func Close(l Ledger) error {
	if c, ok := l.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
