package ledger

import (
	"context"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"quakealert-backend/internal/apperr"
)

type redisLedger struct {
	client redis.Cmdable
	prefix string
	// Set when the ledger created the client itself.
	closer io.Closer
}

// NewRedisLedger stores one key per processed event. Keys never expire.
// The caller keeps ownership of client.
func NewRedisLedger(client redis.Cmdable, prefix string) Ledger {
	return &redisLedger{client: client, prefix: prefix}
}

func (l *redisLedger) key(eventID string) string {
	return l.prefix + eventID
}

func (l *redisLedger) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(eventID)).Result()
	if err != nil {
		return false, apperr.Storage("check processed event", err)
	}
	return n > 0, nil
}

func (l *redisLedger) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	created, err := l.client.SetNX(ctx, l.key(eventID), time.Now().UTC().Format(time.RFC3339), 0).Result()
	if err != nil {
		return false, apperr.Storage("mark processed event", err)
	}
	return created, nil
}

func (l *redisLedger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
