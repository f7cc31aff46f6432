package ledger

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Cached remembers event ids already known to be processed so repeated polls
// over the same feed window skip the backend. Markers are never removed, so
// a positive entry cannot go stale; negatives are never cached.
type Cached struct {
	next  Ledger
	known *cache.Cache
}

// NewCached wraps next with an in-process cache of processed ids.
func NewCached(next Ledger, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		known: cache.New(ttl, 2*ttl),
	}
}

func (c *Cached) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	if _, found := c.known.Get(eventID); found {
		return true, nil
	}
	processed, err := c.next.IsProcessed(ctx, eventID)
	if err != nil {
		return false, err
	}
	if processed {
		c.known.SetDefault(eventID, struct{}{})
	}
	return processed, nil
}

func (c *Cached) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	if _, found := c.known.Get(eventID); found {
		return false, nil
	}
	created, err := c.next.MarkProcessed(ctx, eventID)
	if err != nil {
		return false, err
	}
	c.known.SetDefault(eventID, struct{}{})
	return created, nil
}

// Close closes the wrapped ledger.
func (c *Cached) Close() error {
	return Close(c.next)
}
