// Package paging tracks the oldest-loaded history page for a conversation
// and guards against overlapping page loads.
package paging

import (
	"context"
	"sync"

	"github.com/czefenglim/bluecollar-chat/internal/models"
)

// Fetch loads one page of a conversation's history, newest page first
// (page 1 is the most recent messages).
type Fetch func(ctx context.Context, page int) ([]models.Message, models.Pagination, error)

// Cursor tracks the current page and whether older pages remain. Loads
// are single-flight: a request while one is pending is ignored, not
// queued.
type Cursor struct {
	fetch Fetch

	mu      sync.Mutex
	page    int
	hasMore bool
	loading bool
	started bool
}

func New(fetch Fetch) *Cursor {
	return &Cursor{fetch: fetch, page: 1, hasMore: true}
}

func (c *Cursor) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

func (c *Cursor) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// LoadInitial fetches page 1. It resets nothing; it is only meant to be
// called once when the conversation opens.
func (c *Cursor) LoadInitial(ctx context.Context) ([]models.Message, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil, nil
	}
	c.loading = true
	c.mu.Unlock()

	msgs, pg, err := c.fetch(ctx, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		return nil, err
	}
	c.started = true
	c.page = 1
	c.hasMore = pg.Page < pg.TotalPages
	return msgs, nil
}

// LoadOlder fetches the next older page. The bool result reports whether
// a load actually ran: false means the call was ignored because no older
// pages remain, the initial load has not happened, or a load is already
// in flight.
func (c *Cursor) LoadOlder(ctx context.Context) ([]models.Message, bool, error) {
	c.mu.Lock()
	if !c.started || !c.hasMore || c.loading {
		c.mu.Unlock()
		return nil, false, nil
	}
	c.loading = true
	next := c.page + 1
	c.mu.Unlock()

	msgs, pg, err := c.fetch(ctx, next)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		return nil, true, err
	}
	c.page = next
	c.hasMore = pg.Page < pg.TotalPages
	return msgs, true, nil
}
