package paging

import (
	"context"
	"sync"
	"testing"

	"github.com/czefenglim/bluecollar-chat/internal/models"
	"github.com/stretchr/testify/assert"
)

func page(ids []int64, pageNum, totalPages int) ([]models.Message, models.Pagination) {
	msgs := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		msgs = append(msgs, models.Message{ID: id})
	}
	return msgs, models.Pagination{Page: pageNum, TotalPages: totalPages}
}

func TestLoadInitialComputesHasMore(t *testing.T) {
	c := New(func(ctx context.Context, p int) ([]models.Message, models.Pagination, error) {
		m, pg := page([]int64{10, 11}, p, 3)
		return m, pg, nil
	})

	msgs, err := c.LoadInitial(context.Background())
	assert.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Equal(t, 1, c.Page())
	assert.True(t, c.HasMore())
}

func TestLoadOlderAdvancesUntilExhausted(t *testing.T) {
	c := New(func(ctx context.Context, p int) ([]models.Message, models.Pagination, error) {
		m, pg := page([]int64{int64(p * 100)}, p, 2)
		return m, pg, nil
	})

	_, err := c.LoadInitial(context.Background())
	assert.NoError(t, err)

	msgs, ran, err := c.LoadOlder(context.Background())
	assert.NoError(t, err)
	assert.True(t, ran)
	assert.Len(t, msgs, 1)
	assert.Equal(t, 2, c.Page())
	assert.False(t, c.HasMore())

	// Exhausted: further calls are ignored.
	_, ran, err = c.LoadOlder(context.Background())
	assert.NoError(t, err)
	assert.False(t, ran)
}

func TestLoadOlderRequiresInitialLoad(t *testing.T) {
	c := New(func(ctx context.Context, p int) ([]models.Message, models.Pagination, error) {
		m, pg := page(nil, p, 5)
		return m, pg, nil
	})

	_, ran, err := c.LoadOlder(context.Background())
	assert.NoError(t, err)
	assert.False(t, ran)
}

func TestLoadOlderSingleFlight(t *testing.T) {
	inFetch := make(chan struct{})
	release := make(chan struct{})

	c := New(func(ctx context.Context, p int) ([]models.Message, models.Pagination, error) {
		if p > 1 {
			close(inFetch)
			<-release
		}
		m, pg := page([]int64{1}, p, 10)
		return m, pg, nil
	})

	_, err := c.LoadInitial(context.Background())
	assert.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, ran, err := c.LoadOlder(context.Background())
		assert.True(t, ran)
		assert.NoError(t, err)
	}()

	<-inFetch
	// While the first load is pending, further calls are dropped, not queued.
	for i := 0; i < 3; i++ {
		_, ran, err := c.LoadOlder(context.Background())
		assert.False(t, ran)
		assert.NoError(t, err)
	}

	close(release)
	wg.Wait()
	assert.Equal(t, 2, c.Page())
}

func TestLoadOlderKeepsPageOnError(t *testing.T) {
	fail := false
	c := New(func(ctx context.Context, p int) ([]models.Message, models.Pagination, error) {
		if fail {
			return nil, models.Pagination{}, context.DeadlineExceeded
		}
		m, pg := page([]int64{1}, p, 5)
		return m, pg, nil
	})

	_, err := c.LoadInitial(context.Background())
	assert.NoError(t, err)

	fail = true
	_, ran, err := c.LoadOlder(context.Background())
	assert.True(t, ran)
	assert.Error(t, err)
	assert.Equal(t, 1, c.Page())
	assert.True(t, c.HasMore())
}
