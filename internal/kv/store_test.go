package kv

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	v, err := s.CompareAndSwap(ctx, "k", 0, []byte(`1`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = s.CompareAndSwap(ctx, "k", 0, []byte(`2`))
	require.ErrorIs(t, err, ErrVersionConflict)

	_, err = s.CompareAndSwap(ctx, "missing", 3, []byte(`2`))
	require.ErrorIs(t, err, ErrVersionConflict)

	require.NoError(t, s.Set(ctx, "k", []byte(`3`)))
	e, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(2), e.Version)
	assert.Equal(t, `3`, string(e.Value))
}

func TestUpdateJSONCreatesAndSkips(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	got, err := UpdateJSON(ctx, s, "list", func(cur *[]string, exists bool) error {
		assert.False(t, exists)
		*cur = append(*cur, "a")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	got, err = UpdateJSON(ctx, s, "list", func(cur *[]string, exists bool) error {
		assert.True(t, exists)
		return ErrNoChange
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)

	e, err := s.Get(ctx, "list")
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.Version)
}

func TestUpdateJSONPropagatesCallbackError(t *testing.T) {
	boom := errors.New("boom")
	_, err := UpdateJSON(context.Background(), NewMemoryStore(), "k", func(cur *int, exists bool) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
}

func TestUpdateJSONConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const workers = 4
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := UpdateJSON(ctx, s, "counter", func(cur *int, exists bool) error {
				*cur++
				return nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var total int
	_, err := GetJSON(ctx, s, "counter", &total)
	require.NoError(t, err)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, succeeded, total)
}

// conflictStore loses the first n compare-and-swap calls.
type conflictStore struct {
	*MemoryStore
	n int
}

func (c *conflictStore) CompareAndSwap(ctx context.Context, key string, version int64, value []byte) (int64, error) {
	if c.n > 0 {
		c.n--
		return 0, ErrVersionConflict
	}
	return c.MemoryStore.CompareAndSwap(ctx, key, version, value)
}

func fastRetries(t *testing.T) {
	t.Helper()
	base, limit := retryBaseDelay, retryMaxDelay
	retryBaseDelay, retryMaxDelay = 10*time.Microsecond, 100*time.Microsecond
	t.Cleanup(func() { retryBaseDelay, retryMaxDelay = base, limit })
}

func TestUpdateJSONRetriesConflicts(t *testing.T) {
	ctx := context.Background()
	fastRetries(t)

	s := &conflictStore{MemoryStore: NewMemoryStore(), n: 2}
	got, err := UpdateJSON(ctx, s, "k", func(cur *int, exists bool) error {
		*cur = 7
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	s = &conflictStore{MemoryStore: NewMemoryStore(), n: maxUpdateAttempts}
	_, err = UpdateJSON(ctx, s, "k", func(cur *int, exists bool) error {
		*cur = 7
		return nil
	})
	require.ErrorIs(t, err, ErrContended)
	require.ErrorIs(t, err, ErrVersionConflict)
}

func TestUpdateJSONStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s := &conflictStore{MemoryStore: NewMemoryStore(), n: 1 << 30}
	start := time.Now()
	_, err := UpdateJSON(ctx, s, "k", func(cur *int, exists bool) error {
		*cur = 7
		return nil
	})
	require.ErrorIs(t, err, ErrContended)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryDelayBounds(t *testing.T) {
	for attempt := 0; attempt < 100; attempt++ {
		d := retryDelay(attempt)
		assert.GreaterOrEqual(t, d, retryBaseDelay/2)
		assert.LessOrEqual(t, d, retryMaxDelay)
	}
}

func TestSupabaseUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(errors.New(`(23505) duplicate key value violates unique constraint "kv_store_pkey"`)))
	assert.False(t, isUniqueViolation(errors.New("(PGRST116) 4090 rows expected")))
	assert.False(t, isUniqueViolation(errors.New("request failed: 409")))
}
