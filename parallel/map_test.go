package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func double(ctx context.Context, x, i int) (int, error) {
	return x * 2, nil
}

func TestMap_PreservesOrder(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}

	// Later items finish first.
	got, err := Map(context.Background(), items, func(ctx context.Context, x, i int) (int, error) {
		time.Sleep(time.Duration(len(items)-i) * time.Millisecond)
		return x * 2, nil
	}, Config{Concurrency: 3})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18}, got)
}

func TestMap_Empty(t *testing.T) {
	got, err := Map(context.Background(), []int{}, double, Config{})

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMap_BoundsConcurrency(t *testing.T) {
	tests := []struct {
		name        string
		concurrency int
		items       int
		wantMax     int32
	}{
		{"explicit", 3, 30, 3},
		{"default", 0, 30, DefaultConcurrency},
		{"fewer items than workers", 10, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var active, peak atomic.Int32
			_, err := Map(context.Background(), make([]struct{}, tt.items), func(ctx context.Context, _ struct{}, i int) (int, error) {
				n := active.Add(1)
				defer active.Add(-1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				return i, nil
			}, Config{Concurrency: tt.concurrency})

			require.NoError(t, err)
			assert.LessOrEqual(t, peak.Load(), tt.wantMax)
			assert.Positive(t, peak.Load())
		})
	}
}

func TestMap_CollectsErrors(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5}
	var calls atomic.Int32

	got, err := Map(context.Background(), items, func(ctx context.Context, x, i int) (string, error) {
		calls.Add(1)
		if x%2 == 1 {
			return "ignored", fmt.Errorf("odd %d", x)
		}
		return fmt.Sprintf("even %d", x), nil
	}, Config{Concurrency: 2})

	require.Error(t, err)
	assert.EqualValues(t, len(items), calls.Load(), "every item runs in collect mode")
	assert.Equal(t, []string{"even 0", "", "even 2", "", "even 4", ""}, got)

	var batch *BatchError
	require.ErrorAs(t, err, &batch)
	assert.Equal(t, []int{1, 3, 5}, batch.Failed())
	assert.Len(t, batch.Errors, len(items))
	assert.Nil(t, batch.Errors[0])
	assert.EqualError(t, batch.Errors[3], "odd 3")
	assert.NotErrorIs(t, err, ErrStopped)
	assert.Contains(t, err.Error(), "3 of 6 items failed")
}

func TestMap_BatchErrorMatchesItemErrors(t *testing.T) {
	sentinel := errors.New("quota exceeded")

	_, err := Map(context.Background(), []int{1, 2, 3}, func(ctx context.Context, x, i int) (int, error) {
		if i == 2 {
			return 0, fmt.Errorf("item %d: %w", i, sentinel)
		}
		return x, nil
	}, Config{})

	assert.ErrorIs(t, err, sentinel)
}

func TestMap_StopOnError(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32

	got, err := Map(context.Background(), []int{0, 1, 2, 3, 4, 5}, func(ctx context.Context, x, i int) (int, error) {
		calls.Add(1)
		if i == 2 {
			return 0, boom
		}
		return x + 100, nil
	}, Config{Concurrency: 1, StopOnError: true})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStopped)
	assert.ErrorIs(t, err, boom)

	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, 2, itemErr.Index)

	assert.EqualValues(t, 3, calls.Load(), "no items claimed after the failure")
	assert.Equal(t, []int{100, 101, 0, 0, 0, 0}, got)
}

func TestMap_StopOnErrorWaitsForInFlight(t *testing.T) {
	var finished atomic.Bool
	started := make(chan struct{})

	_, err := Map(context.Background(), []int{0, 1}, func(ctx context.Context, x, i int) (int, error) {
		if i == 0 {
			<-started
			return 0, errors.New("first failed")
		}
		close(started)
		<-ctx.Done()
		time.Sleep(5 * time.Millisecond)
		finished.Store(true)
		return 0, ctx.Err()
	}, Config{Concurrency: 2, StopOnError: true})

	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, 0, itemErr.Index)
	assert.True(t, finished.Load(), "Map returned before in-flight item settled")
}

func TestMap_Progress(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []int
	)

	_, err := Map(context.Background(), make([]int, 8), func(ctx context.Context, x, i int) (int, error) {
		if i == 3 {
			return 0, errors.New("counted anyway")
		}
		return x, nil
	}, Config{
		Concurrency: 4,
		OnProgress: func(completed, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 8, total)
			seen = append(seen, completed)
		},
	})
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, seen)
}

func TestMap_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	_, err := Map(ctx, []int{1, 2, 3}, func(ctx context.Context, x, i int) (int, error) {
		calls.Add(1)
		return x, nil
	}, Config{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestMap_ParentCancelledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	_, err := Map(ctx, make([]int, 10), func(ctx context.Context, x, i int) (int, error) {
		if calls.Add(1) == 2 {
			cancel()
		}
		return x, nil
	}, Config{Concurrency: 1})

	assert.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 2, calls.Load())
}
