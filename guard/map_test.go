package guard

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/toolguard/parallel"
)

func TestMap_MemoizesDuplicates(t *testing.T) {
	g := newGuard[string](t, testConfig())
	var calls atomic.Int32

	docs := []string{"a", "b", "a", "c", "b"}
	out, err := Map(context.Background(), g, docs,
		func(doc string) string { return "doc:" + doc },
		func(_ context.Context, doc string) (string, error) {
			calls.Add(1)
			return strings.ToUpper(doc), nil
		},
		parallel.Config{Concurrency: 1},
	)

	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "A", "C", "B"}, out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMap_NilKeyRunsEveryItem(t *testing.T) {
	g := newGuard[int](t, testConfig())
	var calls atomic.Int32

	out, err := Map(context.Background(), g, []int{1, 1, 1}, nil,
		func(_ context.Context, n int) (int, error) {
			calls.Add(1)
			return n * 10, nil
		},
		parallel.Config{},
	)

	require.NoError(t, err)
	assert.Equal(t, []int{10, 10, 10}, out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMap_CollectsGuardErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Retry.Enabled = false
	cfg.Breaker.Enabled = false
	g := newGuard[int](t, cfg)

	bad := errors.New("bad item")
	out, err := Map(context.Background(), g, []int{1, 2, 3}, nil,
		func(_ context.Context, n int) (int, error) {
			if n == 2 {
				return 0, bad
			}
			return n, nil
		},
		parallel.Config{Concurrency: 2},
	)

	var batch *parallel.BatchError
	require.ErrorAs(t, err, &batch)
	assert.Equal(t, []int{1}, batch.Failed())
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, []int{1, 0, 3}, out)
}
