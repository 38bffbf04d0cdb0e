package enrich

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFanOutCollectsAllValues(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	res := FanOut(context.Background(), "test", 2, ids,
		func(ctx context.Context, id string) (string, error) {
			return "v-" + id, nil
		})

	require.Len(t, res.Values, 4)
	require.Empty(t, res.Errors)
	v, ok := res.Get("c")
	require.True(t, ok)
	require.Equal(t, "v-c", v)
}

func TestFanOutIsolatesFailures(t *testing.T) {
	ids := []string{"a", "bad", "c"}
	res := FanOut(context.Background(), "test", 2, ids,
		func(ctx context.Context, id string) (int, error) {
			if id == "bad" {
				return 0, fmt.Errorf("lookup exploded")
			}
			return len(id), nil
		})

	require.Len(t, res.Values, 2)
	require.Len(t, res.Errors, 1)
	require.ErrorContains(t, res.Errors["bad"], "lookup exploded")

	_, ok := res.Get("bad")
	require.False(t, ok)
}

func TestFanOutRespectsWorkerBound(t *testing.T) {
	const workers = 3
	var inFlight, peak atomic.Int64
	var mu sync.Mutex

	ids := make([]string, 20)
	for i := range ids {
		ids[i] = fmt.Sprintf("e%d", i)
	}

	res := FanOut(context.Background(), "test", workers, ids,
		func(ctx context.Context, id string) (struct{}, error) {
			n := inFlight.Add(1)
			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
			return struct{}{}, nil
		})

	require.Len(t, res.Values, 20)
	require.LessOrEqual(t, peak.Load(), int64(workers))
}

func TestFanOutStopsDispatchOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = fmt.Sprintf("e%d", i)
	}

	var started atomic.Int64
	res := FanOut(ctx, "test", 1, ids,
		func(ctx context.Context, id string) (struct{}, error) {
			if started.Add(1) == 3 {
				cancel()
			}
			return struct{}{}, nil
		})

	// Values completed before cancellation stay valid; the rest of the
	// batch is abandoned, not failed.
	require.NotEmpty(t, res.Values)
	require.Less(t, len(res.Values)+len(res.Errors), len(ids))
}

func TestFanOutDefaultsWorkerCount(t *testing.T) {
	res := FanOut(context.Background(), "test", 0, []string{"a"},
		func(ctx context.Context, id string) (string, error) {
			return id, nil
		})
	require.Len(t, res.Values, 1)
}
