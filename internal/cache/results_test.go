package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iwvelando/proforma/internal/assumptions"
	"github.com/iwvelando/proforma/internal/engine"
)

func countingLoader(calls *int32) Loader {
	return func(context.Context) (*engine.Result, error) {
		atomic.AddInt32(calls, 1)
		return engine.Compute(assumptions.Default())
	}
}

func TestResultsFetchCaches(t *testing.T) {
	ctx := context.Background()
	results := NewResults(NewMemory(8, time.Minute), zap.NewNop())

	var calls int32
	first, cached, err := results.Fetch(ctx, "fp", countingLoader(&calls))
	require.NoError(t, err)
	require.False(t, cached)

	second, cached, err := results.Fetch(ctx, "fp", countingLoader(&calls))
	require.NoError(t, err)
	require.True(t, cached)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))

	require.Equal(t, first.NPVEquity, second.NPVEquity)
	require.Equal(t, first.IRREquity, second.IRREquity)
	require.Equal(t, first.Rows, second.Rows)
}

func TestResultsFetchWithRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	results := NewResults(NewRedisFromClient(client, time.Minute), nil)
	defer func() { _ = results.Close() }()

	var calls int32
	_, _, err := results.Fetch(ctx, "fp", countingLoader(&calls))
	require.NoError(t, err)
	_, cached, err := results.Fetch(ctx, "fp", countingLoader(&calls))
	require.NoError(t, err)
	require.True(t, cached)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResultsFetchFallsBackOnStoreError(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	results := NewResults(NewRedisFromClient(client, time.Minute), nil)
	mr.SetError("LOADING")

	var calls int32
	res, cached, err := results.Fetch(ctx, "fp", countingLoader(&calls))
	require.NoError(t, err)
	require.False(t, cached)
	require.NotNil(t, res)
}

func TestResultsFetchLoaderError(t *testing.T) {
	results := NewResults(nil, nil)
	boom := errors.New("boom")
	_, _, err := results.Fetch(context.Background(), "fp", func(context.Context) (*engine.Result, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestResultsFetchCollapsesConcurrentLoads(t *testing.T) {
	results := NewResults(Nop{}, nil)
	release := make(chan struct{})
	var calls int32
	load := func(context.Context) (*engine.Result, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return engine.Compute(assumptions.Default())
	}

	const callers = 8
	var wg sync.WaitGroup
	var started sync.WaitGroup
	started.Add(callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			if _, _, err := results.Fetch(context.Background(), "fp", load); err != nil {
				t.Error(err)
			}
		}()
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResultsFetchCancelled(t *testing.T) {
	results := NewResults(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	defer close(release)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, _, err := results.Fetch(ctx, "slow", func(context.Context) (*engine.Result, error) {
		<-release
		return nil, errors.New("unreachable")
	})
	require.ErrorIs(t, err, context.Canceled)
}
