package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedFetch 每次调用先通知 started，然后阻塞到 release 收到返回值
type gatedFetch struct {
	started chan struct{}
	release chan result
}

type result struct {
	value int
	err   error
}

func newGatedFetch() *gatedFetch {
	return &gatedFetch{
		started: make(chan struct{}, 16),
		release: make(chan result),
	}
}

func (g *gatedFetch) fetch(ctx context.Context) (int, error) {
	g.started <- struct{}{}
	select {
	case r := <-g.release:
		return r.value, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

type applied struct {
	seq   uint64
	value int
	err   error
}

func waitStarted(t *testing.T, g *gatedFetch) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(time.Second):
		t.Fatal("fetch did not start")
	}
}

// 两个 fetch 分别由不同 goroutine 阻塞；按给定顺序放行并收集 apply 结果
func TestSubscription_NewerResultWins(t *testing.T) {
	for _, tc := range []struct {
		name  string
		order []int // 1 = first dispatch, 2 = refresh dispatch
	}{
		{"in order", []int{1, 2}},
		{"out of order", []int{2, 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			releases := map[int]chan result{1: make(chan result), 2: make(chan result)}
			var calls atomic.Int32
			started := make(chan struct{}, 2)
			fetch := func(ctx context.Context) (int, error) {
				n := int(calls.Add(1))
				started <- struct{}{}
				r := <-releases[n]
				return r.value, r.err
			}

			got := make(chan applied, 4)
			sub := Start(context.Background(), fetch, time.Hour, func(seq uint64, v int, err error) {
				got <- applied{seq, v, err}
			})
			defer sub.Stop()

			<-started
			sub.Refresh()
			<-started

			var highest uint64
			for _, n := range tc.order {
				releases[n] <- result{value: n * 100}
				highest = max(highest, uint64(n))
				require.Eventually(t, func() bool { return sub.LastApplied() == highest }, time.Second, time.Millisecond)
			}
			sub.Wait()
			close(got)

			var last applied
			var count int
			for a := range got {
				last = a
				count++
			}
			assert.Equal(t, uint64(2), last.seq)
			assert.Equal(t, 200, last.value)
			assert.Equal(t, uint64(2), sub.LastApplied())
			if tc.order[0] == 2 {
				assert.Equal(t, 1, count, "stale result must be dropped")
			} else {
				assert.Equal(t, 2, count)
			}
		})
	}
}

func TestSubscription_StaleErrorIsDropped(t *testing.T) {
	releases := map[int]chan result{1: make(chan result), 2: make(chan result)}
	var calls atomic.Int32
	started := make(chan struct{}, 2)
	fetch := func(ctx context.Context) (int, error) {
		n := int(calls.Add(1))
		started <- struct{}{}
		r := <-releases[n]
		return r.value, r.err
	}

	var errs atomic.Int32
	sub := Start(context.Background(), fetch, time.Hour, func(seq uint64, v int, err error) {
		if err != nil {
			errs.Add(1)
		}
	})
	defer sub.Stop()

	<-started
	sub.Refresh()
	<-started

	releases[2] <- result{value: 7}
	require.Eventually(t, func() bool { return sub.LastApplied() == 2 }, time.Second, time.Millisecond)
	releases[1] <- result{err: errors.New("timeout")}
	sub.Wait()

	assert.Zero(t, errs.Load())
	assert.Equal(t, uint64(2), sub.LastApplied())
}

func TestSubscription_StopBeforeResolveWritesNothing(t *testing.T) {
	g := newGatedFetch()
	var writes atomic.Int32
	sub := Start(context.Background(), func(ctx context.Context) (int, error) {
		g.started <- struct{}{}
		<-g.release
		return 1, nil
	}, time.Hour, func(uint64, int, error) { writes.Add(1) })

	waitStarted(t, g)
	sub.Stop()
	g.release <- result{value: 1}
	sub.Wait()

	assert.Zero(t, writes.Load())
	assert.True(t, sub.Stopped())
}

func TestSubscription_StopCancelsInFlightFetch(t *testing.T) {
	g := newGatedFetch()
	sub := Start(context.Background(), g.fetch, time.Hour, func(uint64, int, error) {
		t.Error("apply after stop")
	})

	waitStarted(t, g)
	sub.Stop()

	done := make(chan struct{})
	go func() {
		sub.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("in-flight fetch was not cancelled")
	}
}

func TestSubscription_StopIsIdempotentAndRefreshAfterStopIsNoop(t *testing.T) {
	sub := Start(context.Background(), func(ctx context.Context) (int, error) {
		return 1, nil
	}, time.Hour, func(uint64, int, error) {})

	sub.Stop()
	sub.Stop()

	before := sub.Dispatched()
	sub.Refresh()
	assert.Equal(t, before, sub.Dispatched())
}

func TestSubscription_TicksKeepDispatching(t *testing.T) {
	var applies atomic.Int32
	sub := Start(context.Background(), func(ctx context.Context) (int, error) {
		return 0, errors.New("backend down")
	}, 10*time.Millisecond, func(seq uint64, v int, err error) {
		applies.Add(1)
	}, WithName("ticks"))
	defer sub.Stop()

	require.Eventually(t, func() bool { return applies.Load() >= 3 }, 2*time.Second, 5*time.Millisecond,
		"failed polls must not stop the timer")
}

func TestSubscription_ParentCancelStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var applies atomic.Int32
	sub := Start(ctx, func(ctx context.Context) (int, error) {
		return 1, nil
	}, 5*time.Millisecond, func(uint64, int, error) { applies.Add(1) })

	require.Eventually(t, func() bool { return applies.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()
	sub.Stop()
	sub.Wait()

	n := sub.Dispatched()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, sub.Dispatched())
}
