// Package poller runs a fetch function on a fixed interval and applies results
// in dispatch order. Results that complete after a newer result was applied
// are dropped, so a view never regresses to older data.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/betbot/botdash/internal/metrics"
)

var log = logrus.WithField("module", "poller")

// FetchFunc performs one poll. ctx is cancelled when the subscription stops.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// ApplyFunc receives an accepted result (value or error) with its dispatch sequence.
// Calls are serialized per subscription. It must not call Stop.
type ApplyFunc[T any] func(seq uint64, value T, err error)

// Subscription is the handle returned by Start. One per polling view.
type Subscription struct {
	name     string
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	dispatchFn func(seq uint64)

	seq     atomic.Uint64 // last dispatched
	stopped atomic.Bool

	applyMu     sync.Mutex
	lastApplied uint64

	inflight sync.WaitGroup
	loopDone chan struct{}
	stopOnce sync.Once
}

// Option customizes a subscription.
type Option func(*Subscription)

// WithName tags log lines.
func WithName(name string) Option {
	return func(s *Subscription) { s.name = name }
}

// Start fetches immediately, then every interval, until Stop or ctx is done.
// A tick never waits for an outstanding fetch; overlapping fetches are resolved by sequence.
func Start[T any](ctx context.Context, fetch FetchFunc[T], interval time.Duration, apply ApplyFunc[T], opts ...Option) *Subscription {
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		loopDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.dispatchFn = func(seq uint64) {
		defer s.inflight.Done()
		value, err := fetch(ctx)

		s.applyMu.Lock()
		defer s.applyMu.Unlock()
		if s.stopped.Load() || ctx.Err() != nil {
			return
		}
		if seq <= s.lastApplied {
			metrics.PollsStale.Add(1)
			log.WithField("sub", s.name).Debugf("drop stale result seq=%d last_applied=%d", seq, s.lastApplied)
			return
		}
		s.lastApplied = seq
		metrics.PollsApplied.Add(1)
		if err != nil {
			metrics.PollErrors.Add(1)
		}
		apply(seq, value, err)
	}

	s.dispatch()
	go s.run()
	return s
}

func (s *Subscription) run() {
	defer close(s.loopDone)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.dispatch()
		}
	}
}

func (s *Subscription) dispatch() {
	if s.stopped.Load() || s.ctx.Err() != nil {
		return
	}
	seq := s.seq.Add(1)
	metrics.PollsDispatched.Add(1)
	s.inflight.Add(1)
	go s.dispatchFn(seq)
}

// Refresh dispatches an out-of-band fetch now with its own sequence number.
// No-op after Stop.
func (s *Subscription) Refresh() {
	s.dispatch()
}

// Stop is synchronous: once it returns no apply callback runs, and in-flight
// fetches see their context cancelled. Safe to call more than once.
func (s *Subscription) Stop() {
	s.stopOnce.Do(func() {
		// 等待正在执行的 apply 结束
		s.applyMu.Lock()
		s.stopped.Store(true)
		s.applyMu.Unlock()

		s.cancel()
		<-s.loopDone
		log.WithField("sub", s.name).Debugf("stopped after %d dispatches", s.seq.Load())
	})
}

// Wait blocks until every dispatched fetch has returned.
func (s *Subscription) Wait() {
	s.inflight.Wait()
}

// Stopped reports whether Stop was called.
func (s *Subscription) Stopped() bool { return s.stopped.Load() }

// Dispatched is the sequence number of the most recent dispatch.
func (s *Subscription) Dispatched() uint64 { return s.seq.Load() }

// LastApplied is the sequence number of the most recently applied result.
func (s *Subscription) LastApplied() uint64 {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	return s.lastApplied
}
