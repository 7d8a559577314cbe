// Package screens binds subscriptions, stores and intents for each dashboard tab.
// A screen polls only while mounted; Unmount stops every subscription it owns
// before returning.
package screens

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/betbot/botdash/internal/domain"
	"github.com/betbot/botdash/internal/intents"
	"github.com/betbot/botdash/internal/poller"
	"github.com/betbot/botdash/internal/viewstate"
)

var log = logrus.WithField("module", "screens")

// Source is the read side of the backend.
type Source interface {
	TradingStatus(ctx context.Context) (*domain.TradingSnapshot, error)
	Bots(ctx context.Context) (*domain.BotsSnapshot, error)
	BotStatus(ctx context.Context, id string) (*domain.BotStatusSnapshot, error)
	MarketIntelligence(ctx context.Context) (*domain.IntelligenceSnapshot, error)
	MarketNews(ctx context.Context, topic string) (*domain.NewsSnapshot, error)
	Positions(ctx context.Context) (*domain.PositionsSnapshot, error)
}

// Screen is one tab.
type Screen interface {
	Name() string
	Mount(ctx context.Context)
	Unmount()
	Mounted() bool
}

// Intervals per data stream.
type Intervals struct {
	Status       time.Duration
	Bots         time.Duration
	Intelligence time.Duration
}

// feed is one polled stream: a store plus the subscription feeding it.
type feed[T any] struct {
	name     string
	interval time.Duration
	store    *viewstate.Store[T]

	mu  sync.Mutex
	sub *poller.Subscription
}

func newFeed[T any](name string, interval time.Duration) *feed[T] {
	return &feed[T]{name: name, interval: interval, store: viewstate.New[T](name)}
}

// start replaces any running subscription.
func (f *feed[T]) start(ctx context.Context, fetch poller.FetchFunc[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sub != nil {
		f.sub.Stop()
	}
	f.sub = poller.Start(ctx, fetch, f.interval, f.store.Apply, poller.WithName(f.name))
	log.WithField("feed", f.name).Debugf("subscribed, interval=%s", f.interval)
}

func (f *feed[T]) stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sub != nil {
		f.sub.Stop()
		f.sub = nil
		log.WithField("feed", f.name).Debug("unsubscribed")
	}
}

func (f *feed[T]) refresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sub != nil {
		f.sub.Refresh()
	}
}

func (f *feed[T]) running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sub != nil
}

// settle mutation outcome: report failure into the store, refresh on success.
func settle[T any](f *feed[T], err error) error {
	if err != nil {
		f.store.ReportMutationError(err)
		return err
	}
	f.refresh()
	return nil
}

// mountState remembers the mount context so a screen can restart a feed
// (for example when the selected bot changes).
type mountState struct {
	mu  sync.Mutex
	ctx context.Context
}

func (m *mountState) set(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx != nil {
		return false
	}
	m.ctx = ctx
	return true
}

func (m *mountState) clear() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx == nil {
		return false
	}
	m.ctx = nil
	return true
}

func (m *mountState) get() (context.Context, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ctx, m.ctx != nil
}

// Set is every screen the dashboard shows, in tab order.
type Set struct {
	Trading      *Trading
	Bots         *Bots
	Intelligence *Intelligence
	Positions    *Positions
}

// NewSet builds all screens on one source and one intent dispatcher.
func NewSet(src Source, in *intents.Intents, iv Intervals, defaultBot string) *Set {
	return &Set{
		Trading:      NewTrading(src, in, iv.Status),
		Bots:         NewBots(src, in, iv.Bots, defaultBot),
		Intelligence: NewIntelligence(src, iv.Intelligence),
		Positions:    NewPositions(src, in, iv.Status),
	}
}

// All returns the screens in tab order.
func (s *Set) All() []Screen {
	return []Screen{s.Trading, s.Bots, s.Intelligence, s.Positions}
}

// UnmountAll stops every subscription.
func (s *Set) UnmountAll() {
	for _, sc := range s.All() {
		sc.Unmount()
	}
}
