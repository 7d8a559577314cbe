package screens

import (
	"context"
	"sync"
	"time"

	"github.com/betbot/botdash/internal/domain"
	"github.com/betbot/botdash/internal/viewstate"
)

// Intelligence polls the market-intelligence summary and, on demand, the
// news for one topic.
type Intelligence struct {
	src     Source
	summary *feed[*domain.IntelligenceSnapshot]
	news    *feed[*domain.NewsSnapshot]
	mount   mountState

	mu    sync.Mutex
	topic string
}

// NewIntelligence creates an unmounted intelligence screen.
func NewIntelligence(src Source, interval time.Duration) *Intelligence {
	return &Intelligence{
		src:     src,
		summary: newFeed[*domain.IntelligenceSnapshot]("market-intelligence", interval),
		news:    newFeed[*domain.NewsSnapshot]("market-news", interval),
	}
}

func (i *Intelligence) Name() string { return "Intelligence" }

func (i *Intelligence) Mount(ctx context.Context) {
	if !i.mount.set(ctx) {
		return
	}
	i.summary.start(ctx, i.src.MarketIntelligence)
	if topic := i.Topic(); topic != "" {
		i.startNews(ctx, topic)
	}
}

func (i *Intelligence) Unmount() {
	if !i.mount.clear() {
		return
	}
	i.summary.stop()
	i.news.stop()
}

func (i *Intelligence) Mounted() bool { return i.summary.running() }

func (i *Intelligence) Store() *viewstate.Store[*domain.IntelligenceSnapshot] { return i.summary.store }

func (i *Intelligence) NewsStore() *viewstate.Store[*domain.NewsSnapshot] { return i.news.store }

// TryAgain fetches the summary immediately.
func (i *Intelligence) TryAgain() { i.summary.refresh() }

// Topic currently shown in the news panel, empty when none.
func (i *Intelligence) Topic() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.topic
}

// ShowNews switches the news panel to topic; an empty topic hides it.
func (i *Intelligence) ShowNews(topic string) {
	i.mu.Lock()
	if topic == i.topic {
		i.mu.Unlock()
		i.news.refresh()
		return
	}
	i.topic = topic
	i.mu.Unlock()

	i.news.stop()
	i.news.store.Reset()
	if topic == "" {
		return
	}
	if ctx, ok := i.mount.get(); ok {
		i.startNews(ctx, topic)
	}
}

func (i *Intelligence) startNews(ctx context.Context, topic string) {
	i.news.start(ctx, func(ctx context.Context) (*domain.NewsSnapshot, error) {
		return i.src.MarketNews(ctx, topic)
	})
}
