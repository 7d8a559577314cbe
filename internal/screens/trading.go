package screens

import (
	"context"
	"time"

	"github.com/betbot/botdash/internal/domain"
	"github.com/betbot/botdash/internal/intents"
	"github.com/betbot/botdash/internal/viewstate"
)

// Trading shows account, prices and positions from /trading-status and
// places market orders.
type Trading struct {
	src     Source
	intents *intents.Intents
	status  *feed[*domain.TradingSnapshot]
	mount   mountState
}

// NewTrading creates an unmounted trading screen.
func NewTrading(src Source, in *intents.Intents, interval time.Duration) *Trading {
	return &Trading{src: src, intents: in, status: newFeed[*domain.TradingSnapshot]("trading-status", interval)}
}

func (t *Trading) Name() string { return "Trading" }

func (t *Trading) Mount(ctx context.Context) {
	if !t.mount.set(ctx) {
		return
	}
	t.status.start(ctx, t.src.TradingStatus)
}

func (t *Trading) Unmount() {
	if !t.mount.clear() {
		return
	}
	t.status.stop()
}

func (t *Trading) Mounted() bool { return t.status.running() }

// Store exposes the view state for rendering.
func (t *Trading) Store() *viewstate.Store[*domain.TradingSnapshot] { return t.status.store }

// Refresh polls now.
func (t *Trading) Refresh() { t.status.refresh() }

// TradeQuantity used by Buy and Sell.
func (t *Trading) TradeQuantity() float64 { return t.intents.TradeQuantity() }

// Buy places a buy of the default quantity.
func (t *Trading) Buy(ctx context.Context, symbol string) error {
	return t.trade(ctx, symbol, domain.SideBuy)
}

// Sell places a sell of the default quantity.
func (t *Trading) Sell(ctx context.Context, symbol string) error {
	return t.trade(ctx, symbol, domain.SideSell)
}

func (t *Trading) trade(ctx context.Context, symbol string, side domain.Side) error {
	_, err := t.intents.ExecuteTrade(ctx, symbol, side, 0)
	return settle(t.status, err)
}

// ClosePosition closes symbol.
func (t *Trading) ClosePosition(ctx context.Context, symbol string) error {
	_, err := t.intents.ClosePosition(ctx, symbol)
	return settle(t.status, err)
}
