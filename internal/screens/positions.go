package screens

import (
	"context"
	"time"

	"github.com/betbot/botdash/internal/domain"
	"github.com/betbot/botdash/internal/intents"
	"github.com/betbot/botdash/internal/viewstate"
)

// Positions lists /api/positions and closes them.
type Positions struct {
	src       Source
	intents   *intents.Intents
	positions *feed[*domain.PositionsSnapshot]
	mount     mountState
}

// NewPositions creates an unmounted positions screen.
func NewPositions(src Source, in *intents.Intents, interval time.Duration) *Positions {
	return &Positions{src: src, intents: in, positions: newFeed[*domain.PositionsSnapshot]("positions", interval)}
}

func (p *Positions) Name() string { return "Positions" }

func (p *Positions) Mount(ctx context.Context) {
	if !p.mount.set(ctx) {
		return
	}
	p.positions.start(ctx, p.src.Positions)
}

func (p *Positions) Unmount() {
	if !p.mount.clear() {
		return
	}
	p.positions.stop()
}

func (p *Positions) Mounted() bool { return p.positions.running() }

func (p *Positions) Store() *viewstate.Store[*domain.PositionsSnapshot] { return p.positions.store }

func (p *Positions) Refresh() { p.positions.refresh() }

// Close closes symbol and refreshes on success.
func (p *Positions) Close(ctx context.Context, symbol string) error {
	_, err := p.intents.ClosePosition(ctx, symbol)
	return settle(p.positions, err)
}
