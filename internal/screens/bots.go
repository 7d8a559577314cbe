package screens

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/betbot/botdash/internal/domain"
	"github.com/betbot/botdash/internal/intents"
	"github.com/betbot/botdash/internal/viewstate"
)

// ErrBotsNotLoaded is returned by bot mutations before the first bot list arrived.
var ErrBotsNotLoaded = errors.New("bot list not loaded yet")

// Bots polls the bot list and the selected bot's status independently.
type Bots struct {
	src     Source
	intents *intents.Intents
	list    *feed[*domain.BotsSnapshot]
	detail  *feed[*domain.BotStatusSnapshot]
	mount   mountState

	// selectMu serializes selection changes with the detail restart they trigger.
	selectMu sync.Mutex
	mu       sync.Mutex
	selected string
}

// NewBots creates an unmounted bots screen with defaultBot selected.
func NewBots(src Source, in *intents.Intents, interval time.Duration, defaultBot string) *Bots {
	return &Bots{
		src:      src,
		intents:  in,
		list:     newFeed[*domain.BotsSnapshot]("bots", interval),
		detail:   newFeed[*domain.BotStatusSnapshot]("bot-status", interval),
		selected: defaultBot,
	}
}

func (b *Bots) Name() string { return "Bots" }

func (b *Bots) Mount(ctx context.Context) {
	if !b.mount.set(ctx) {
		return
	}
	b.list.start(ctx, b.src.Bots)

	b.selectMu.Lock()
	defer b.selectMu.Unlock()
	b.startDetail(ctx, b.Selected())
}

func (b *Bots) Unmount() {
	if !b.mount.clear() {
		return
	}
	b.list.stop()
	b.detail.stop()
}

func (b *Bots) Mounted() bool { return b.list.running() }

func (b *Bots) startDetail(ctx context.Context, id string) {
	if id == "" {
		b.detail.stop()
		return
	}
	b.detail.start(ctx, func(ctx context.Context) (*domain.BotStatusSnapshot, error) {
		return b.src.BotStatus(ctx, id)
	})
}

// ListStore bot list view state.
func (b *Bots) ListStore() *viewstate.Store[*domain.BotsSnapshot] { return b.list.store }

// DetailStore selected bot status view state.
func (b *Bots) DetailStore() *viewstate.Store[*domain.BotStatusSnapshot] { return b.detail.store }

// Selected bot id.
func (b *Bots) Selected() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected
}

// Select switches the detail subscription to id. The old subscription is
// stopped before the new one starts, so its results never reach the store.
func (b *Bots) Select(id string) {
	b.selectMu.Lock()
	defer b.selectMu.Unlock()

	b.mu.Lock()
	if id == b.selected {
		b.mu.Unlock()
		return
	}
	b.selected = id
	b.mu.Unlock()

	b.detail.stop()
	b.detail.store.Reset()
	if ctx, ok := b.mount.get(); ok {
		b.startDetail(ctx, id)
	}
}

// Refresh polls the bot list and the selected bot's status now.
func (b *Bots) Refresh() {
	b.list.refresh()
	b.detail.refresh()
}

// SelectNext cycles through the known bots.
func (b *Bots) SelectNext(step int) {
	v := b.list.store.View()
	if !v.HasSnapshot {
		return
	}
	ids := v.Snapshot.IDs()
	if len(ids) == 0 {
		return
	}
	cur := 0
	for i, id := range ids {
		if id == b.Selected() {
			cur = i
			break
		}
	}
	next := ((cur+step)%len(ids) + len(ids)) % len(ids)
	b.Select(ids[next])
}

// SelectedBot returns the last known descriptor of the selected bot.
func (b *Bots) SelectedBot() (domain.BotDescriptor, bool) {
	v := b.list.store.View()
	if !v.HasSnapshot {
		return domain.BotDescriptor{}, false
	}
	bot, ok := v.Snapshot.Bots[b.Selected()]
	return bot, ok
}

// SelectedStatus prefers the dedicated status endpoint and falls back to the
// status embedded in the bot list.
func (b *Bots) SelectedStatus() (domain.BotStatus, bool) {
	if v := b.detail.store.View(); v.HasSnapshot && v.Snapshot.BotID == b.Selected() {
		return v.Snapshot.Data, true
	}
	if bot, ok := b.SelectedBot(); ok && bot.Status != nil {
		return *bot.Status, true
	}
	return domain.BotStatus{}, false
}

// Toggle starts a stopped bot or stops a running one, based on the last poll.
func (b *Bots) Toggle(ctx context.Context) error {
	bot, ok := b.SelectedBot()
	if !ok {
		b.list.store.ReportMutationError(ErrBotsNotLoaded)
		return ErrBotsNotLoaded
	}
	err := b.intents.ToggleBot(ctx, bot.ID, domain.ToggleActionFor(bot.Running))
	return b.settle(err)
}

// UpdateParameters merges partial over the last known parameters and PUTs the result.
func (b *Bots) UpdateParameters(ctx context.Context, partial map[string]any) error {
	bot, ok := b.SelectedBot()
	if !ok {
		b.list.store.ReportMutationError(ErrBotsNotLoaded)
		return ErrBotsNotLoaded
	}
	_, err := b.intents.UpdateBotParameters(ctx, bot.ID, bot.Parameters, partial)
	return b.settle(err)
}

// SetSymbol changes the traded instrument.
func (b *Bots) SetSymbol(ctx context.Context, symbol string) error {
	return b.UpdateParameters(ctx, map[string]any{domain.ParamSymbol: symbol})
}

// SetCheckIntervalMinutes edits check_interval in minutes.
func (b *Bots) SetCheckIntervalMinutes(ctx context.Context, minutes int) error {
	return b.UpdateParameters(ctx, map[string]any{domain.ParamCheckInterval: intents.CheckIntervalFromMinutes(minutes)})
}

// settle refreshes both streams on success; failures go to the list banner.
func (b *Bots) settle(err error) error {
	if err != nil {
		b.list.store.ReportMutationError(err)
		return err
	}
	b.Refresh()
	return nil
}
