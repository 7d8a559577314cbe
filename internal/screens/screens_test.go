package screens

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/botdash/internal/api"
	"github.com/betbot/botdash/internal/backendsim"
	"github.com/betbot/botdash/internal/intents"
	"github.com/betbot/botdash/internal/viewstate"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fixture struct {
	sim *backendsim.Server
	set *Set
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := backendsim.DefaultConfig()
	cfg.TickInterval = 0
	sim := backendsim.New(cfg)
	srv := httptest.NewServer(sim.Router())
	t.Cleanup(srv.Close)

	backend := api.NewBackend(srv.URL, srv.URL, 0)
	in := intents.New(backend, intents.Config{TradeQuantity: 1000, TradeSubmitPerSec: 50})
	set := NewSet(backend, in, Intervals{Status: time.Hour, Bots: time.Hour, Intelligence: time.Hour}, "ema_strategy")
	t.Cleanup(set.UnmountAll)
	return &fixture{sim: sim, set: set}
}

func waitPhase[T any](t *testing.T, store *viewstate.Store[T], phase viewstate.Phase) viewstate.View[T] {
	t.Helper()
	require.Eventually(t, func() bool { return store.View().Phase == phase }, waitFor, tick, "phase %s", phase)
	return store.View()
}

func TestTrading_BuyRefreshesSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.set.Trading

	tr.Mount(ctx)
	v := waitPhase(t, tr.Store(), viewstate.PhaseReady)
	assert.Empty(t, v.Snapshot.Positions)
	assert.Equal(t, uint64(1), v.Snapshot.Seq)

	require.NoError(t, tr.Buy(ctx, "EUR_USD"))

	require.Eventually(t, func() bool {
		v := tr.Store().View()
		return v.HasSnapshot && len(v.Snapshot.Positions) == 1
	}, waitFor, tick)
	assert.Equal(t, 2, f.sim.Hits("/trading-status"))
}

func TestTrading_ErrorAfterSuccessKeepsPositions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.set.Trading

	tr.Mount(ctx)
	waitPhase(t, tr.Store(), viewstate.PhaseReady)
	require.NoError(t, tr.Buy(ctx, "GBP_USD"))
	require.Eventually(t, func() bool {
		v := tr.Store().View()
		return len(v.Snapshot.Positions) == 1
	}, waitFor, tick)

	f.sim.FailNext("/trading-status", http.StatusInternalServerError, "database unavailable")
	tr.Refresh()

	v := waitPhase(t, tr.Store(), viewstate.PhaseErrored)
	require.True(t, v.HasSnapshot)
	assert.Contains(t, v.Snapshot.Positions, "GBP_USD")
	assert.Equal(t, "HTTP 500: database unavailable", api.UserMessage(v.Err))
}

func TestTrading_FirstFetchErrorHasNoSnapshot(t *testing.T) {
	f := newFixture(t)
	f.sim.FailNext("/trading-status", http.StatusBadGateway, "")

	f.set.Trading.Mount(context.Background())
	v := waitPhase(t, f.set.Trading.Store(), viewstate.PhaseErrored)
	assert.False(t, v.HasSnapshot)
	assert.Equal(t, api.GenericMessage, func() string { e, _ := api.AsError(v.Err); return e.Message }())
}

func TestTrading_ApplicationErrorDoesNotRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.set.Trading

	tr.Mount(ctx)
	before := waitPhase(t, tr.Store(), viewstate.PhaseReady)

	err := tr.Buy(ctx, "BTC_USD") // 64M notional, more than the cash
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindApplication))

	time.Sleep(50 * time.Millisecond)
	v := tr.Store().View()
	assert.Equal(t, 1, f.sim.Hits("/trading-status"), "failed trade must not refetch")
	assert.Equal(t, viewstate.PhaseReady, v.Phase)
	assert.Same(t, before.Snapshot, v.Snapshot)
	assert.EqualError(t, v.MutationErr, err.Error())
}

func TestTrading_NonSuccessOrderStatusDoesNotRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr := f.set.Trading

	tr.Mount(ctx)
	before := waitPhase(t, tr.Store(), viewstate.PhaseReady)

	f.sim.RespondNext("/execute-trade", map[string]any{"status": "failed", "message": "market closed"})
	err := tr.Buy(ctx, "EUR_USD")
	require.Error(t, err)
	assert.True(t, api.IsKind(err, api.KindApplication))
	assert.Equal(t, "market closed", api.UserMessage(err))

	f.sim.RespondNext("/close-position/EUR_USD", map[string]any{})
	err = tr.ClosePosition(ctx, "EUR_USD")
	require.Error(t, err)
	assert.Equal(t, api.GenericMessage, api.UserMessage(err))

	time.Sleep(50 * time.Millisecond)
	v := tr.Store().View()
	assert.Equal(t, 1, f.sim.Hits("/trading-status"), "rejected order must not refetch")
	assert.Same(t, before.Snapshot, v.Snapshot)
	assert.EqualError(t, v.MutationErr, err.Error())
}

func TestTrading_UnmountStopsPolling(t *testing.T) {
	f := newFixture(t)
	tr := NewTrading(f.set.Trading.src, f.set.Trading.intents, 10*time.Millisecond)

	tr.Mount(context.Background())
	require.Eventually(t, func() bool { return f.sim.Hits("/trading-status") >= 2 }, waitFor, tick)
	tr.Unmount()
	tr.Unmount()
	assert.False(t, tr.Mounted())

	time.Sleep(20 * time.Millisecond)
	hits := f.sim.Hits("/trading-status")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, hits, f.sim.Hits("/trading-status"))
}

func TestBots_ToggleAndEditParameters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bots := f.set.Bots

	bots.Mount(ctx)
	waitPhase(t, bots.ListStore(), viewstate.PhaseReady)
	waitPhase(t, bots.DetailStore(), viewstate.PhaseReady)

	bot, ok := bots.SelectedBot()
	require.True(t, ok)
	require.True(t, bot.Running)

	require.NoError(t, bots.Toggle(ctx))
	require.Eventually(t, func() bool {
		b, _ := bots.SelectedBot()
		return !b.Running
	}, waitFor, tick)

	require.NoError(t, bots.SetCheckIntervalMinutes(ctx, 20000))
	var sent map[string]any
	require.NoError(t, json.Unmarshal(f.sim.LastBody("/api/bots/ema_strategy/parameters"), &sent))
	assert.Equal(t, float64(604800), sent["check_interval"])
	assert.Equal(t, "EUR_USD", sent["symbol"])
	assert.Equal(t, true, sent["continue_after_trade"])
	assert.Equal(t, float64(12), sent["fast_period"])

	require.Eventually(t, func() bool {
		st, ok := bots.SelectedStatus()
		return ok && len(st.RecentUpdates) == 2
	}, waitFor, tick)
}

func TestBots_SelectSwitchesDetail(t *testing.T) {
	f := newFixture(t)
	bots := f.set.Bots

	bots.Mount(context.Background())
	waitPhase(t, bots.ListStore(), viewstate.PhaseReady)

	bots.SelectNext(1)
	assert.Equal(t, "macd_strategy", bots.Selected())
	bots.Select("rsi_strategy")

	require.Eventually(t, func() bool {
		v := bots.DetailStore().View()
		return v.HasSnapshot && v.Snapshot.BotID == "rsi_strategy"
	}, waitFor, tick)
	assert.Equal(t, 1, f.sim.Hits("/api/bots/rsi_strategy/status"))
}

func TestBots_RefreshPollsListAndDetail(t *testing.T) {
	f := newFixture(t)
	bots := f.set.Bots

	bots.Mount(context.Background())
	waitPhase(t, bots.ListStore(), viewstate.PhaseReady)
	waitPhase(t, bots.DetailStore(), viewstate.PhaseReady)

	bots.Refresh()
	require.Eventually(t, func() bool {
		return f.sim.Hits("/api/bots") == 2 && f.sim.Hits("/api/bots/ema_strategy/status") == 2
	}, waitFor, tick)
}

func TestBots_ConcurrentSelectKeepsDetailOnSelectedBot(t *testing.T) {
	f := newFixture(t)
	bots := f.set.Bots

	bots.Mount(context.Background())
	waitPhase(t, bots.ListStore(), viewstate.PhaseReady)

	ids := []string{"rsi_strategy", "macd_strategy", "ema_strategy"}
	var wg sync.WaitGroup
	for i := range 30 {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			bots.Select(id)
		}(ids[i%len(ids)])
	}
	wg.Wait()

	selected := bots.Selected()
	require.Eventually(t, func() bool {
		v := bots.DetailStore().View()
		return v.HasSnapshot && v.Snapshot.BotID == selected
	}, waitFor, tick)

	// 只有选中 bot 的详情订阅仍在运行
	before := f.sim.Hits("/api/bots/" + selected + "/status")
	bots.Refresh()
	require.Eventually(t, func() bool {
		return f.sim.Hits("/api/bots/"+selected+"/status") > before
	}, waitFor, tick)
	v := bots.DetailStore().View()
	assert.Equal(t, selected, v.Snapshot.BotID)
}

func TestBots_MutationBeforeLoad(t *testing.T) {
	f := newFixture(t)
	err := f.set.Bots.Toggle(context.Background())
	assert.ErrorIs(t, err, ErrBotsNotLoaded)
	assert.ErrorIs(t, f.set.Bots.ListStore().View().MutationErr, ErrBotsNotLoaded)
}

func TestIntelligence_NewsByTopic(t *testing.T) {
	f := newFixture(t)
	in := f.set.Intelligence

	in.Mount(context.Background())
	v := waitPhase(t, in.Store(), viewstate.PhaseReady)
	assert.NotEmpty(t, v.Snapshot.News.Categories["markets"])

	in.ShowNews("crypto")
	require.Eventually(t, func() bool {
		v := in.NewsStore().View()
		return v.HasSnapshot && v.Snapshot.Topic == "crypto"
	}, waitFor, tick)

	in.TryAgain()
	require.Eventually(t, func() bool { return f.sim.Hits("/api/market-intelligence") == 2 }, waitFor, tick)

	in.ShowNews("")
	assert.Equal(t, viewstate.PhaseLoading, in.NewsStore().View().Phase)
}

func TestPositions_Close(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.set.Trading.Buy(ctx, "EUR_USD"))

	p := f.set.Positions
	p.Mount(ctx)
	v := waitPhase(t, p.Store(), viewstate.PhaseReady)
	require.Contains(t, v.Snapshot.Positions, "EUR_USD")

	require.NoError(t, p.Close(ctx, "EUR_USD"))
	require.Eventually(t, func() bool { return len(p.Store().View().Snapshot.Positions) == 0 }, waitFor, tick)

	err := p.Close(ctx, "EUR_USD")
	assert.True(t, api.IsKind(err, api.KindHTTP))
	assert.Error(t, p.Store().View().MutationErr)
}
