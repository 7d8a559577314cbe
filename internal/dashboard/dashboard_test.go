package dashboard

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/botdash/internal/api"
	"github.com/betbot/botdash/internal/backendsim"
	"github.com/betbot/botdash/internal/intents"
	"github.com/betbot/botdash/internal/screens"
	"github.com/betbot/botdash/internal/viewstate"
)

const (
	waitFor = 2 * time.Second
	poll    = 5 * time.Millisecond
)

func newTestModel(t *testing.T) (model, *backendsim.Server) {
	t.Helper()
	cfg := backendsim.DefaultConfig()
	cfg.TickInterval = 0
	sim := backendsim.New(cfg)
	srv := httptest.NewServer(sim.Router())
	t.Cleanup(srv.Close)

	backend := api.NewBackend(srv.URL, srv.URL, 0)
	in := intents.New(backend, intents.Config{TradeQuantity: 1000, TradeSubmitPerSec: 50})
	set := screens.NewSet(backend, in, screens.Intervals{Status: time.Hour, Bots: time.Hour, Intelligence: time.Hour}, "ema_strategy")
	t.Cleanup(set.UnmountAll)

	m := newModel(context.Background(), set, make(chan struct{}), Options{Title: "test"})
	m.width = 120
	m.Init()
	return m, sim
}

func press(t *testing.T, m model, keys ...string) model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

// run 执行按键触发的 mutation 命令并把结果喂回 model
func run(t *testing.T, m model, key string) model {
	t.Helper()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	m = next.(model)
	require.NotNil(t, cmd, "key %q produced no command", key)
	next, _ = m.Update(cmd())
	return next.(model)
}

func waitReady[T any](t *testing.T, store *viewstate.Store[T]) {
	t.Helper()
	require.Eventually(t, func() bool { return store.View().Phase == viewstate.PhaseReady }, waitFor, poll)
}

func TestModel_OnlyActiveTabIsMounted(t *testing.T) {
	m, _ := newTestModel(t)
	set := m.set

	assert.True(t, set.Trading.Mounted())
	assert.False(t, set.Bots.Mounted())

	m = press(t, m, "tab")
	assert.Equal(t, tabBots, m.active)
	assert.False(t, set.Trading.Mounted())
	assert.True(t, set.Bots.Mounted())

	m = press(t, m, "4")
	assert.Equal(t, tabPositions, m.active)
	assert.False(t, set.Bots.Mounted())
	assert.True(t, set.Positions.Mounted())
}

func TestModel_BuySelectedSymbol(t *testing.T) {
	m, sim := newTestModel(t)
	waitReady(t, m.set.Trading.Store())
	assert.Contains(t, m.View(), "EUR/USD")

	// BTC_USD, ETH_USD, EUR_USD ...
	m = press(t, m, "right", "right")
	assert.Equal(t, "EUR_USD", m.selectedSymbol())

	m = run(t, m, "b")
	assert.False(t, m.statusErr, m.status)
	assert.Equal(t, "buy EUR/USD ✓", m.status)

	require.Eventually(t, func() bool {
		v := m.set.Trading.Store().View()
		return len(v.Snapshot.Positions) == 1
	}, waitFor, poll)
	assert.Equal(t, 1, sim.Hits("/execute-trade"))
}

func TestModel_FailedTradeShowsStatus(t *testing.T) {
	m, sim := newTestModel(t)
	waitReady(t, m.set.Trading.Store())

	sim.FailNext("/execute-trade", 500, "broker offline")
	m = run(t, m, "s")
	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "HTTP 500: broker offline")
	assert.Contains(t, m.View(), "broker offline")
}

func TestModel_EditCheckIntervalInMinutes(t *testing.T) {
	m, sim := newTestModel(t)
	m = press(t, m, "2")
	waitReady(t, m.set.Bots.ListStore())

	m = press(t, m, "enter")
	require.True(t, m.editing)
	assert.Equal(t, "check_interval", m.editKey)

	m = press(t, m, "2", "0", "x", "0", "0", "0")
	assert.Equal(t, "20000", m.input)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	assert.False(t, m.editing)
	require.NotNil(t, cmd)
	next, _ = m.Update(cmd())
	m = next.(model)
	assert.False(t, m.statusErr, m.status)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(sim.LastBody("/api/bots/ema_strategy/parameters"), &sent))
	assert.Equal(t, float64(604800), sent["check_interval"])
	assert.Equal(t, float64(12), sent["fast_period"])
}

func TestModel_EscCancelsEdit(t *testing.T) {
	m, sim := newTestModel(t)
	m = press(t, m, "2")
	waitReady(t, m.set.Bots.ListStore())

	m = press(t, m, "enter", "5", "esc")
	assert.False(t, m.editing)
	assert.Equal(t, 0, sim.Hits("/api/bots/ema_strategy/parameters"))
}

func TestModel_RefreshOnBotsTabPollsListAndDetail(t *testing.T) {
	m, sim := newTestModel(t)
	m = press(t, m, "2")
	waitReady(t, m.set.Bots.ListStore())
	waitReady(t, m.set.Bots.DetailStore())
	require.Equal(t, 1, sim.Hits("/api/bots"))
	require.Equal(t, 1, sim.Hits("/api/bots/ema_strategy/status"))

	press(t, m, "r")
	require.Eventually(t, func() bool {
		return sim.Hits("/api/bots") == 2 && sim.Hits("/api/bots/ema_strategy/status") == 2
	}, waitFor, poll)
}

func TestModel_NewsTopicCycle(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, "3")
	waitReady(t, m.set.Intelligence.Store())
	assert.Contains(t, m.View(), "Last updated")

	m = press(t, m, "n")
	assert.Equal(t, "markets", m.set.Intelligence.Topic())
	waitReady(t, m.set.Intelligence.NewsStore())
	assert.Contains(t, m.View(), "News: markets")

	m = press(t, m, "n", "n", "n", "n", "n")
	assert.Equal(t, "", m.set.Intelligence.Topic())
	assert.Equal(t, -1, m.newsIdx)
}

func TestModel_LoadingAndErrorViews(t *testing.T) {
	m, sim := newTestModel(t)
	sim.FailNext("/api/positions", 503, "")

	m = press(t, m, "4")
	require.Eventually(t, func() bool {
		return m.set.Positions.Store().View().Phase == viewstate.PhaseErrored
	}, waitFor, poll)
	out := m.View()
	assert.Contains(t, out, "HTTP 503: An error occurred")
	assert.Contains(t, out, "press r to try again")

	m = press(t, m, "r")
	waitReady(t, m.set.Positions.Store())
	assert.Contains(t, m.View(), "No open positions")
}
