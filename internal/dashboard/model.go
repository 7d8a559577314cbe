package dashboard

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/betbot/botdash/internal/api"
	"github.com/betbot/botdash/internal/domain"
	"github.com/betbot/botdash/internal/intents"
	"github.com/betbot/botdash/internal/screens"
)

var modelLog = logrus.WithField("module", "dashboard.model")

const (
	tabTrading = iota
	tabBots
	tabIntelligence
	tabPositions
)

var intelSections = []string{"Overview", "Markets & Stocks", "Economy", "Global", "Commodities & Crypto"}

type updateMsg struct{}

type tickMsg time.Time

// actionMsg 一次 mutation 的结果
type actionMsg struct {
	label string
	err   error
}

type model struct {
	ctx     context.Context
	set     *screens.Set
	tabs    []screens.Screen
	active  int
	updates <-chan struct{}
	title   string

	width  int
	height int
	now    time.Time

	symbolIdx   int
	positionIdx int
	paramIdx    int
	intelTab    int
	newsIdx     int // -1: 不显示新闻面板

	editing bool
	editKey string
	input   string

	status    string
	statusErr bool
}

func newModel(ctx context.Context, set *screens.Set, updates <-chan struct{}, opts Options) model {
	m := model{
		ctx:     ctx,
		set:     set,
		tabs:    set.All(),
		updates: updates,
		title:   opts.Title,
		now:     time.Now(),
		newsIdx: -1,
	}
	if opts.InitialTab >= 0 && opts.InitialTab < len(m.tabs) {
		m.active = opts.InitialTab
	}
	return m
}

// mountActive 只挂载当前标签页
func (m model) mountActive() {
	m.tabs[m.active].Mount(m.ctx)
}

func (m model) Init() tea.Cmd {
	m.mountActive()
	return tea.Batch(m.waitForUpdate(), m.tick())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case updateMsg:
		return m, m.waitForUpdate()
	case tickMsg:
		m.now = time.Time(msg)
		return m, m.tick()
	case actionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %s", msg.label, api.UserMessage(msg.err))
			m.statusErr = true
			modelLog.Warnf("%s failed: %v", msg.label, msg.err)
		} else {
			m.status = msg.label + " ✓"
			m.statusErr = false
		}
		return m, nil
	}
	return m, nil
}

func (m model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", "q":
		// Bubble Tea 会拦截 Ctrl+C，主动给自己发 SIGINT，走统一的优雅退出链路
		_ = syscall.Kill(os.Getpid(), syscall.SIGINT)
		return m, tea.Quit
	case "tab":
		return m.switchTab((m.active + 1) % len(m.tabs)), nil
	case "shift+tab":
		return m.switchTab((m.active + len(m.tabs) - 1) % len(m.tabs)), nil
	case "1", "2", "3", "4":
		i, _ := strconv.Atoi(key)
		if i-1 < len(m.tabs) {
			return m.switchTab(i - 1), nil
		}
		return m, nil
	}

	switch m.active {
	case tabTrading:
		return m.updateTrading(msg)
	case tabBots:
		return m.updateBots(msg)
	case tabIntelligence:
		return m.updateIntelligence(msg)
	case tabPositions:
		return m.updatePositions(msg)
	}
	return m, nil
}

// switchTab 同步卸载旧页面再挂载新页面
func (m model) switchTab(i int) model {
	if i == m.active {
		return m
	}
	m.tabs[m.active].Unmount()
	m.active = i
	m.status = ""
	m.mountActive()
	return m
}

func (m model) act(label string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionMsg{label: label, err: fn(ctx)}
	}
}

func (m model) tradingSymbols() []string {
	v := m.set.Trading.Store().View()
	if !v.HasSnapshot {
		return nil
	}
	return v.Snapshot.MarketPrices.Symbols()
}

func (m model) selectedSymbol() string {
	syms := m.tradingSymbols()
	if len(syms) == 0 {
		return ""
	}
	return syms[min(m.symbolIdx, len(syms)-1)]
}

func (m model) updateTrading(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tr := m.set.Trading
	switch msg.String() {
	case "left", "h", "up", "k":
		m.symbolIdx = max(m.symbolIdx-1, 0)
	case "right", "l", "down", "j":
		m.symbolIdx = min(m.symbolIdx+1, max(len(m.tradingSymbols())-1, 0))
	case "r":
		tr.Refresh()
	case "b", "s", "c":
		symbol := m.selectedSymbol()
		if symbol == "" {
			return m, nil
		}
		switch msg.String() {
		case "b":
			return m, m.act("buy "+domain.DisplaySymbol(symbol), func(ctx context.Context) error { return tr.Buy(ctx, symbol) })
		case "s":
			return m, m.act("sell "+domain.DisplaySymbol(symbol), func(ctx context.Context) error { return tr.Sell(ctx, symbol) })
		default:
			return m, m.act("close "+domain.DisplaySymbol(symbol), func(ctx context.Context) error { return tr.ClosePosition(ctx, symbol) })
		}
	}
	return m, nil
}

func (m model) paramKeys() []string {
	bot, ok := m.set.Bots.SelectedBot()
	if !ok {
		return nil
	}
	return bot.NumericParameterKeys()
}

func (m model) updateBots(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	bots := m.set.Bots
	switch msg.String() {
	case "[":
		bots.SelectNext(-1)
		m.paramIdx = 0
	case "]":
		bots.SelectNext(1)
		m.paramIdx = 0
	case "up", "k":
		m.paramIdx = max(m.paramIdx-1, 0)
	case "down", "j":
		m.paramIdx = min(m.paramIdx+1, max(len(m.paramKeys())-1, 0))
	case "r":
		bots.ListStore().ClearMutationError()
		bots.Refresh()
	case "t":
		bot, ok := bots.SelectedBot()
		label := "toggle bot"
		if ok {
			label = fmt.Sprintf("%s %s", domain.ToggleActionFor(bot.Running), bot.Name)
		}
		return m, m.act(label, bots.Toggle)
	case "y":
		st, ok := bots.SelectedStatus()
		bot, okBot := bots.SelectedBot()
		if !ok || !okBot || len(st.AvailableInstruments) == 0 {
			return m, nil
		}
		next := nextInstrument(st.AvailableInstruments, fmt.Sprint(bot.Parameters[domain.ParamSymbol]))
		return m, m.act("symbol → "+domain.DisplaySymbol(next), func(ctx context.Context) error { return bots.SetSymbol(ctx, next) })
	case "enter", "e":
		keys := m.paramKeys()
		if len(keys) == 0 {
			return m, nil
		}
		m.editing = true
		m.editKey = keys[min(m.paramIdx, len(keys)-1)]
		m.input = ""
	}
	return m, nil
}

func nextInstrument(instruments []string, current string) string {
	for i, s := range instruments {
		if s == current {
			return instruments[(i+1)%len(instruments)]
		}
	}
	return instruments[0]
}

func (m model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		return m, nil
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil
	case tea.KeyEnter:
		m.editing = false
		return m, m.submitEdit()
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				m.input += string(r)
			}
		}
	}
	return m, nil
}

func (m model) submitEdit() tea.Cmd {
	key, raw := m.editKey, strings.TrimSpace(m.input)
	bots := m.set.Bots
	if key == domain.ParamCheckInterval {
		minutes, err := strconv.Atoi(raw)
		if err != nil {
			return m.act("check interval", func(context.Context) error { return fmt.Errorf("%q is not a whole number of minutes", raw) })
		}
		seconds := intents.CheckIntervalFromMinutes(minutes)
		return m.act(fmt.Sprintf("check interval → %d min", seconds/60), func(ctx context.Context) error {
			return bots.SetCheckIntervalMinutes(ctx, minutes)
		})
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return m.act(key, func(context.Context) error { return fmt.Errorf("%q is not a number", raw) })
	}
	return m.act(fmt.Sprintf("%s → %g", key, v), func(ctx context.Context) error {
		return bots.UpdateParameters(ctx, map[string]any{key: v})
	})
}

func (m model) updateIntelligence(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	in := m.set.Intelligence
	switch msg.String() {
	case "left", "h":
		m.intelTab = (m.intelTab + len(intelSections) - 1) % len(intelSections)
	case "right", "l":
		m.intelTab = (m.intelTab + 1) % len(intelSections)
	case "r":
		in.TryAgain()
	case "n":
		m.newsIdx++
		if m.newsIdx >= len(domain.NewsTopics) {
			m.newsIdx = -1
			in.ShowNews("")
		} else {
			in.ShowNews(domain.NewsTopics[m.newsIdx])
		}
	}
	return m, nil
}

func (m model) positionSymbols() []string {
	v := m.set.Positions.Store().View()
	if !v.HasSnapshot {
		return nil
	}
	return sortedKeys(v.Snapshot.Positions)
}

func (m model) updatePositions(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.set.Positions
	switch msg.String() {
	case "up", "k":
		m.positionIdx = max(m.positionIdx-1, 0)
	case "down", "j":
		m.positionIdx = min(m.positionIdx+1, max(len(m.positionSymbols())-1, 0))
	case "r":
		p.Refresh()
	case "c":
		syms := m.positionSymbols()
		if len(syms) == 0 {
			return m, nil
		}
		symbol := syms[min(m.positionIdx, len(syms)-1)]
		return m, m.act("close "+domain.DisplaySymbol(symbol), func(ctx context.Context) error { return p.Close(ctx, symbol) })
	}
	return m, nil
}

func (m model) View() string {
	width := max(m.width-4, 60)

	var body string
	switch m.active {
	case tabTrading:
		body = m.renderTrading(width)
	case tabBots:
		body = m.renderBots(width)
	case tabIntelligence:
		body = m.renderIntelligence(width)
	case tabPositions:
		body = m.renderPositions(width)
	}

	parts := []string{m.renderHeader(), m.renderTabs(), body}
	if m.status != "" {
		style := upStyle
		if m.statusErr {
			style = errorStyle
		}
		parts = append(parts, style.Render(m.status))
	}
	parts = append(parts, dimStyle.Render(m.footer()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m model) renderHeader() string {
	title := m.title
	if strings.TrimSpace(title) == "" {
		title = "Trading Bot Dashboard"
	}
	return headerStyle.Render(fmt.Sprintf("%s | Time: %s", title, m.now.Format("15:04:05")))
}

func (m model) renderTabs() string {
	var tabs []string
	for i, sc := range m.tabs {
		label := fmt.Sprintf("%d %s", i+1, sc.Name())
		if i == m.active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m model) footer() string {
	common := "tab/1-4 switch  r refresh  q quit"
	if m.editing {
		return "enter save  esc cancel"
	}
	switch m.active {
	case tabTrading:
		return fmt.Sprintf("←/→ symbol  b buy  s sell  c close (qty %g)  %s", m.set.Trading.TradeQuantity(), common)
	case tabBots:
		return "[/] bot  t start/stop  y symbol  ↑/↓ param  enter edit  " + common
	case tabIntelligence:
		return "←/→ section  n news topic  r try again  " + common
	case tabPositions:
		return "↑/↓ select  c close  " + common
	}
	return common
}

func (m model) waitForUpdate() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		<-ch
		return updateMsg{}
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
