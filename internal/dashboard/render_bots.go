package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/betbot/botdash/internal/api"
	"github.com/betbot/botdash/internal/domain"
	"github.com/betbot/botdash/internal/intents"
	"github.com/betbot/botdash/internal/viewstate"
)

func (m model) renderBots(width int) string {
	bots := m.set.Bots
	v := bots.ListStore().View()
	lines, ok := phaseLines(v, "bots")
	if !ok {
		return box(width, strings.Join(lines, "\n"))
	}

	half := max(width/2-1, 30)
	left := append(lines, m.renderBotList(v.Snapshot, half)...)
	right := m.renderBotDetail(half)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		box(half, strings.Join(left, "\n")),
		box(half, right))
}

func (m model) renderBotList(snap *domain.BotsSnapshot, width int) []string {
	lines := section("Bots", width)
	selected := m.set.Bots.Selected()
	for _, id := range snap.IDs() {
		b := snap.Bots[id]
		state := downStyle.Render("stopped")
		if b.Running {
			state = upStyle.Render("running")
		}
		row := fmt.Sprintf("%s %-22s %s", marker(id == selected), truncate(b.Name, 22), state)
		lines = append(lines, row)
	}

	bot, ok := m.set.Bots.SelectedBot()
	if !ok {
		lines = append(lines, "", warnStyle.Render(fmt.Sprintf("bot %q not found", selected)))
		return lines
	}

	lines = append(lines, "")
	lines = append(lines, section("Parameters", width)...)
	lines = append(lines, fmt.Sprintf("  %-22s %s", domain.ParamSymbol, domain.DisplaySymbol(fmt.Sprint(bot.Parameters[domain.ParamSymbol]))))
	for i, k := range bot.NumericParameterKeys() {
		val := fmt.Sprint(bot.Parameters[k])
		if k == domain.ParamCheckInterval {
			val = fmt.Sprintf("%d min", intents.CheckIntervalMinutes(bot.Parameters[k]))
		}
		if m.editing && k == m.editKey {
			val = selectedStyle.Render(m.input + "▏")
		}
		lines = append(lines, fmt.Sprintf("%s %-22s %s", marker(i == m.paramIdx), k, val))
	}
	if p, err := bot.TypedParameters(); err == nil {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("continue after trade: %t  max concurrent: %d",
			p.ContinueAfterTrade, p.MaxConcurrentTrades)))
	}
	return lines
}

func (m model) renderBotDetail(width int) string {
	bots := m.set.Bots
	dv := bots.DetailStore().View()

	var lines []string
	lines = append(lines, section("Performance", width)...)
	st, ok := bots.SelectedStatus()
	if !ok {
		dl, _ := phaseLines(dv, "bot status")
		lines = append(lines, dl...)
		return strings.Join(lines, "\n")
	}
	if dv.Phase == viewstate.PhaseErrored {
		lines = append(lines, errorStyle.Render("⚠ "+api.UserMessage(dv.Err)))
	}
	lines = append(lines,
		fmt.Sprintf("Win rate:     %.1f%%", st.Performance.WinRate()),
		fmt.Sprintf("Total trades: %d", st.Performance.TotalTrades),
		fmt.Sprintf("Daily P/L:    %s", signedMoney(st.DailyProfitLoss)),
	)
	if len(st.AvailableInstruments) > 0 {
		syms := make([]string, len(st.AvailableInstruments))
		for i, s := range st.AvailableInstruments {
			syms[i] = domain.DisplaySymbol(s)
		}
		lines = append(lines, dimStyle.Render(truncate("Instruments: "+strings.Join(syms, " "), width-4)))
	}

	lines = append(lines, "")
	lines = append(lines, section("Recent Updates", width)...)
	if len(st.RecentUpdates) == 0 {
		lines = append(lines, dimStyle.Render("none"))
	}
	for _, u := range st.RecentUpdates {
		lines = append(lines, truncate(u, width-4))
	}
	return strings.Join(lines, "\n")
}
