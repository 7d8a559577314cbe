package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/betbot/botdash/internal/domain"
)

func (m model) renderTrading(width int) string {
	v := m.set.Trading.Store().View()
	lines, ok := phaseLines(v, "trading status")
	if !ok {
		return box(width, strings.Join(lines, "\n"))
	}
	snap := v.Snapshot

	half := max(width/2-1, 30)
	left := []string{m.renderAccount(snap, half), "", m.renderStats(snap, half)}
	right := []string{m.renderPrices(snap, half)}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		box(half, strings.Join(left, "\n")),
		box(half, strings.Join(right, "\n")))
	positions := box(width, renderPositionTable(snap.Positions, -1, width))

	if len(lines) > 0 {
		return lipgloss.JoinVertical(lipgloss.Left, strings.Join(lines, "\n"), body, positions)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, positions)
}

func (m model) renderAccount(snap *domain.TradingSnapshot, width int) string {
	a := snap.Account
	lines := section("Account", width)
	lines = append(lines,
		fmt.Sprintf("Balance:  %s", money(a.Balance)),
		fmt.Sprintf("P/L:      %s", signedMoney(a.UnrealizedPL)),
		fmt.Sprintf("Total:    %s", money(a.TotalValue)),
	)
	if !a.TotalPortfolioValue.IsZero() || !a.CashAvailable.IsZero() {
		lines = append(lines,
			fmt.Sprintf("Cash:     %s", money(a.CashAvailable)),
			fmt.Sprintf("Portfolio:%s", money(a.TotalPortfolioValue)),
			fmt.Sprintf("Daily:    %s", signedPct(a.DailyReturnPct.InexactFloat64())),
		)
	}
	return strings.Join(lines, "\n")
}

func (m model) renderStats(snap *domain.TradingSnapshot, width int) string {
	st, ms := snap.TradingStats, snap.MarketStatus
	lines := section("Trading Stats", width)
	lines = append(lines, fmt.Sprintf("Win rate: %.1f%%  W:%d L:%d", st.WinRate, st.WinningTrades, st.LosingTrades))
	if ms.IsMarketOpen {
		lines = append(lines, upStyle.Render("Market: OPEN"))
	} else {
		lines = append(lines, downStyle.Render("Market: CLOSED"))
	}
	if len(ms.ActiveSymbols) > 0 {
		syms := make([]string, len(ms.ActiveSymbols))
		for i, s := range ms.ActiveSymbols {
			syms[i] = domain.DisplaySymbol(s)
		}
		lines = append(lines, dimStyle.Render(truncate("Active: "+strings.Join(syms, " "), width-4)))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderPrices(snap *domain.TradingSnapshot, width int) string {
	lines := section("Market Prices", width)
	syms := snap.MarketPrices.Symbols()
	if len(syms) == 0 {
		lines = append(lines, dimStyle.Render("no prices"))
	}
	sel := min(m.symbolIdx, max(len(syms)-1, 0))
	for i, s := range syms {
		q := snap.MarketPrices.Quotes[s]
		change := ""
		if q.Action != nil {
			change = signedPct(q.Action.ChangePercent)
		}
		row := fmt.Sprintf("%s %-8s %-6s %12s %s %s",
			marker(i == sel), domain.DisplaySymbol(s), domain.AssetClass(s), q.Price.String(), q.Arrow(), change)
		if i == sel {
			row = selectedStyle.Render(row)
		}
		lines = append(lines, row)
	}
	if last := snap.MarketPrices.LastUpdate; last != "" {
		lines = append(lines, dimStyle.Render("Last update: "+last))
	}
	return strings.Join(lines, "\n")
}
