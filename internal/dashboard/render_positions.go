package dashboard

import (
	"fmt"
	"strings"

	"github.com/betbot/botdash/internal/domain"
)

func (m model) renderPositions(width int) string {
	v := m.set.Positions.Store().View()
	lines, ok := phaseLines(v, "positions")
	if ok {
		sel := min(m.positionIdx, max(len(v.Snapshot.Positions)-1, 0))
		lines = append(lines, renderPositionTable(v.Snapshot.Positions, sel, width))
	}
	return box(width, strings.Join(lines, "\n"))
}

// renderPositionTable selected<0 不高亮任何行
func renderPositionTable(positions domain.PositionMap, selected, width int) string {
	lines := section("Open Positions", width)
	if len(positions) == 0 {
		lines = append(lines, dimStyle.Render("No open positions"))
		return strings.Join(lines, "\n")
	}
	lines = append(lines, dimStyle.Render(fmt.Sprintf("  %-9s %12s %12s %12s %9s %12s",
		"Symbol", "Qty", "Entry", "Current", "P/L %", "P/L €")))
	for i, p := range positions.Sorted() {
		style := signedStyle(p.IsProfitable())
		row := fmt.Sprintf("%-9s %12g %12s %12s %9s %12s",
			domain.DisplaySymbol(p.Symbol), p.Quantity, p.EntryPrice.String(), p.CurrentPrice.String(),
			p.ProfitPct.StringFixed(2)+"%", money(p.PLEuro))
		lines = append(lines, marker(i == selected)+" "+style.Render(row))
	}
	return strings.Join(lines, "\n")
}
