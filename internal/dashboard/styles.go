package dashboard

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/betbot/botdash/internal/api"
	"github.com/betbot/botdash/internal/domain"
	"github.com/betbot/botdash/internal/viewstate"
)

var (
	accent = lipgloss.Color("39")

	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(accent)
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(accent).Padding(0, 1)
	upStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	downStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
)

func box(width int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Render(content)
}

func section(title string, width int) []string {
	return []string{titleStyle.Render(title), strings.Repeat("─", max(width-4, 10))}
}

func signedStyle(positive bool) lipgloss.Style {
	if positive {
		return upStyle
	}
	return downStyle
}

func money(d decimal.Decimal) string {
	return "€" + d.StringFixed(2)
}

func signedMoney(d decimal.Decimal) string {
	return signedStyle(!d.IsNegative()).Render(money(d))
}

func signedPct(pct float64) string {
	return signedStyle(pct >= 0).Render(fmt.Sprintf("%+.2f%%", pct))
}

func trend(s string) string {
	switch domain.ParseTrend(s) {
	case domain.TrendUp:
		return upStyle.Render("↗")
	case domain.TrendDown:
		return downStyle.Render("↘")
	default:
		return dimStyle.Render("→")
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func marker(selected bool) string {
	if selected {
		return selectedStyle.Render("›")
	}
	return " "
}

// phaseLines 加载中/出错时的提示；ok=false 表示没有可渲染的快照
func phaseLines[T any](v viewstate.View[T], what string) (lines []string, ok bool) {
	switch {
	case v.Phase == viewstate.PhaseLoading:
		return []string{dimStyle.Render(fmt.Sprintf("Loading %s...", what))}, false
	case v.Phase == viewstate.PhaseErrored && !v.HasSnapshot:
		return []string{
			errorStyle.Render("Error: " + api.UserMessage(v.Err)),
			dimStyle.Render("press r to try again"),
		}, false
	}
	if v.Phase == viewstate.PhaseErrored {
		lines = append(lines, errorStyle.Render("⚠ "+api.UserMessage(v.Err)+" (showing last data)"))
	}
	if v.MutationErr != nil {
		lines = append(lines, errorStyle.Render("✗ "+api.UserMessage(v.MutationErr)))
	}
	return lines, true
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen || maxLen < 4 {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
