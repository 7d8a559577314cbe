package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/betbot/botdash/internal/domain"
)

func (m model) renderIntelligence(width int) string {
	in := m.set.Intelligence
	v := in.Store().View()
	lines, ok := phaseLines(v, "market intelligence")
	if !ok {
		return box(width, strings.Join(lines, "\n"))
	}
	snap := v.Snapshot

	var tabs []string
	for i, name := range intelSections {
		if i == m.intelTab {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, tabStyle.Render(name))
		}
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, tabs...), "")

	switch m.intelTab {
	case 0:
		lines = append(lines, renderOverview(snap, width)...)
	case 1:
		lines = append(lines, renderMarkets(snap, width)...)
	case 2:
		lines = append(lines, renderEconomy(snap, width)...)
	case 3:
		lines = append(lines, renderGlobal(snap, width)...)
	case 4:
		lines = append(lines, renderCommodities(snap, width)...)
	}

	lines = append(lines, "", dimStyle.Render(fmt.Sprintf("Last updated: %s  Next update: %s",
		orDash(snap.Timestamp), orDash(snap.NextUpdate))))

	out := box(width, strings.Join(lines, "\n"))
	if in.Topic() != "" {
		out = lipgloss.JoinVertical(lipgloss.Left, out, box(width, m.renderNews(width)))
	}
	return out
}

func (m model) renderNews(width int) string {
	in := m.set.Intelligence
	v := in.NewsStore().View()
	lines := section("News: "+in.Topic(), width)
	pl, ok := phaseLines(v, in.Topic()+" news")
	lines = append(lines, pl...)
	if !ok {
		return strings.Join(lines, "\n")
	}
	if len(v.Snapshot.Articles) == 0 {
		lines = append(lines, dimStyle.Render("no articles"))
	}
	lines = append(lines, articleLines(v.Snapshot.Articles, 8, width)...)
	return strings.Join(lines, "\n")
}

func articleLines(articles []domain.NewsArticle, limit, width int) []string {
	var lines []string
	for _, a := range articles[:min(limit, len(articles))] {
		lines = append(lines, "• "+truncate(a.Headline, width-6))
		if a.Source != "" || a.Timestamp != "" {
			lines = append(lines, dimStyle.Render("  "+strings.TrimSpace(a.Source+" "+a.Timestamp)))
		}
	}
	return lines
}

func metricLines(title string, metrics map[string]domain.Metric, width int) []string {
	if len(metrics) == 0 {
		return nil
	}
	lines := section(title, width)
	for _, k := range sortedKeys(metrics) {
		mt := metrics[k]
		row := fmt.Sprintf("  %-24s %12.2f %s", truncate(k, 24), mt.Value, trend(mt.Trend))
		if mt.Performance != 0 {
			row += " " + signedPct(mt.Performance)
		}
		if mt.PERatio != 0 {
			row += dimStyle.Render(fmt.Sprintf(" P/E %.1f", mt.PERatio))
		}
		lines = append(lines, row)
	}
	return append(lines, "")
}

func renderOverview(snap *domain.IntelligenceSnapshot, width int) []string {
	var lines []string
	if snap.Analysis != "" {
		lines = append(lines, section("Analysis", width)...)
		lines = append(lines, truncate(snap.Analysis, (width-4)*3), "")
	}
	lines = append(lines, metricLines("Indices", snap.MarketData.Indices, width)...)

	lines = append(lines, section("Next Events", width)...)
	if len(snap.NextEvents) == 0 {
		lines = append(lines, dimStyle.Render("none scheduled"))
	}
	for _, e := range snap.NextEvents {
		lines = append(lines, fmt.Sprintf("  %-12s %-30s cur %v exp %v",
			e.Date, truncate(e.Event, 30), orDashAny(e.Current), orDashAny(e.Expected)))
	}
	lines = append(lines, "")

	lines = append(lines, section("Featured News", width)...)
	if len(snap.News.FeaturedNews) == 0 {
		lines = append(lines, dimStyle.Render("no featured news"))
	}
	lines = append(lines, articleLines(snap.News.FeaturedNews, 3, width)...)

	if dm := snap.DailyMovers; dm != nil {
		lines = append(lines, "")
		lines = append(lines, section("Daily Movers", width)...)
		for _, s := range dm.Stocks.Gainers {
			lines = append(lines, fmt.Sprintf("  %-8s %-20s %s", s.Symbol, truncate(s.Name, 20), signedPct(s.Change)))
		}
		for _, s := range dm.Stocks.Losers {
			lines = append(lines, fmt.Sprintf("  %-8s %-20s %s", s.Symbol, truncate(s.Name, 20), signedPct(s.Change)))
		}
	}
	return lines
}

func renderMarkets(snap *domain.IntelligenceSnapshot, width int) []string {
	md := snap.MarketData
	var lines []string
	lines = append(lines, metricLines("Indices", md.Indices, width)...)
	lines = append(lines, metricLines("Indicators", md.Indicators, width)...)
	lines = append(lines, metricLines("Volatility", md.Volatility, width)...)
	lines = append(lines, metricLines("Sectors", md.Sectors, width)...)
	if md.MarketBreadth.AdvanceDecline != "" {
		lines = append(lines, fmt.Sprintf("Advance/Decline: %s", md.MarketBreadth.AdvanceDecline), "")
	}
	if md.AIAnalysis != "" {
		lines = append(lines, section("AI Analysis", width)...)
		lines = append(lines, truncate(md.AIAnalysis, (width-4)*3))
	}
	return lines
}

func renderEconomy(snap *domain.IntelligenceSnapshot, width int) []string {
	lines := section("Growth & Employment", width)
	lines = append(lines,
		fmt.Sprintf("  %-24s %12.2f %s", "GDP growth", snap.GDP.GrowthRate.Value, trend(snap.GDP.GrowthRate.Trend)),
		fmt.Sprintf("  %-24s %12.2f %s", "Unemployment", snap.Employment.UnemploymentRate.Value, trend(snap.Employment.UnemploymentRate.Trend)),
		fmt.Sprintf("  %-24s %12.2f %s", "Wage growth", snap.Employment.WageGrowth.Value, trend(snap.Employment.WageGrowth.Trend)),
		"",
	)
	lines = append(lines, metricLines("Inflation", snap.Inflation, width)...)
	lines = append(lines, metricLines("Consumer", snap.Consumer, width)...)
	return lines
}

func renderGlobal(snap *domain.IntelligenceSnapshot, width int) []string {
	g := snap.GlobalData
	var lines []string
	if len(g.Currencies) > 0 {
		lines = append(lines, section("Currencies", width)...)
		for _, k := range sortedKeys(g.Currencies) {
			c := g.Currencies[k]
			lines = append(lines, fmt.Sprintf("  %-10s %10.4f %s %s %s",
				domain.DisplaySymbol(k), c.Value, trend(c.Trend), signedPct(c.DailyChange), dimStyle.Render(c.Volatility)))
		}
		lines = append(lines, "")
	}
	if len(g.CurrencyStrength) > 0 {
		lines = append(lines, section("Currency Strength", width)...)
		for _, k := range sortedKeys(g.CurrencyStrength) {
			c := g.CurrencyStrength[k]
			bar := strings.Repeat("█", int(c.Strength/10))
			lines = append(lines, fmt.Sprintf("  %-5s %-10s %5.1f %s %s", k, bar, c.Strength, trend(c.Trend), signedPct(c.WeeklyChange)))
		}
		lines = append(lines, "")
	}
	if len(g.CentralBanks) > 0 {
		lines = append(lines, section("Central Banks", width)...)
		for _, k := range sortedKeys(g.CentralBanks) {
			b := g.CentralBanks[k]
			lines = append(lines, fmt.Sprintf("  %-8s %5.2f%%  next %s", k, b.Rate, orDash(b.NextMeeting)))
		}
		lines = append(lines, "")
	}
	lines = append(lines, metricLines("Global Indices", g.Indices, width)...)
	lines = append(lines, metricLines("Growth", g.Growth, width)...)
	lines = append(lines, metricLines("Trade", g.Trade, width)...)
	if dm := snap.DailyMovers; dm != nil && len(dm.Forex.Movers) > 0 {
		lines = append(lines, section("Forex Movers", width)...)
		for _, mv := range dm.Forex.Movers {
			lines = append(lines, fmt.Sprintf("  %-10s %s %s", orDash(mv.Pair), signedPct(mv.Change), dimStyle.Render(mv.Event)))
		}
	}
	return lines
}

func renderCommodities(snap *domain.IntelligenceSnapshot, width int) []string {
	c := snap.CommoditiesData
	lines := metricLines("Commodities", c.Indices, width)
	lines = append(lines,
		fmt.Sprintf("  %-24s %12.2f %s", "Growth", c.Growth.Value, trend(c.Growth.Trend)),
		fmt.Sprintf("  %-24s %12.2f %s", "Inflation", c.Inflation.Value, trend(c.Inflation.Trend)),
		"",
	)
	if dm := snap.DailyMovers; dm != nil && len(dm.Crypto.Movers) > 0 {
		lines = append(lines, section("Crypto", width)...)
		for _, mv := range dm.Crypto.Movers {
			lines = append(lines, fmt.Sprintf("  %-8s %-14s %12.2f %s", mv.Symbol, truncate(mv.Name, 14), mv.Price, signedPct(mv.Change)))
		}
		lines = append(lines, "")
	}
	if c.AIAnalysis != "" {
		lines = append(lines, section("AI Analysis", width)...)
		lines = append(lines, truncate(c.AIAnalysis, (width-4)*3))
	}
	return lines
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func orDashAny(v any) string {
	if v == nil {
		return "-"
	}
	return orDash(fmt.Sprint(v))
}
