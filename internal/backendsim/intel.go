package backendsim

import (
	"fmt"
	"sort"
	"time"

	"github.com/betbot/botdash/internal/domain"
)

func trendArrow(pct float64) string {
	switch {
	case pct > 0:
		return "↗"
	case pct < 0:
		return "↘"
	default:
		return "→"
	}
}

func volatility(pct float64) string {
	switch a := max(pct, -pct); {
	case a > 1:
		return "high"
	case a > 0.3:
		return "medium"
	default:
		return "low"
	}
}

func article(topic, headline string, at time.Time) domain.NewsArticle {
	return domain.NewsArticle{
		Headline:  headline,
		Summary:   fmt.Sprintf("Simulated %s coverage generated by the local backend.", topic),
		URL:       "https://example.com/news/" + topic,
		Source:    "backend-sim",
		Timestamp: at.UTC().Format(time.RFC3339),
	}
}

func (s *Server) news(topic string, at time.Time) []domain.NewsArticle {
	switch topic {
	case "markets":
		return []domain.NewsArticle{
			article(topic, "Equities drift as traders await earnings", at),
			article(topic, "Tech leads sector rotation", at.Add(-time.Hour)),
		}
	case "economy":
		return []domain.NewsArticle{article(topic, "Inflation cools for a third month", at)}
	case "global":
		return []domain.NewsArticle{article(topic, "Central banks signal patience", at)}
	case "commodities":
		return []domain.NewsArticle{article(topic, "Oil steadies after supply data", at)}
	case "crypto":
		q := s.market.quotes["BTC_USD"]
		if q == nil {
			return []domain.NewsArticle{}
		}
		return []domain.NewsArticle{article(topic, fmt.Sprintf("Bitcoin trades near %s", q.price.StringFixed(0)), at)}
	default:
		return []domain.NewsArticle{}
	}
}

// intelligence 由当前行情拼出一份市场情报
func (s *Server) intelligence(at time.Time) domain.IntelligenceSnapshot {
	snap := domain.IntelligenceSnapshot{
		MarketData: domain.MarketData{
			Indices: map[string]domain.Metric{
				"S&P 500": {Value: 0.42, Trend: "↗", PERatio: 24.1},
				"NASDAQ":  {Value: 0.87, Trend: "↗", PERatio: 31.5},
				"DAX":     {Value: -0.15, Trend: "↘", PERatio: 14.2},
			},
			Indicators: map[string]domain.Metric{
				"Put/Call": {Value: 0.9, Trend: "→"},
			},
			Volatility:    map[string]domain.Metric{"VIX": {Value: 14.3, Trend: "↘"}},
			MarketBreadth: domain.MarketBreadth{AdvanceDecline: "1.4"},
			Sectors: map[string]domain.Metric{
				"technology": {Performance: 1.2, Trend: "↗"},
				"energy":     {Performance: -0.6, Trend: "↘"},
			},
		},
		NextEvents: []domain.EconomicEvent{
			{Event: "CPI", Date: at.Add(72 * time.Hour).UTC().Format(time.RFC3339), Current: 3.1, Expected: 3.0},
		},
		Analysis: "Markets are range-bound; FX volatility is subdued.",
		GlobalData: domain.GlobalData{
			Currencies:       map[string]domain.CurrencyMetric{},
			CurrencyStrength: map[string]domain.CurrencyStrength{"USD": {Strength: 62, Trend: "↗", WeeklyChange: 0.4}},
			Growth:           map[string]domain.Metric{"US": {Value: 2.1, Trend: "↗", Forecast: 1.9}},
			Trade:            map[string]domain.Metric{"US balance": {Value: -68.9, Trend: "↘"}},
			CentralBanks: map[string]domain.CentralBank{
				"FED": {Rate: 5.25, NextMeeting: at.Add(14 * 24 * time.Hour).UTC().Format(time.RFC3339)},
			},
		},
		DailyMovers: &domain.DailyMovers{},
		News: domain.News{
			FeaturedNews: s.news("markets", at),
			Categories:   map[string][]domain.NewsArticle{},
		},
		CommoditiesData: domain.CommoditiesData{
			Indices:   map[string]domain.Metric{"Gold": {Value: 0.3, Trend: "↗"}, "Oil": {Value: -1.1, Trend: "↘"}},
			Growth:    domain.Metric{Value: 1.5, Trend: "↗"},
			Inflation: domain.Metric{Value: 2.8, Trend: "↘"},
		},
		Timestamp:  at.UTC().Format(time.RFC3339),
		NextUpdate: at.Add(5 * time.Minute).UTC().Format(time.RFC3339),
	}
	snap.GDP.GrowthRate = domain.Metric{Value: 2.1, Trend: "↗"}
	snap.Employment.UnemploymentRate = domain.Metric{Value: 3.9, Trend: "→"}
	snap.Employment.WageGrowth = domain.Metric{Value: 4.1, Trend: "↘"}
	snap.Inflation = map[string]domain.Metric{"CPI": {Value: 3.1, Trend: "↘"}, "Core CPI": {Value: 3.6, Trend: "↘"}}
	snap.Consumer = map[string]domain.Metric{"Sentiment": {Value: 77.2, Trend: "↗"}}

	for _, topic := range domain.NewsTopics {
		snap.News.Categories[topic] = s.news(topic, at)
	}

	var movers []domain.Mover
	for _, sym := range s.market.symbols() {
		q := s.market.quotes[sym]
		pct := q.dailyChangePct()
		if domain.AssetClass(sym) == "FOREX" {
			snap.GlobalData.Currencies[domain.DisplaySymbol(sym)] = domain.CurrencyMetric{
				Value:       q.price.InexactFloat64(),
				Trend:       trendArrow(pct),
				Volatility:  volatility(pct),
				DailyChange: pct,
			}
		}
		movers = append(movers, domain.Mover{
			Symbol:     sym,
			Pair:       domain.DisplaySymbol(sym),
			Name:       sym,
			Price:      q.price.InexactFloat64(),
			Change:     pct,
			Volatility: volatility(pct),
		})
	}
	sort.Slice(movers, func(i, j int) bool { return max(movers[i].Change, -movers[i].Change) > max(movers[j].Change, -movers[j].Change) })
	for _, m := range movers {
		if domain.AssetClass(m.Symbol) == "CRYPTO" {
			snap.DailyMovers.Crypto.Movers = append(snap.DailyMovers.Crypto.Movers, m)
		} else {
			snap.DailyMovers.Forex.Movers = append(snap.DailyMovers.Forex.Movers, m)
		}
	}
	snap.DailyMovers.Stocks.Gainers = []domain.StockMover{{Symbol: "NVDA", Name: "NVIDIA", Sector: "technology", Change: 3.2, Price: 905.1}}
	snap.DailyMovers.Stocks.Losers = []domain.StockMover{{Symbol: "XOM", Name: "Exxon Mobil", Sector: "energy", Change: -1.4, Price: 117.3}}
	return snap
}
