package domain

import "strings"

// Trend 趋势方向，后端用 ↗ / ↘ 字符表示
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// ParseTrend 解析趋势字符串
func ParseTrend(s string) Trend {
	switch {
	case strings.Contains(s, "↗"):
		return TrendUp
	case strings.Contains(s, "↘"):
		return TrendDown
	default:
		return TrendNeutral
	}
}

// Metric 通用指标
type Metric struct {
	Value       float64 `json:"value"`
	Trend       string  `json:"trend"`
	PERatio     float64 `json:"pe_ratio,omitempty"`
	Performance float64 `json:"performance,omitempty"`
	Forecast    float64 `json:"forecast,omitempty"`
}

// TrendDirection 指标趋势
func (m Metric) TrendDirection() Trend { return ParseTrend(m.Trend) }

// CurrencyMetric 货币对行情
type CurrencyMetric struct {
	Value       float64 `json:"value"`
	Trend       string  `json:"trend"`
	Volatility  string  `json:"volatility"`
	DailyChange float64 `json:"daily_change"`
}

// CurrencyStrength 货币强弱（0-100）
type CurrencyStrength struct {
	Strength     float64 `json:"strength"`
	Trend        string  `json:"trend"`
	WeeklyChange float64 `json:"weekly_change"`
}

// CentralBank 央行利率
type CentralBank struct {
	Rate        float64 `json:"rate"`
	NextMeeting string  `json:"next_meeting"`
}

// EconomicEvent 即将公布的经济事件
type EconomicEvent struct {
	Event    string `json:"event"`
	Date     string `json:"date"`
	Current  any    `json:"current"`
	Expected any    `json:"expected"`
}

// MarketBreadth 市场宽度
type MarketBreadth struct {
	AdvanceDecline string `json:"advance_decline"`
}

// MarketData 股市概况
type MarketData struct {
	Indices       map[string]Metric `json:"indices"`
	Indicators    map[string]Metric `json:"indicators"`
	Volatility    map[string]Metric `json:"volatility"`
	MarketBreadth MarketBreadth     `json:"market_breadth"`
	Sectors       map[string]Metric `json:"sectors"`
	AIAnalysis    string            `json:"ai_analysis"`
}

// GlobalData 全球宏观
type GlobalData struct {
	Currencies       map[string]CurrencyMetric   `json:"currencies"`
	CurrencyStrength map[string]CurrencyStrength `json:"currency_strength"`
	Indices          map[string]Metric           `json:"indices"`
	Growth           map[string]Metric           `json:"growth"`
	Trade            map[string]Metric           `json:"trade"`
	CentralBanks     map[string]CentralBank      `json:"central_banks"`
}

// CommoditiesData 商品与加密
type CommoditiesData struct {
	Indices    map[string]Metric `json:"indices"`
	Growth     Metric            `json:"growth"`
	Inflation  Metric            `json:"inflation"`
	AIAnalysis string            `json:"ai_analysis"`
}

// StockMover 涨跌幅榜个股
type StockMover struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Sector string  `json:"sector"`
	Change float64 `json:"change"`
	Price  float64 `json:"price"`
	News   string  `json:"news"`
}

// Mover 外汇或加密异动
type Mover struct {
	Symbol     string  `json:"symbol"`
	Pair       string  `json:"pair"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Change     float64 `json:"change"`
	Volatility string  `json:"volatility"`
	Event      string  `json:"event"`
}

// DailyMovers 每日异动
type DailyMovers struct {
	Stocks struct {
		Gainers []StockMover `json:"gainers"`
		Losers  []StockMover `json:"losers"`
	} `json:"stocks"`
	Forex struct {
		Movers []Mover `json:"movers"`
	} `json:"forex"`
	Crypto struct {
		Movers []Mover `json:"movers"`
	} `json:"crypto"`
}

// NewsArticle 新闻条目
type NewsArticle struct {
	Headline    string         `json:"headline"`
	Summary     string         `json:"summary"`
	URL         string         `json:"url"`
	Source      string         `json:"source"`
	Timestamp   string         `json:"timestamp"`
	RelatedData map[string]any `json:"related_data,omitempty"`
}

// News 精选新闻与分类新闻
type News struct {
	FeaturedNews []NewsArticle            `json:"featured_news"`
	Categories   map[string][]NewsArticle `json:"categories"`
}

// NewsTopics 新闻分类，与情报页的标签一一对应
var NewsTopics = []string{"markets", "economy", "global", "commodities", "crypto"}

// Economy 经济指标
type Economy struct {
	GDP struct {
		GrowthRate Metric `json:"growth_rate"`
	} `json:"gdp"`
	Employment struct {
		UnemploymentRate Metric `json:"unemployment_rate"`
		WageGrowth       Metric `json:"wage_growth"`
	} `json:"employment"`
	Inflation map[string]Metric `json:"inflation"`
	Consumer  map[string]Metric `json:"consumer"`
}

// IntelligenceSnapshot GET /api/market-intelligence
type IntelligenceSnapshot struct {
	Stamp
	MarketData      MarketData      `json:"market_data"`
	NextEvents      []EconomicEvent `json:"next_events"`
	Analysis        string          `json:"analysis"`
	GlobalData      GlobalData      `json:"global_data"`
	DailyMovers     *DailyMovers    `json:"daily_movers"`
	News            News            `json:"news"`
	CommoditiesData CommoditiesData `json:"commodities_data"`
	Economy
	Timestamp  string `json:"timestamp"`
	NextUpdate string `json:"next_update"`
}

// Normalize 补齐空 map/切片
func (s *IntelligenceSnapshot) Normalize() {
	ensure := func(m *map[string]Metric) {
		if *m == nil {
			*m = map[string]Metric{}
		}
	}
	ensure(&s.MarketData.Indices)
	ensure(&s.MarketData.Indicators)
	ensure(&s.MarketData.Volatility)
	ensure(&s.MarketData.Sectors)
	ensure(&s.GlobalData.Indices)
	ensure(&s.GlobalData.Growth)
	ensure(&s.GlobalData.Trade)
	ensure(&s.CommoditiesData.Indices)
	ensure(&s.Inflation)
	ensure(&s.Consumer)
	if s.GlobalData.Currencies == nil {
		s.GlobalData.Currencies = map[string]CurrencyMetric{}
	}
	if s.GlobalData.CurrencyStrength == nil {
		s.GlobalData.CurrencyStrength = map[string]CurrencyStrength{}
	}
	if s.GlobalData.CentralBanks == nil {
		s.GlobalData.CentralBanks = map[string]CentralBank{}
	}
	if s.NextEvents == nil {
		s.NextEvents = []EconomicEvent{}
	}
	if s.News.FeaturedNews == nil {
		s.News.FeaturedNews = []NewsArticle{}
	}
	if s.News.Categories == nil {
		s.News.Categories = map[string][]NewsArticle{}
	}
	for _, topic := range NewsTopics {
		if s.News.Categories[topic] == nil {
			s.News.Categories[topic] = []NewsArticle{}
		}
	}
}

// NewsSnapshot GET /api/market-news/{topic}
type NewsSnapshot struct {
	Stamp
	Topic    string        `json:"topic"`
	Articles []NewsArticle `json:"articles"`
}

// Normalize 补齐空切片
func (s *NewsSnapshot) Normalize() {
	if s.Articles == nil {
		s.Articles = []NewsArticle{}
	}
}
