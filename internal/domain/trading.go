package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Account 账户概览（新旧两种后端字段都保留）
type Account struct {
	Balance             decimal.Decimal `json:"balance"`
	UnrealizedPL        decimal.Decimal `json:"unrealized_pl"`
	TotalValue          decimal.Decimal `json:"total_value"`
	CashAvailable       decimal.Decimal `json:"cash_available"`
	TotalPortfolioValue decimal.Decimal `json:"total_portfolio_value"`
	DailyReturnPct      decimal.Decimal `json:"daily_return_pct"`
}

// TradingStats 交易统计
type TradingStats struct {
	WinRate       float64 `json:"win_rate"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
}

// MarketStatus 市场开闭状态
type MarketStatus struct {
	IsMarketOpen  bool     `json:"is_market_open"`
	ActiveSymbols []string `json:"active_symbols"`
}

// TradingSnapshot GET /trading-status
type TradingSnapshot struct {
	Stamp
	Account      Account      `json:"account"`
	Positions    PositionMap  `json:"positions"`
	MarketPrices MarketPrices `json:"market_prices"`
	TradingStats TradingStats `json:"trading_stats"`
	MarketStatus MarketStatus `json:"market_status"`
}

// Normalize 补齐缺省字段，渲染层不需要再做 nil 判断
func (s *TradingSnapshot) Normalize() {
	s.Positions = s.Positions.normalize()
	if s.MarketPrices.Quotes == nil {
		s.MarketPrices.Quotes = map[string]PriceQuote{}
	}
	if s.MarketStatus.ActiveSymbols == nil {
		s.MarketStatus.ActiveSymbols = []string{}
	}
}

// UnmarshalJSON market_prices 里 last_update 与各品种报价同级
func (m *MarketPrices) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Quotes = make(map[string]PriceQuote, len(raw))
	for key, value := range raw {
		if key == "last_update" {
			if err := json.Unmarshal(value, &m.LastUpdate); err != nil {
				return err
			}
			continue
		}
		var q PriceQuote
		if err := json.Unmarshal(value, &q); err != nil {
			// 非报价字段直接跳过
			continue
		}
		m.Quotes[key] = q
	}
	return nil
}

// MarshalJSON 与 UnmarshalJSON 对称，backendsim 需要按原格式输出
func (m MarketPrices) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Quotes)+1)
	for k, v := range m.Quotes {
		out[k] = v
	}
	if m.LastUpdate != "" {
		out["last_update"] = m.LastUpdate
	}
	return json.Marshal(out)
}
