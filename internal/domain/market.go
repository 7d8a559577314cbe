package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Direction 价格方向
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// PriceAction 最近一次价格变化
type PriceAction struct {
	Direction     Direction `json:"direction"`
	ChangePercent float64   `json:"change_percent"`
}

// PriceQuote 单个品种的报价
type PriceQuote struct {
	Price  decimal.Decimal `json:"price"`
	Action *PriceAction    `json:"action,omitempty"`
}

// Arrow 方向箭头
func (q PriceQuote) Arrow() string {
	if q.Action == nil {
		return "→"
	}
	switch q.Action.Direction {
	case DirectionUp:
		return "↑"
	case DirectionDown:
		return "↓"
	default:
		return "→"
	}
}

// MarketPrices 行情表，last_update 与品种报价混在同一个对象里
type MarketPrices struct {
	Quotes     map[string]PriceQuote
	LastUpdate string
}

// Symbols 按字母序返回所有品种
func (m MarketPrices) Symbols() []string {
	out := make([]string, 0, len(m.Quotes))
	for s := range m.Quotes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// DisplaySymbol EUR_USD -> EUR/USD
func DisplaySymbol(symbol string) string {
	return strings.Replace(symbol, "_", "/", 1)
}

// AssetClass 根据 symbol 粗略判断资产类别（仅用于标签展示）
func AssetClass(symbol string) string {
	switch {
	case strings.HasPrefix(symbol, "BTC"), strings.HasPrefix(symbol, "ETH"), strings.HasPrefix(symbol, "SOL"):
		return "CRYPTO"
	case len(symbol) == 7 && symbol[3] == '_':
		return "FOREX"
	default:
		return "OTHER"
	}
}
