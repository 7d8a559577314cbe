package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Position 持仓（只读，生命周期完全由后端管理；客户端只能发起平仓意图）
type Position struct {
	Symbol       string          `json:"symbol"`        // 交易品种，唯一键
	Quantity     float64         `json:"quantity"`      // 持仓数量
	EntryPrice   decimal.Decimal `json:"entry_price"`   // 入场价格
	CurrentPrice decimal.Decimal `json:"current_price"` // 当前价格
	ProfitPct    decimal.Decimal `json:"profit_pct"`    // 盈亏百分比
	PLEuro       decimal.Decimal `json:"pl_euro"`       // 盈亏（欧元）
	UnrealizedPL decimal.Decimal `json:"unrealized_pl"` // 未实现盈亏
}

// IsProfitable 是否盈利（profit_pct >= 0）
func (p Position) IsProfitable() bool {
	return !p.ProfitPct.IsNegative()
}

// PositionMap 以 symbol 为键的持仓表
type PositionMap map[string]Position

// normalize 补齐 symbol 字段（后端只在 map 键里给出 symbol）
func (m PositionMap) normalize() PositionMap {
	if m == nil {
		return PositionMap{}
	}
	for symbol, p := range m {
		if p.Symbol == "" {
			p.Symbol = symbol
			m[symbol] = p
		}
	}
	return m
}

// Sorted 按 symbol 排序返回，保证渲染顺序稳定
func (m PositionMap) Sorted() []Position {
	out := make([]Position, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// PositionsSnapshot GET /api/positions
type PositionsSnapshot struct {
	Stamp
	Status    ResponseStatus `json:"status"`
	Positions PositionMap    `json:"positions"`
}

// Normalize 补齐缺省字段
func (s *PositionsSnapshot) Normalize() {
	s.Positions = s.Positions.normalize()
}
