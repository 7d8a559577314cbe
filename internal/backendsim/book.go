package backendsim

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/betbot/botdash/internal/domain"
)

var hundred = decimal.NewFromInt(100)

type holding struct {
	quantity decimal.Decimal
	entry    decimal.Decimal
}

// book 现金 + 多头持仓，卖出只能减仓
type book struct {
	cash       decimal.Decimal
	startValue decimal.Decimal
	holdings   map[string]*holding
	wins       int
	losses     int
}

func newBook(cash decimal.Decimal) *book {
	return &book{cash: cash, startValue: cash, holdings: map[string]*holding{}}
}

type tradeError struct {
	status  int
	message string
}

func (e *tradeError) Error() string { return e.message }

func (b *book) buy(symbol string, qty, price decimal.Decimal) error {
	cost := qty.Mul(price)
	if cost.GreaterThan(b.cash) {
		return &tradeError{status: http.StatusOK, message: "insufficient funds"}
	}
	b.cash = b.cash.Sub(cost)
	h, ok := b.holdings[symbol]
	if !ok {
		b.holdings[symbol] = &holding{quantity: qty, entry: price}
		return nil
	}
	total := h.quantity.Add(qty)
	h.entry = h.quantity.Mul(h.entry).Add(cost).Div(total)
	h.quantity = total
	return nil
}

func (b *book) sell(symbol string, qty, price decimal.Decimal) error {
	h, ok := b.holdings[symbol]
	if !ok || h.quantity.LessThan(qty) {
		return &tradeError{status: http.StatusOK, message: fmt.Sprintf("insufficient %s position", symbol)}
	}
	b.realize(h, qty, price)
	h.quantity = h.quantity.Sub(qty)
	if h.quantity.IsZero() {
		delete(b.holdings, symbol)
	}
	return nil
}

func (b *book) close(symbol string, price decimal.Decimal) error {
	h, ok := b.holdings[symbol]
	if !ok {
		return &tradeError{status: http.StatusNotFound, message: fmt.Sprintf("no open position for %s", symbol)}
	}
	b.realize(h, h.quantity, price)
	delete(b.holdings, symbol)
	return nil
}

func (b *book) realize(h *holding, qty, price decimal.Decimal) {
	b.cash = b.cash.Add(qty.Mul(price))
	if price.GreaterThan(h.entry) {
		b.wins++
	} else {
		b.losses++
	}
}

func (b *book) positions(m *market) domain.PositionMap {
	out := make(domain.PositionMap, len(b.holdings))
	for sym, h := range b.holdings {
		cur, _ := m.price(sym)
		pl := cur.Sub(h.entry).Mul(h.quantity)
		pct := decimal.Zero
		if !h.entry.IsZero() {
			pct = cur.Sub(h.entry).Div(h.entry).Mul(hundred).Round(4)
		}
		out[sym] = domain.Position{
			Symbol:       sym,
			Quantity:     h.quantity.InexactFloat64(),
			EntryPrice:   h.entry.Round(5),
			CurrentPrice: cur,
			ProfitPct:    pct,
			PLEuro:       pl.Round(2),
			UnrealizedPL: pl.Round(2),
		}
	}
	return out
}

func (b *book) account(m *market) domain.Account {
	unrealized := decimal.Zero
	marketValue := decimal.Zero
	for sym, h := range b.holdings {
		cur, _ := m.price(sym)
		marketValue = marketValue.Add(cur.Mul(h.quantity))
		unrealized = unrealized.Add(cur.Sub(h.entry).Mul(h.quantity))
	}
	total := b.cash.Add(marketValue)
	ret := decimal.Zero
	if !b.startValue.IsZero() {
		ret = total.Sub(b.startValue).Div(b.startValue).Mul(hundred).Round(4)
	}
	return domain.Account{
		Balance:             b.cash.Round(2),
		UnrealizedPL:        unrealized.Round(2),
		TotalValue:          total.Round(2),
		CashAvailable:       b.cash.Round(2),
		TotalPortfolioValue: total.Round(2),
		DailyReturnPct:      ret,
	}
}

func (b *book) stats() domain.TradingStats {
	total := b.wins + b.losses
	rate := 0.0
	if total > 0 {
		rate = float64(b.wins) / float64(total) * 100
	}
	return domain.TradingStats{WinRate: rate, WinningTrades: b.wins, LosingTrades: b.losses}
}
