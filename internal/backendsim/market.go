package backendsim

import (
	"math/rand/v2"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/betbot/botdash/internal/domain"
)

type quote struct {
	price     decimal.Decimal
	prev      decimal.Decimal
	dayOpen   decimal.Decimal
	changePct float64
}

type market struct {
	quotes map[string]*quote
}

func newMarket(opening map[string]decimal.Decimal) *market {
	m := &market{quotes: make(map[string]*quote, len(opening))}
	for sym, p := range opening {
		m.quotes[sym] = &quote{price: p, prev: p, dayOpen: p}
	}
	return m
}

func (m *market) symbols() []string {
	out := make([]string, 0, len(m.quotes))
	for s := range m.quotes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (m *market) price(symbol string) (decimal.Decimal, bool) {
	q, ok := m.quotes[symbol]
	if !ok {
		return decimal.Zero, false
	}
	return q.price, true
}

func (m *market) set(symbol string, price decimal.Decimal) {
	q, ok := m.quotes[symbol]
	if !ok {
		m.quotes[symbol] = &quote{price: price, prev: price, dayOpen: price}
		return
	}
	q.move(price)
}

// step 每个品种随机游走，单步幅度不超过 ±0.2%
func (m *market) step(rnd *rand.Rand) {
	for _, sym := range m.symbols() {
		q := m.quotes[sym]
		pct := (rnd.Float64()*2 - 1) * 0.002
		q.move(q.price.Mul(decimal.NewFromFloat(1 + pct)).Round(5))
	}
}

func (q *quote) move(price decimal.Decimal) {
	q.prev = q.price
	q.price = price
	if q.prev.IsZero() {
		q.changePct = 0
		return
	}
	q.changePct = price.Sub(q.prev).Div(q.prev).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

func (q *quote) direction() domain.Direction {
	switch q.price.Cmp(q.prev) {
	case 1:
		return domain.DirectionUp
	case -1:
		return domain.DirectionDown
	default:
		return domain.DirectionNeutral
	}
}

func (q *quote) dailyChangePct() float64 {
	if q.dayOpen.IsZero() {
		return 0
	}
	return q.price.Sub(q.dayOpen).Div(q.dayOpen).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

func (m *market) prices(lastUpdate string) domain.MarketPrices {
	out := domain.MarketPrices{Quotes: make(map[string]domain.PriceQuote, len(m.quotes)), LastUpdate: lastUpdate}
	for sym, q := range m.quotes {
		out.Quotes[sym] = domain.PriceQuote{
			Price:  q.price,
			Action: &domain.PriceAction{Direction: q.direction(), ChangePercent: q.changePct},
		}
	}
	return out
}
