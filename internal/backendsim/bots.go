package backendsim

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/betbot/botdash/internal/domain"
)

const maxRecentUpdates = 10

type bot struct {
	id          string
	name        string
	running     bool
	parameters  map[string]any
	instruments []string
	perf        domain.Performance
	dailyPL     decimal.Decimal
	updates     []string
}

func defaultBots(instruments []string) map[string]*bot {
	mk := func(id, name string, running bool, extra map[string]any) *bot {
		params := map[string]any{
			domain.ParamSymbol:              domain.DefaultSymbol,
			domain.ParamCheckInterval:       domain.DefaultCheckInterval,
			domain.ParamContinueAfterTrade:  true,
			domain.ParamMaxConcurrentTrades: 1,
		}
		maps.Copy(params, extra)
		return &bot{id: id, name: name, running: running, parameters: params, instruments: instruments}
	}
	return map[string]*bot{
		"ema_strategy":  mk("ema_strategy", "EMA Crossover", true, map[string]any{"fast_period": 12, "slow_period": 26}),
		"rsi_strategy":  mk("rsi_strategy", "RSI Reversal", false, map[string]any{"rsi_period": 14, "oversold": 30, "overbought": 70}),
		"macd_strategy": mk("macd_strategy", "MACD Momentum", false, map[string]any{"signal_period": 9}),
	}
}

func (b *bot) note(at time.Time, format string, args ...any) {
	line := at.Format("15:04:05") + " " + fmt.Sprintf(format, args...)
	b.updates = append([]string{line}, b.updates...)
	if len(b.updates) > maxRecentUpdates {
		b.updates = b.updates[:maxRecentUpdates]
	}
}

// observe 运行中的 bot 偶尔"成交"一笔，用来让绩效数据动起来
func (b *bot) observe(rnd *rand.Rand, at time.Time) {
	if rnd.IntN(5) != 0 {
		return
	}
	b.perf.TotalTrades++
	pl := decimal.NewFromFloat((rnd.Float64()*2 - 0.9) * 25).Round(2)
	if pl.IsPositive() {
		b.perf.WinningTrades++
	}
	b.dailyPL = b.dailyPL.Add(pl)
	b.note(at, "%s trade closed, P/L %s", b.parameters[domain.ParamSymbol], pl.StringFixed(2))
}

func (b *bot) status() domain.BotStatus {
	return domain.BotStatus{
		Performance:          b.perf,
		DailyProfitLoss:      b.dailyPL,
		RecentUpdates:        append([]string{}, b.updates...),
		AvailableInstruments: append([]string{}, b.instruments...),
	}
}

func (b *bot) descriptor() domain.BotDescriptor {
	st := b.status()
	return domain.BotDescriptor{
		ID:         b.id,
		Name:       b.name,
		Running:    b.running,
		Parameters: maps.Clone(b.parameters),
		Status:     &st,
	}
}
