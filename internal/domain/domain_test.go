package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradingSnapshot_Decode(t *testing.T) {
	body := `{
		"account": {"balance": 10000.5, "unrealized_pl": -12.25, "total_value": 9988.25},
		"positions": {"EUR_USD": {"quantity": 1000, "entry_price": 1.0812, "current_price": 1.0830, "profit_pct": 0.17, "pl_euro": 1.8}},
		"market_prices": {
			"EUR_USD": {"price": 1.0830, "action": {"direction": "up", "change_percent": 0.02}},
			"GBP_USD": {"price": 1.2644},
			"last_update": "2024-05-01T12:00:00Z"
		},
		"trading_stats": {"win_rate": 55.5, "winning_trades": 5, "losing_trades": 4},
		"market_status": {"is_market_open": true, "active_symbols": ["EUR_USD"]}
	}`

	var snap TradingSnapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	snap.Normalize()

	assert.True(t, snap.Account.Balance.Equal(decimal.RequireFromString("10000.5")))
	assert.Equal(t, "2024-05-01T12:00:00Z", snap.MarketPrices.LastUpdate)
	assert.Equal(t, []string{"EUR_USD", "GBP_USD"}, snap.MarketPrices.Symbols())
	assert.Equal(t, "↑", snap.MarketPrices.Quotes["EUR_USD"].Arrow())
	assert.Equal(t, "→", snap.MarketPrices.Quotes["GBP_USD"].Arrow())

	pos := snap.Positions["EUR_USD"]
	assert.Equal(t, "EUR_USD", pos.Symbol)
	assert.True(t, pos.IsProfitable())
	assert.True(t, snap.MarketStatus.IsMarketOpen)
}

func TestTradingSnapshot_NormalizeEmpty(t *testing.T) {
	var snap TradingSnapshot
	require.NoError(t, json.Unmarshal([]byte(`{}`), &snap))
	snap.Normalize()

	assert.NotNil(t, snap.Positions)
	assert.NotNil(t, snap.MarketPrices.Quotes)
	assert.NotNil(t, snap.MarketStatus.ActiveSymbols)
	assert.Empty(t, snap.Positions.Sorted())
}

func TestMarketPrices_RoundTripKeepsLastUpdate(t *testing.T) {
	in := MarketPrices{
		Quotes:     map[string]PriceQuote{"EUR_USD": {Price: decimal.RequireFromString("1.1")}},
		LastUpdate: "now",
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out MarketPrices
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "now", out.LastUpdate)
	assert.Len(t, out.Quotes, 1)
}

func TestBotsSnapshot_NormalizeDefaults(t *testing.T) {
	body := `{"bots": {
		"ema_strategy": {"name": "EMA", "running": true, "parameters": {"check_interval": 240}, "status": {"available_instruments": ["BTC_USD", "EUR_USD"]}},
		"rsi_strategy": {"running": false}
	}}`
	var snap BotsSnapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	snap.Normalize()

	assert.Equal(t, []string{"ema_strategy", "rsi_strategy"}, snap.IDs())

	ema := snap.Bots["ema_strategy"]
	assert.Equal(t, "ema_strategy", ema.ID)
	assert.Equal(t, "BTC_USD", ema.Parameters[ParamSymbol])

	rsi := snap.Bots["rsi_strategy"]
	assert.Equal(t, "rsi_strategy", rsi.Name)
	assert.Equal(t, DefaultSymbol, rsi.Parameters[ParamSymbol])
	assert.Equal(t, DefaultCheckInterval, rsi.Parameters[ParamCheckInterval])
}

func TestBotDescriptor_TypedParameters(t *testing.T) {
	bot := BotDescriptor{Parameters: map[string]any{
		"symbol":                "EUR_USD",
		"check_interval":        float64(300),
		"continue_after_trade":  true,
		"max_concurrent_trades": "2",
		"ema_fast":              float64(12),
	}}

	params, err := bot.TypedParameters()
	require.NoError(t, err)
	assert.Equal(t, "EUR_USD", params.Symbol)
	assert.Equal(t, 300, params.CheckInterval)
	assert.True(t, params.ContinueAfterTrade)
	assert.Equal(t, 2, params.MaxConcurrentTrades)
	assert.Equal(t, float64(12), params.Extra["ema_fast"])

	assert.Equal(t, []string{"check_interval", "ema_fast"}, bot.NumericParameterKeys())
}

func TestPerformance_WinRate(t *testing.T) {
	assert.Equal(t, 0.0, Performance{}.WinRate())
	assert.InDelta(t, 60.0, Performance{TotalTrades: 5, WinningTrades: 3}.WinRate(), 1e-9)
}

func TestToggleActionFor(t *testing.T) {
	assert.Equal(t, ActionStop, ToggleActionFor(true))
	assert.Equal(t, ActionStart, ToggleActionFor(false))
}

func TestIntelligenceSnapshot_Normalize(t *testing.T) {
	body := `{"market_data": {"indices": {"SPX": {"value": 1.2, "trend": "↗"}}}, "gdp": {"growth_rate": {"value": 2.1, "trend": "↘"}}, "timestamp": "t0"}`
	var snap IntelligenceSnapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	snap.Normalize()

	assert.Equal(t, TrendUp, snap.MarketData.Indices["SPX"].TrendDirection())
	assert.Equal(t, TrendDown, snap.GDP.GrowthRate.TrendDirection())
	assert.NotNil(t, snap.GlobalData.Currencies)
	for _, topic := range NewsTopics {
		assert.NotNil(t, snap.News.Categories[topic], topic)
	}
	assert.Nil(t, snap.DailyMovers)
}

func TestSymbolHelpers(t *testing.T) {
	assert.Equal(t, "EUR/USD", DisplaySymbol("EUR_USD"))
	assert.Equal(t, "FOREX", AssetClass("EUR_USD"))
	assert.Equal(t, "CRYPTO", AssetClass("BTC_USD"))
	assert.Equal(t, 60, ClampInt(5, 60, 604800))
	assert.NoError(t, SideBuy.Validate())
	assert.Error(t, Side("hold").Validate())
}
