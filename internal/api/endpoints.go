package api

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/betbot/botdash/internal/domain"
)

// Backend is the typed surface of the trading API.
// The status endpoint lives on the status host; everything else on the trading host.
type Backend struct {
	status  *Client
	trading *Client
}

// NewBackend tradingURL may equal statusURL.
func NewBackend(statusURL, tradingURL string, timeout time.Duration) *Backend {
	return &Backend{
		status:  NewClient(statusURL, timeout),
		trading: NewClient(tradingURL, timeout),
	}
}

// TradingStatus GET /trading-status
func (b *Backend) TradingStatus(ctx context.Context) (*domain.TradingSnapshot, error) {
	var snap domain.TradingSnapshot
	if err := b.status.Get(ctx, "/trading-status", &snap); err != nil {
		return nil, errors.Wrap(err, "trading status")
	}
	snap.Normalize()
	return &snap, nil
}

// Bots GET /api/bots
func (b *Backend) Bots(ctx context.Context) (*domain.BotsSnapshot, error) {
	var snap domain.BotsSnapshot
	if err := b.trading.Get(ctx, "/api/bots", &snap); err != nil {
		return nil, errors.Wrap(err, "list bots")
	}
	snap.Normalize()
	return &snap, nil
}

// BotStatus GET /api/bots/{id}/status
func (b *Backend) BotStatus(ctx context.Context, id string) (*domain.BotStatusSnapshot, error) {
	var snap domain.BotStatusSnapshot
	if err := b.trading.Get(ctx, "/api/bots/"+url.PathEscape(id)+"/status", &snap); err != nil {
		return nil, errors.Wrapf(err, "bot %s status", id)
	}
	snap.BotID = id
	snap.Normalize()
	return &snap, nil
}

// ToggleBot POST /api/bots/{id}/toggle
func (b *Backend) ToggleBot(ctx context.Context, id string, action domain.BotAction) error {
	body := map[string]string{"action": string(action)}
	if err := b.trading.Post(ctx, "/api/bots/"+url.PathEscape(id)+"/toggle", body, nil); err != nil {
		return errors.Wrapf(err, "%s bot %s", action, id)
	}
	return nil
}

// UpdateBotParameters PUT /api/bots/{id}/parameters with the complete parameter object.
func (b *Backend) UpdateBotParameters(ctx context.Context, id string, params map[string]any) error {
	if err := b.trading.Put(ctx, "/api/bots/"+url.PathEscape(id)+"/parameters", params, nil); err != nil {
		return errors.Wrapf(err, "update bot %s parameters", id)
	}
	return nil
}

// MarketIntelligence GET /api/market-intelligence
func (b *Backend) MarketIntelligence(ctx context.Context) (*domain.IntelligenceSnapshot, error) {
	var snap domain.IntelligenceSnapshot
	if err := b.trading.Get(ctx, "/api/market-intelligence", &snap); err != nil {
		return nil, errors.Wrap(err, "market intelligence")
	}
	snap.Normalize()
	return &snap, nil
}

// MarketNews GET /api/market-news/{topic}.
// Accepts either a bare article array or {"articles": [...]}.
func (b *Backend) MarketNews(ctx context.Context, topic string) (*domain.NewsSnapshot, error) {
	var raw json.RawMessage
	if err := b.trading.Get(ctx, "/api/market-news/"+url.PathEscape(topic), &raw); err != nil {
		return nil, errors.Wrapf(err, "market news %s", topic)
	}

	snap := domain.NewsSnapshot{Topic: topic}
	list := gjson.ParseBytes(raw)
	if !list.IsArray() {
		list = list.Get("articles")
	}
	if list.Exists() {
		if err := json.Unmarshal([]byte(list.Raw), &snap.Articles); err != nil {
			return nil, &Error{Kind: KindApplication, Method: "GET", Path: "/api/market-news/" + topic, Message: "invalid response body: " + err.Error(), cause: err}
		}
	}
	snap.Normalize()
	return &snap, nil
}

// ExecuteTrade POST /execute-trade
func (b *Backend) ExecuteTrade(ctx context.Context, req domain.TradeRequest) (*domain.OrderResult, error) {
	var res domain.OrderResult
	if err := b.trading.Post(ctx, "/execute-trade", req, &res); err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Side, req.Symbol)
	}
	return &res, nil
}

// ClosePosition POST /close-position/{symbol}
func (b *Backend) ClosePosition(ctx context.Context, symbol string) (*domain.OrderResult, error) {
	var res domain.OrderResult
	if err := b.trading.Post(ctx, "/close-position/"+url.PathEscape(symbol), nil, &res); err != nil {
		return nil, errors.Wrapf(err, "close %s", symbol)
	}
	return &res, nil
}

// Positions GET /api/positions
func (b *Backend) Positions(ctx context.Context) (*domain.PositionsSnapshot, error) {
	var snap domain.PositionsSnapshot
	if err := b.trading.Get(ctx, "/api/positions", &snap); err != nil {
		return nil, errors.Wrap(err, "positions")
	}
	snap.Normalize()
	return &snap, nil
}
