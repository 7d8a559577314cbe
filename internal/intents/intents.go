// Package intents issues the dashboard's mutations. Each intent is a single
// request: no retry, no optimistic state change. The caller refreshes its
// subscription on success and reports the error into its store on failure.
package intents

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/botdash/internal/api"
	"github.com/betbot/botdash/internal/domain"
	"github.com/betbot/botdash/internal/metrics"
	"github.com/betbot/botdash/pkg/ratelimit"
)

var log = logrus.WithField("module", "intents")

// ErrThrottled is returned when a trade or close was submitted too quickly. Nothing was sent.
var ErrThrottled = errors.New("too many order submissions, try again shortly")

// DefaultTradeQuantity is used when the caller passes a non-positive quantity.
const DefaultTradeQuantity = 1000

// Backend is the subset of the API the intents call.
type Backend interface {
	ToggleBot(ctx context.Context, id string, action domain.BotAction) error
	UpdateBotParameters(ctx context.Context, id string, params map[string]any) error
	ExecuteTrade(ctx context.Context, req domain.TradeRequest) (*domain.OrderResult, error)
	ClosePosition(ctx context.Context, symbol string) (*domain.OrderResult, error)
}

// Intents is shared by all screens.
type Intents struct {
	backend  Backend
	limiter  ratelimit.RateLimiter
	quantity float64
}

// Config for New.
type Config struct {
	TradeQuantity     float64
	TradeSubmitPerSec int
}

// New submitPerSec <= 0 disables the throttle.
func New(backend Backend, cfg Config) *Intents {
	qty := cfg.TradeQuantity
	if qty <= 0 {
		qty = DefaultTradeQuantity
	}
	i := &Intents{backend: backend, quantity: qty}
	if cfg.TradeSubmitPerSec > 0 {
		i.limiter = ratelimit.NewTokenBucket(cfg.TradeSubmitPerSec, float64(cfg.TradeSubmitPerSec))
	}
	return i
}

// TradeQuantity used for buy/sell buttons.
func (i *Intents) TradeQuantity() float64 { return i.quantity }

// ToggleBot starts or stops a bot.
func (i *Intents) ToggleBot(ctx context.Context, id string, action domain.BotAction) error {
	if action != domain.ActionStart && action != domain.ActionStop {
		return errors.Errorf("invalid bot action %q", action)
	}
	if err := sent(i.backend.ToggleBot(ctx, id, action)); err != nil {
		return err
	}
	log.Infof("bot %s: %s accepted", id, action)
	return nil
}

// UpdateBotParameters merges partial over lastKnown and the defaults, then PUTs the
// complete object. Returns what was sent.
func (i *Intents) UpdateBotParameters(ctx context.Context, id string, lastKnown, partial map[string]any) (map[string]any, error) {
	merged := MergeParameters(lastKnown, partial)
	if err := sent(i.backend.UpdateBotParameters(ctx, id, merged)); err != nil {
		return merged, err
	}
	log.WithField("bot", id).Debugf("parameters updated: %v", merged)
	return merged, nil
}

// ExecuteTrade submits a market order. quantity <= 0 uses the configured default.
func (i *Intents) ExecuteTrade(ctx context.Context, symbol string, side domain.Side, quantity float64) (*domain.OrderResult, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, errors.New("symbol is required")
	}
	if err := side.Validate(); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		quantity = i.quantity
	}
	if !i.allow() {
		return nil, ErrThrottled
	}

	res, err := i.backend.ExecuteTrade(ctx, domain.TradeRequest{Symbol: symbol, Side: side, Quantity: quantity})
	if err == nil {
		err = orderAccepted(res, "/execute-trade")
	}
	if err := sent(err); err != nil {
		return nil, err
	}
	log.Infof("%s %s x%g accepted, order_id=%s", side, symbol, quantity, res.OrderID)
	return res, nil
}

// ClosePosition closes the whole position in symbol.
func (i *Intents) ClosePosition(ctx context.Context, symbol string) (*domain.OrderResult, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, errors.New("symbol is required")
	}
	if !i.allow() {
		return nil, ErrThrottled
	}

	res, err := i.backend.ClosePosition(ctx, symbol)
	if err == nil {
		err = orderAccepted(res, "/close-position/"+symbol)
	}
	if err := sent(err); err != nil {
		return nil, err
	}
	log.Infof("close %s accepted, order_id=%s", symbol, res.OrderID)
	return res, nil
}

func (i *Intents) allow() bool {
	if i.limiter == nil || i.limiter.Allow() {
		return true
	}
	metrics.TradesThrottled.Add(1)
	return false
}

// orderAccepted only status "success" counts; anything else on a 2xx is an application failure.
func orderAccepted(res *domain.OrderResult, path string) error {
	if res != nil && res.Status == domain.StatusSuccess {
		return nil
	}
	msg := api.GenericMessage
	if res != nil && strings.TrimSpace(res.Message) != "" {
		msg = res.Message
	}
	return &api.Error{Kind: api.KindApplication, Message: msg, Method: "POST", Path: path}
}

// sent counts one request that reached the backend.
func sent(err error) error {
	metrics.MutationsSent.Add(1)
	if err != nil {
		metrics.MutationFailures.Add(1)
	}
	return err
}
