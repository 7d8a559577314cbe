package intents

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/betbot/botdash/internal/api"
	"github.com/betbot/botdash/internal/domain"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ToggleBot(ctx context.Context, id string, action domain.BotAction) error {
	return m.Called(ctx, id, action).Error(0)
}

func (m *mockBackend) UpdateBotParameters(ctx context.Context, id string, params map[string]any) error {
	return m.Called(ctx, id, params).Error(0)
}

func (m *mockBackend) ExecuteTrade(ctx context.Context, req domain.TradeRequest) (*domain.OrderResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*domain.OrderResult)
	return res, args.Error(1)
}

func (m *mockBackend) ClosePosition(ctx context.Context, symbol string) (*domain.OrderResult, error) {
	args := m.Called(ctx, symbol)
	res, _ := args.Get(0).(*domain.OrderResult)
	return res, args.Error(1)
}

func TestUpdateBotParameters_MergesOverLastKnown(t *testing.T) {
	backend := &mockBackend{}
	backend.On("UpdateBotParameters", mock.Anything, "ema_strategy", mock.Anything).Return(nil)

	lastKnown := map[string]any{
		"check_interval":        240,
		"symbol":                "BTC_USD",
		"continue_after_trade":  true,
		"max_concurrent_trades": 1,
	}
	sent, err := New(backend, Config{}).UpdateBotParameters(context.Background(), "ema_strategy", lastKnown, map[string]any{"check_interval": 90})
	require.NoError(t, err)

	got, err := json.Marshal(sent)
	require.NoError(t, err)
	assert.JSONEq(t, `{"check_interval":90,"symbol":"BTC_USD","continue_after_trade":true,"max_concurrent_trades":1}`, string(got))
	assert.Equal(t, 240, lastKnown["check_interval"], "last known parameters must not be modified")
	backend.AssertExpectations(t)
}

func TestMergeParameters_DefaultsFillGaps(t *testing.T) {
	merged := MergeParameters(map[string]any{"ema_fast": 12.0}, map[string]any{"symbol": "GBP_USD"})

	assert.Equal(t, "GBP_USD", merged["symbol"])
	assert.Equal(t, 300, merged["check_interval"])
	assert.Equal(t, true, merged["continue_after_trade"])
	assert.Equal(t, 1, merged["max_concurrent_trades"])
	assert.Equal(t, 12.0, merged["ema_fast"])
}

func TestMergeParameters_ClampsCheckInterval(t *testing.T) {
	assert.Equal(t, 60, MergeParameters(nil, map[string]any{"check_interval": 5.0})["check_interval"])
	assert.Equal(t, 604800, MergeParameters(map[string]any{"check_interval": 60}, map[string]any{"check_interval": 9999999})["check_interval"])
}

func TestMergeParameters_KeepsServerCheckIntervalWhenEditingOtherKeys(t *testing.T) {
	lastKnown := map[string]any{"check_interval": 9999999.0, "symbol": "EUR_USD"}
	merged := MergeParameters(lastKnown, map[string]any{"symbol": "GBP_USD"})

	assert.Equal(t, "GBP_USD", merged["symbol"])
	assert.Equal(t, 9999999.0, merged["check_interval"])
	assert.Equal(t, 9999999.0, lastKnown["check_interval"])
}

func TestCheckIntervalFromMinutes(t *testing.T) {
	assert.Equal(t, 604800, CheckIntervalFromMinutes(20000))
	assert.Equal(t, 60, CheckIntervalFromMinutes(0))
	assert.Equal(t, 300, CheckIntervalFromMinutes(5))
	assert.Equal(t, 60, ClampCheckInterval(1))
	assert.Equal(t, 5, CheckIntervalMinutes(300.0))
	assert.Equal(t, 5, CheckIntervalMinutes(nil))
}

func TestToggleBot(t *testing.T) {
	backend := &mockBackend{}
	backend.On("ToggleBot", mock.Anything, "ema_strategy", domain.ActionStop).Return(nil)
	in := New(backend, Config{})

	require.NoError(t, in.ToggleBot(context.Background(), "ema_strategy", domain.ActionStop))
	assert.Error(t, in.ToggleBot(context.Background(), "ema_strategy", domain.BotAction("pause")))
	backend.AssertNumberOfCalls(t, "ToggleBot", 1)
}

func TestExecuteTrade_DefaultQuantity(t *testing.T) {
	backend := &mockBackend{}
	backend.On("ExecuteTrade", mock.Anything, domain.TradeRequest{Symbol: "EUR_USD", Side: domain.SideBuy, Quantity: 1000}).
		Return(&domain.OrderResult{Status: domain.StatusSuccess, OrderID: "o-1"}, nil)

	res, err := New(backend, Config{TradeSubmitPerSec: 5}).ExecuteTrade(context.Background(), "EUR_USD", domain.SideBuy, 0)
	require.NoError(t, err)
	assert.Equal(t, "o-1", res.OrderID)
	backend.AssertExpectations(t)
}

func TestExecuteTrade_ThrottledSendsNothing(t *testing.T) {
	backend := &mockBackend{}
	backend.On("ExecuteTrade", mock.Anything, mock.Anything).Return(&domain.OrderResult{Status: domain.StatusSuccess}, nil)
	in := New(backend, Config{TradeSubmitPerSec: 1})

	_, err := in.ExecuteTrade(context.Background(), "EUR_USD", domain.SideSell, 10)
	require.NoError(t, err)
	_, err = in.ExecuteTrade(context.Background(), "EUR_USD", domain.SideSell, 10)
	assert.ErrorIs(t, err, ErrThrottled)
	_, err = in.ClosePosition(context.Background(), "EUR_USD")
	assert.ErrorIs(t, err, ErrThrottled)

	backend.AssertNumberOfCalls(t, "ExecuteTrade", 1)
	backend.AssertNotCalled(t, "ClosePosition", mock.Anything, mock.Anything)
}

func TestExecuteTrade_InvalidInputSendsNothing(t *testing.T) {
	backend := &mockBackend{}
	in := New(backend, Config{})

	_, err := in.ExecuteTrade(context.Background(), " ", domain.SideBuy, 1)
	assert.Error(t, err)
	_, err = in.ExecuteTrade(context.Background(), "EUR_USD", domain.Side("hold"), 1)
	assert.Error(t, err)
	backend.AssertNotCalled(t, "ExecuteTrade", mock.Anything, mock.Anything)
}

func TestExecuteTrade_ApplicationErrorOn200IsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","message":"insufficient funds"}`))
	}))
	defer srv.Close()

	in := New(api.NewBackend(srv.URL, srv.URL, 0), Config{TradeSubmitPerSec: 5})
	res, err := in.ExecuteTrade(context.Background(), "EUR_USD", domain.SideBuy, 1000)

	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, api.IsKind(err, api.KindApplication))
	assert.Equal(t, "insufficient funds", api.UserMessage(err))
}

func TestOrders_OnlySuccessStatusIsAccepted(t *testing.T) {
	for name, body := range map[string]string{
		"failed status":  `{"status":"failed","message":"market closed"}`,
		"missing status": `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()
			in := New(api.NewBackend(srv.URL, srv.URL, 0), Config{TradeSubmitPerSec: 5})

			res, err := in.ExecuteTrade(context.Background(), "EUR_USD", domain.SideBuy, 1000)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, api.IsKind(err, api.KindApplication))

			res, err = in.ClosePosition(context.Background(), "EUR_USD")
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, api.IsKind(err, api.KindApplication))
		})
	}
}

func TestOrders_FailureMessageFallsBackToGeneric(t *testing.T) {
	backend := &mockBackend{}
	backend.On("ClosePosition", mock.Anything, "GBP_USD").Return(&domain.OrderResult{Status: "rejected"}, nil)
	backend.On("ExecuteTrade", mock.Anything, mock.Anything).Return(&domain.OrderResult{Status: "failed", Message: "market closed"}, nil)
	in := New(backend, Config{TradeSubmitPerSec: 5})

	_, err := in.ClosePosition(context.Background(), "GBP_USD")
	assert.Equal(t, api.GenericMessage, api.UserMessage(err))

	_, err = in.ExecuteTrade(context.Background(), "EUR_USD", domain.SideSell, 1)
	assert.Equal(t, "market closed", api.UserMessage(err))
}
