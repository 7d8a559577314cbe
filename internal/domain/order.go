package domain

import "fmt"

// Side 买卖方向
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Validate 校验方向
func (s Side) Validate() error {
	if s != SideBuy && s != SideSell {
		return fmt.Errorf("invalid side %q", string(s))
	}
	return nil
}

// TradeRequest POST /execute-trade 请求体
type TradeRequest struct {
	Symbol   string  `json:"symbol"`
	Side     Side    `json:"side"`
	Quantity float64 `json:"quantity"`
}

// OrderResult /execute-trade 与 /close-position 的响应
type OrderResult struct {
	Status  ResponseStatus `json:"status"`
	OrderID string         `json:"order_id,omitempty"`
	Message string         `json:"message,omitempty"`
}
