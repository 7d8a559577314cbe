package domain

import (
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
)

const (
	// DefaultSymbol 没有 parameters.symbol 且没有可选品种时的回退值
	DefaultSymbol = "EUR_USD"
	// DefaultCheckInterval 默认检查间隔（秒）
	DefaultCheckInterval = 300

	MinCheckIntervalSeconds = 60
	MaxCheckIntervalSeconds = 604800
	MinCheckIntervalMinutes = 1
	MaxCheckIntervalMinutes = 10080
)

// Parameter keys with special meaning; everything else is rendered as a plain number.
const (
	ParamSymbol              = "symbol"
	ParamCheckInterval       = "check_interval"
	ParamContinueAfterTrade  = "continue_after_trade"
	ParamMaxConcurrentTrades = "max_concurrent_trades"
)

// BotAction 启停动作
type BotAction string

const (
	ActionStart BotAction = "start"
	ActionStop  BotAction = "stop"
)

// ToggleActionFor 根据当前运行状态得到切换动作
func ToggleActionFor(running bool) BotAction {
	if running {
		return ActionStop
	}
	return ActionStart
}

// Performance bot 绩效
type Performance struct {
	TotalTrades   int `json:"total_trades"`
	WinningTrades int `json:"winning_trades"`
}

// WinRate 胜率百分比，没有成交时为 0
func (p Performance) WinRate() float64 {
	if p.TotalTrades <= 0 {
		return 0
	}
	return float64(p.WinningTrades) / float64(p.TotalTrades) * 100
}

// BotStatus bot 运行详情
type BotStatus struct {
	Performance          Performance     `json:"performance"`
	DailyProfitLoss      decimal.Decimal `json:"daily_profit_loss"`
	RecentUpdates        []string        `json:"recent_updates"`
	AvailableInstruments []string        `json:"available_instruments"`
}

func (s *BotStatus) normalize() {
	if s.RecentUpdates == nil {
		s.RecentUpdates = []string{}
	}
	if s.AvailableInstruments == nil {
		s.AvailableInstruments = []string{}
	}
}

// BotDescriptor 单个 bot 的元数据、参数与状态
type BotDescriptor struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Running    bool           `json:"running"`
	Parameters map[string]any `json:"parameters"`
	Status     *BotStatus     `json:"status,omitempty"`
}

// BotParameters parameters 的强类型视图，未知字段保留在 Extra
type BotParameters struct {
	Symbol              string         `mapstructure:"symbol"`
	CheckInterval       int            `mapstructure:"check_interval"`
	ContinueAfterTrade  bool           `mapstructure:"continue_after_trade"`
	MaxConcurrentTrades int            `mapstructure:"max_concurrent_trades"`
	Extra               map[string]any `mapstructure:",remain"`
}

// DefaultParameters 合并时优先级最低的一层
func DefaultParameters() map[string]any {
	return map[string]any{
		ParamSymbol:              DefaultSymbol,
		ParamCheckInterval:       DefaultCheckInterval,
		ParamContinueAfterTrade:  true,
		ParamMaxConcurrentTrades: 1,
	}
}

// TypedParameters 以宽松类型解码 parameters（"300" 与 300.0 都能得到 300）
func (b BotDescriptor) TypedParameters() (BotParameters, error) {
	var out BotParameters
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(b.Parameters); err != nil {
		return out, err
	}
	return out, nil
}

// NumericParameterKeys 可编辑的数值参数（不含 symbol），按字母序
func (b BotDescriptor) NumericParameterKeys() []string {
	keys := make([]string, 0, len(b.Parameters))
	for k, v := range b.Parameters {
		if k == ParamSymbol {
			continue
		}
		switch v.(type) {
		case float64, float32, int, int64, int32:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (b *BotDescriptor) normalize(id string) {
	if b.ID == "" {
		b.ID = id
	}
	if b.Name == "" {
		b.Name = b.ID
	}
	if b.Parameters == nil {
		b.Parameters = map[string]any{}
	}
	var instruments []string
	if b.Status != nil {
		b.Status.normalize()
		instruments = b.Status.AvailableInstruments
	}
	if s, ok := b.Parameters[ParamSymbol].(string); !ok || s == "" {
		if len(instruments) > 0 {
			b.Parameters[ParamSymbol] = instruments[0]
		} else {
			b.Parameters[ParamSymbol] = DefaultSymbol
		}
	}
	if _, ok := b.Parameters[ParamCheckInterval]; !ok {
		b.Parameters[ParamCheckInterval] = DefaultCheckInterval
	}
}

// BotsSnapshot GET /api/bots
type BotsSnapshot struct {
	Stamp
	Bots map[string]BotDescriptor `json:"bots"`
}

// Normalize 补齐 id、默认参数
func (s *BotsSnapshot) Normalize() {
	if s.Bots == nil {
		s.Bots = map[string]BotDescriptor{}
	}
	for id, bot := range s.Bots {
		bot.normalize(id)
		s.Bots[id] = bot
	}
}

// IDs 按字母序返回所有 bot id
func (s *BotsSnapshot) IDs() []string {
	ids := make([]string, 0, len(s.Bots))
	for id := range s.Bots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BotStatusSnapshot GET /api/bots/{id}/status，响应体外层是 data
type BotStatusSnapshot struct {
	Stamp
	BotID string    `json:"-"`
	Data  BotStatus `json:"data"`
}

// Normalize 补齐空切片
func (s *BotStatusSnapshot) Normalize() {
	s.Data.normalize()
}

// ClampInt 将 v 限制在 [lo, hi]
func ClampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
