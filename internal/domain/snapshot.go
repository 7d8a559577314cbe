package domain

import "time"

// Stamp 快照元数据：由哪一次轮询（Seq）在什么时候（FetchedAt）取得
// 快照整体替换，不与旧快照做字段合并，避免混用不同轮询的时间戳
type Stamp struct {
	Seq       uint64    `json:"-"`
	FetchedAt time.Time `json:"-"`
}

// Stamped 所有快照类型都实现该接口，poller 应用结果前写入元数据
type Stamped interface {
	SetStamp(seq uint64, at time.Time)
}

// SetStamp 写入快照元数据
func (s *Stamp) SetStamp(seq uint64, at time.Time) {
	s.Seq = seq
	s.FetchedAt = at
}

// ResponseStatus 应用层状态字段，HTTP 200 也可能是 "error"
type ResponseStatus string

const (
	StatusSuccess ResponseStatus = "success"
	StatusError   ResponseStatus = "error"
)
