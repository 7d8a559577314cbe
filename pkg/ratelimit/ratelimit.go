package ratelimit

import (
	"sync"
	"time"
)

// RateLimiter 速率限制器接口
type RateLimiter interface {
	Allow() bool
}

// TokenBucket 令牌桶速率限制器
// 用于拦截短时间内重复触发的用户操作（例如按键连发导致的重复下单）
type TokenBucket struct {
	capacity   float64   // 桶容量
	tokens     float64   // 当前令牌数
	refillRate float64   // 每秒补充的令牌数
	lastRefill time.Time // 上次补充时间
	now        func() time.Time
	mu         sync.Mutex
}

// NewTokenBucket 创建新的令牌桶，初始为满桶
func NewTokenBucket(capacity int, refillPerSec float64) *TokenBucket {
	if capacity <= 0 {
		capacity = 1
	}
	tb := &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillPerSec,
		now:        time.Now,
	}
	tb.lastRefill = tb.now()
	return tb
}

// refill 按流逝时间补充令牌（调用方持有锁）
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now
}

// Allow 检查是否允许请求（非阻塞，允许时消耗一个令牌）
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}
