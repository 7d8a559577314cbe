package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucket_AllowDrainsAndRefills(t *testing.T) {
	clock := time.Unix(1700000000, 0)
	tb := NewTokenBucket(2, 1)
	tb.now = func() time.Time { return clock }
	tb.lastRefill = clock

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	clock = clock.Add(500 * time.Millisecond)
	assert.False(t, tb.Allow())

	clock = clock.Add(500 * time.Millisecond)
	assert.True(t, tb.Allow())

	// 不会超过容量
	clock = clock.Add(time.Hour)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}
