package sigchan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pending(c *Chan) bool {
	select {
	case <-c.C():
		return true
	default:
		return false
	}
}

func TestChan_EmitCoalesces(t *testing.T) {
	c := New(0)
	c.Emit()
	c.Emit()
	c.Emit()

	assert.True(t, pending(c), "expected a pending signal")
	assert.False(t, pending(c), "emits before a read coalesce into one signal")

	c.Emit()
	assert.True(t, pending(c))
}
