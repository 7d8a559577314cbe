package sigchan

// Chan 是一个非阻塞的信号 channel
// 用于通知“状态已变化”，不传递数据；多次 Emit 在消费前会合并为一次
type Chan struct {
	c chan struct{}
}

// New 创建新的信号 channel，bufferSize<=0 时按 1 处理
func New(bufferSize int) *Chan {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Chan{
		c: make(chan struct{}, bufferSize),
	}
}

// Emit 发送信号（非阻塞）
func (c *Chan) Emit() {
	select {
	case c.c <- struct{}{}:
	default:
		// channel 已满说明已有未消费的信号，直接合并
	}
}

// C 返回内部的 channel（用于 select）
func (c *Chan) C() <-chan struct{} {
	return c.c
}
