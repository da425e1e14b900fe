package onboarding

import (
	"context"
	"sync"
	"time"
)

// ResendCooldownTicks is how many ticks the resend action stays disabled
// after a successful send.
const ResendCooldownTicks = 60

// Cooldown is a decrementing tick counter.
type Cooldown struct {
	mu        sync.Mutex
	remaining int
}

// Start resets the counter to n ticks.
func (c *Cooldown) Start(n int) {
	c.mu.Lock()
	c.remaining = n
	c.mu.Unlock()
}

// Tick advances one tick and returns what is left.
func (c *Cooldown) Tick() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining > 0 {
		c.remaining--
	}
	return c.remaining
}

func (c *Cooldown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Cooldown) Active() bool {
	return c.Remaining() > 0
}

// Run ticks every interval until the counter reaches zero or ctx is done.
// onTick, when non-nil, receives the remaining count after each tick.
func (c *Cooldown) Run(ctx context.Context, interval time.Duration, onTick func(remaining int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if !c.Active() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			left := c.Tick()
			if onTick != nil {
				onTick(left)
			}
		}
	}
}
