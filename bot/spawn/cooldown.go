package spawn

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Cooldown remembers, per guild, when the next spawn is allowed
type Cooldown struct {
	mu   sync.Mutex
	last map[string]time.Time
	clk  Clock
}

func NewCooldown(clk Clock) *Cooldown {
	if clk == nil {
		clk = RealClock{}
	}
	return &Cooldown{
		last: make(map[string]time.Time),
		clk:  clk,
	}
}

// TryMark marks guild when its cooldown elapsed and reports whether it did
func (c *Cooldown) TryMark(guildID string, cooldown time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.Now()
	if last, ok := c.last[guildID]; ok && last.Add(cooldown).After(now) {
		return false
	}
	c.last[guildID] = now
	return true
}

func (c *Cooldown) Mark(guildID string) {
	c.mu.Lock()
	c.last[guildID] = c.clk.Now()
	c.mu.Unlock()
}

func (c *Cooldown) Reset(guildID string) {
	c.mu.Lock()
	delete(c.last, guildID)
	c.mu.Unlock()
}
