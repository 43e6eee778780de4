// Package ratelimit provides the per-user cooldown that guards the research
// pipeline. State lives in process memory for the lifetime of the instance;
// a restart clears it.
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// CooldownError reports how long the caller has to wait before the next
// attempt is allowed.
type CooldownError struct {
	Wait time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, retry in %ds", e.WaitSeconds())
}

// WaitSeconds rounds the remaining wait up to whole seconds for the 429
// body.
func (e *CooldownError) WaitSeconds() int {
	return int(math.Ceil(e.Wait.Seconds()))
}

type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window: window,
		last:   map[string]time.Time{},
		now:    time.Now,
	}
}

// Reserve claims the cooldown slot for userID. It returns nil and records
// the attempt when the user is outside the window, or a *CooldownError with
// the remaining wait when still inside it. The slot is claimed before the
// guarded work runs, so a failed attempt still burns the window.
func (c *Cooldown) Reserve(userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.last[userID]; ok {
		elapsed := now.Sub(last)
		if elapsed < c.window {
			return &CooldownError{Wait: c.window - elapsed}
		}
	}
	c.last[userID] = now
	return nil
}
