// Package ratelimit paces outbound requests per source and escalates the
// pacing delay when a source throttles us.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Policy is the pacing policy of one source.
type Policy struct {
	BaseDelay    time.Duration // floor; the delay after a run of successes
	CeilingDelay time.Duration // hard cap on escalation
}

func (p Policy) normalized() Policy {
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Millisecond
	}
	if p.CeilingDelay < p.BaseDelay {
		p.CeilingDelay = p.BaseDelay
	}
	return p
}

// Controller paces a single source. It is safe for concurrent use and is
// meant to be shared by every worker talking to that source.
type Controller struct {
	policy Policy

	mu    sync.Mutex
	delay time.Duration
	// notBefore holds back every caller after a throttle, whatever tokens
	// the limiter accumulated while the failed request was in flight.
	notBefore time.Time
	limiter   *rate.Limiter
}

// NewController creates a Controller starting at the base delay.
func NewController(p Policy) *Controller {
	p = p.normalized()
	return &Controller{
		policy:  p,
		delay:   p.BaseDelay,
		limiter: rate.NewLimiter(rate.Every(p.BaseDelay), 1),
	}
}

// Acquire blocks until the next request is permitted or ctx is done.
func (c *Controller) Acquire(ctx context.Context) error {
	c.mu.Lock()
	wait := time.Until(c.notBefore)
	c.mu.Unlock()

	if wait > 0 {
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return c.limiter.Wait(ctx)
}

// ReportThrottled doubles the delay, or raises it to hint when the server
// asked for a longer wait, capped at the ceiling. The delay never decreases
// here.
func (c *Controller) ReportThrottled(hint time.Duration) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.delay * 2
	if hint > next {
		next = hint
	}
	if next > c.policy.CeilingDelay {
		next = c.policy.CeilingDelay
	}
	if next < c.delay {
		next = c.delay
	}
	c.setDelay(next)

	now := time.Now()
	if nb := now.Add(next); nb.After(c.notBefore) {
		c.notBefore = nb
	}
	// Drop the token saved up during the failed request.
	c.limiter.AllowN(now, 1)
	return next
}

// ReportSuccess halves the delay, never going below the base.
func (c *Controller) ReportSuccess() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.delay / 2
	if next < c.policy.BaseDelay {
		next = c.policy.BaseDelay
	}
	c.setDelay(next)
	return next
}

// Delay returns the current pacing delay.
func (c *Controller) Delay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delay
}

// setDelay must be called with mu held.
func (c *Controller) setDelay(d time.Duration) {
	if d == c.delay {
		return
	}
	c.delay = d
	c.limiter.SetLimit(rate.Every(d))
}
