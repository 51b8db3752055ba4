package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultPolicy applies to sources without an explicit policy.
var DefaultPolicy = Policy{BaseDelay: 500 * time.Millisecond, CeilingDelay: 30 * time.Second}

// Registry owns one Controller per source id. It is the single point of
// truth for each source's pacing.
type Registry struct {
	policies map[string]Policy
	log      *slog.Logger

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewRegistry creates a Registry with the given per-source policies.
func NewRegistry(policies map[string]Policy, logger *slog.Logger) *Registry {
	p := make(map[string]Policy, len(policies))
	for id, pol := range policies {
		p[id] = pol
	}
	return &Registry{
		policies:    p,
		log:         logger.With("component", "ratelimit"),
		controllers: make(map[string]*Controller),
	}
}

func (r *Registry) controller(id string) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[id]; ok {
		return c
	}
	pol, ok := r.policies[id]
	if !ok {
		pol = DefaultPolicy
	}
	c := NewController(pol)
	r.controllers[id] = c
	return c
}

// Acquire blocks until source id may be called or ctx is done.
func (r *Registry) Acquire(ctx context.Context, id string) error {
	return r.controller(id).Acquire(ctx)
}

// ReportThrottled escalates the delay for source id.
func (r *Registry) ReportThrottled(ctx context.Context, id string, hint time.Duration) {
	c := r.controller(id)
	before := c.Delay()
	after := c.ReportThrottled(hint)
	r.log.WarnContext(ctx, "source throttled",
		slog.String("source", id),
		slog.Duration("delay_before", before),
		slog.Duration("delay_after", after),
		slog.Duration("retry_after", hint),
	)
}

// ReportSuccess lets the delay for source id decay toward its base.
func (r *Registry) ReportSuccess(id string) {
	r.controller(id).ReportSuccess()
}

// Delay returns the current delay for source id.
func (r *Registry) Delay(id string) time.Duration {
	return r.controller(id).Delay()
}
