// Package run provides small plumbing for background runners: a Runnable
// abstraction, a Runner that spawns them and aggregates their errors, and
// a Periodic ticker loop.
package run

import (
	"context"
	"time"

	"github.com/golang/glog"
)

// Runnable is a background runner driven by a context.
type Runnable interface {
	Run(context.Context) error
}

// RunnableFunc is the func form of Runnable.
type RunnableFunc func(context.Context) error

// Run implements Runnable.
func (f RunnableFunc) Run(ctx context.Context) error { return f(ctx) }

// Periodic invokes Tick at a fixed interval until the context is
// canceled. A failing tick is logged and the loop continues; the caller
// decides at a higher level whether to stop.
type Periodic struct {
	Interval time.Duration
	Tick     func(context.Context) error
}

// Run implements Runnable.
func (p *Periodic) Run(ctx context.Context) error {
	interval := p.Interval
	if interval == 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil {
				glog.Errorf("tick error: %v", err)
			}
		}
	}
}
