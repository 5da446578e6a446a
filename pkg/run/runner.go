package run

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
)

// Runner runs multiple Runnables and collects their errors.
type Runner struct {
	Context context.Context

	runners int
	errCh   chan error
	exitCh  chan struct{}
}

// NewRunner creates a Runner with the given base context.
func NewRunner(ctx context.Context) *Runner {
	return &Runner{
		Context: ctx,
		errCh:   make(chan error, 1),
		exitCh:  make(chan struct{}),
	}
}

// HandleSignals cancels the context on CtrlC or SIGTERM; a second signal
// forces exit.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	r.Context = ctx
	go func() {
		<-sigCh
		glog.Info("stop requested")
		cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.exitCh)
	}()
	return r
}

// Go spawns the runnables.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		r.runners++
		go func(runnable Runnable) {
			r.errCh <- runnable.Run(r.Context)
		}(runnable)
	}
	return r
}

// Wait blocks until every spawned Runnable stops and returns their
// aggregated errors, ignoring plain cancellation.
func (r *Runner) Wait() error {
	var errs ErrorList
	for i := 0; i < r.runners; i++ {
		select {
		case <-r.exitCh:
			return errors.New("forced exit")
		case err := <-r.errCh:
			if err != context.Canceled {
				errs.Append(err)
			}
		}
	}
	return errs.Err()
}
