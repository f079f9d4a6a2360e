package framework

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/golang/glog"
)

// ErrForcedExit is returned by Wait after a second stop signal.
var ErrForcedExit = errors.New("forced exit")

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun wraps a Runnable with a name. The name tags its log lines and
// the RunError it fails with.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Runner runs Runnables in background goroutines. The first failure is
// delivered on Failed, all results are collected by Wait.
type Runner struct {
	Context context.Context
	Runners []Runnable

	doneCh   chan error
	exitCh   chan struct{}
	failCh   chan error
	failOnce sync.Once
}

// NewRunner creates a runner with a default background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner with a specified context.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{
		Context: ctx,
		doneCh:  make(chan error, 1),
		exitCh:  make(chan struct{}),
		failCh:  make(chan error, 1),
	}
}

// HandleSignals cancels the context on Ctrl-C or SIGTERM. A second
// signal makes Wait return ErrForcedExit without waiting.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	r.Context = ctx
	go func() {
		sig := <-sigCh
		glog.Infof("%v: stopping", sig)
		cancel()
		sig = <-sigCh
		glog.Errorf("%v: stop requested again, force exit", sig)
		close(r.exitCh)
	}()
	return r
}

// Go spawns Runnables with the runner's context.
func (r *Runner) Go(runners ...Runnable) *Runner {
	return r.GoWith(r.Context, runners...)
}

// GoWith spawns Runnables with a specified context.
func (r *Runner) GoWith(ctx context.Context, runners ...Runnable) *Runner {
	for _, runner := range runners {
		name := strconv.Itoa(len(r.Runners))
		if named, ok := runner.(Named); ok {
			name = named.Name()
		}
		r.Runners = append(r.Runners, runner)
		go r.run(ctx, name, runner)
	}
	return r
}

func (r *Runner) run(ctx context.Context, name string, runner Runnable) {
	glog.V(4).Infof("Runner[%s] started", name)
	err := runner.Run(ctx)
	glog.V(4).Infof("Runner[%s] stopped: %v", name, err)
	if err != nil && err != context.Canceled {
		err = &RunError{Name: name, Err: err}
		r.failOnce.Do(func() { r.failCh <- err })
	}
	r.doneCh <- err
}

// Failed receives the first *RunError of any Runnable.
func (r *Runner) Failed() <-chan error {
	return r.failCh
}

// Wait waits until all Runnables stop and aggregates their errors.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for range r.Runners {
		select {
		case <-r.exitCh:
			return ErrForcedExit
		case err := <-r.doneCh:
			if err != context.Canceled {
				errs.Add(err)
			}
		}
	}
	return errs.Aggregate()
}

// RunWithContextCancel runs fn, which doesn't accept a context, until it
// returns or ctx is done. onCancel is called only in the latter case and
// must make fn return.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// RunWithContext is simplified form with no cancel callback.
func RunWithContext(ctx context.Context, fn func() error) error {
	return RunWithContextCancel(ctx, nil, fn)
}

// RunWithContextCloser runs fn until it returns or ctx is done, and closes
// closer exactly once either way, e.g. a stream fn is blocked reading.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	var once sync.Once
	closeOnce := func() { once.Do(func() { closer.Close() }) }
	defer closeOnce()
	return RunWithContextCancel(ctx, closeOnce, fn)
}
