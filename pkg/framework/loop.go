package framework

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the loop interval used when none is set.
const DefaultInterval = 100 * time.Millisecond

// Loop is a single cooperative polling loop. Controllers run one after
// another, ordered by priority level, on every tick. Nothing else touches
// controller state, so controllers need no locking of their own.
type Loop struct {
	Interval time.Duration

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	pending []deferred
	seq     uint64
	lock    sync.Mutex

	iterations uint64
	wakeUpCh   chan struct{}
	rearmCh    chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type deferred struct {
	at  time.Time
	seq uint64
	ctl Controller
}

type loopIteration struct {
	*Loop
	ctx           context.Context
	time          time.Time
	priorityLevel int
	iteration     uint64
}

var loopCtxKey = &Loop{}

// LoopCtlFrom gets LoopControl from context.
// It's available to Runnables started by the loop.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers to the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
// It stops when ctx is done or any Runnable fails.
func (l *Loop) Run(ctx context.Context) error {
	l.init()
	ctx, cancel := context.WithCancel(ctx)
	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey, LoopControl(l)))
	runner.Go(l.runners...)
	defer func() {
		cancel()
		runner.Wait()
	}()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	l.runIteration(ctx, time.Now())
	for {
		var dueCh <-chan time.Time
		if at, ok := l.nextDue(); ok {
			dueCh = time.After(time.Until(at))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-runner.Failed():
			return err
		case now := <-ticker.C:
			l.runIteration(ctx, now)
		case <-l.wakeUpCh:
			l.runIteration(ctx, time.Now())
		case <-l.rearmCh:
		case now := <-dueCh:
			l.runDue(ctx, now)
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail(ctx context.Context) {
	if err := l.Run(ctx); err != nil && err != context.Canceled {
		glog.Exit(err)
	}
}

// After implements LoopControl.
func (l *Loop) After(delay time.Duration, ctls ...Controller) {
	at := time.Now().Add(delay)
	l.lock.Lock()
	for _, ctl := range ctls {
		l.seq++
		l.pending = append(l.pending, deferred{at: at, seq: l.seq, ctl: ctl})
	}
	sort.Slice(l.pending, func(i, j int) bool {
		if l.pending[i].at.Equal(l.pending[j].at) {
			return l.pending[i].seq < l.pending[j].seq
		}
		return l.pending[i].at.Before(l.pending[j].at)
	})
	l.lock.Unlock()
	if l.rearmCh != nil {
		select {
		case l.rearmCh <- struct{}{}:
		default:
		}
	}
}

// Pending returns the number of scheduled one-shot controllers.
func (l *Loop) Pending() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.pending)
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	if l.wakeUpCh == nil {
		return
	}
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (l *Loop) init() {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	if l.rearmCh == nil {
		l.rearmCh = make(chan struct{}, 1)
	}
}

func (l *Loop) nextDue() (time.Time, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if len(l.pending) == 0 {
		return time.Time{}, false
	}
	return l.pending[0].at, true
}

func (l *Loop) takeDue(now time.Time) []Controller {
	l.lock.Lock()
	defer l.lock.Unlock()
	var n int
	for n < len(l.pending) && !l.pending[n].at.After(now) {
		n++
	}
	if n == 0 {
		return nil
	}
	ctls := make([]Controller, n)
	for i := range ctls {
		ctls[i] = l.pending[i].ctl
	}
	l.pending = append(l.pending[:0], l.pending[n:]...)
	return ctls
}

func (l *Loop) runIteration(ctx context.Context, now time.Time) {
	l.iterations++
	iter := &loopIteration{Loop: l, ctx: ctx, time: now, iteration: l.iterations}
	for i := 0; i < PriorityLevels; i++ {
		iter.priorityLevel = i
		runControllers(iter, l.controllers[i])
	}
}

func (l *Loop) runDue(ctx context.Context, now time.Time) {
	if ctls := l.takeDue(now); len(ctls) > 0 {
		iter := &loopIteration{Loop: l, ctx: ctx, time: now, iteration: l.iterations, priorityLevel: PrLvControl}
		runControllers(iter, ctls)
	}
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) PriorityLevel() int {
	return t.priorityLevel
}

func (t *loopIteration) Iteration() uint64 {
	return t.iteration
}

func runControllers(iter *loopIteration, ctls []Controller) {
	for _, ctl := range ctls {
		if err := ctl.Control(iter); err != nil {
			glog.Errorf("controller error: %v", err)
		}
	}
}
