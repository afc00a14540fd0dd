// Package loop provides the single cooperative executor that owns dashboard state.
//
// Timer callbacks and fetch completions are posted to the loop and run one at a
// time on its goroutine, so the state they touch needs no locking. Once the loop
// is stopped every later post is dropped.
package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"
)

// Loop runs posted tasks sequentially.
type Loop struct {
	clock  clock.WithTicker
	logger *zap.Logger

	mu     sync.Mutex
	queue  []func()
	notify chan struct{}

	quit     chan struct{}
	stopOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a loop driven by clk. Call Run to start executing tasks.
func New(clk clock.WithTicker, logger *zap.Logger) *Loop {
	if clk == nil {
		clk = clock.RealClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		clock:  clk,
		logger: logger,
		notify: make(chan struct{}, 1),
		quit:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context is cancelled when the loop stops. Work started on behalf of loop
// tasks derives from it so teardown aborts it.
func (l *Loop) Context() context.Context {
	return l.ctx
}

// Clock returns the clock driving the loop timers.
func (l *Loop) Clock() clock.WithTicker {
	return l.clock
}

// Post queues fn. It reports false when the loop is already stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.isStopped() {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
	return true
}

// Call runs fn on the loop and waits for it. Must not be called from a loop task.
func (l *Loop) Call(fn func()) bool {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-l.quit:
		return false
	}
}

// Run executes tasks until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quit:
			return nil
		case <-l.notify:
		}

		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.run(fn)
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.isStopped() || len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked", zap.Any("panic", r))
		}
	}()
	fn()
}

// Stop halts the loop and all its timers. Queued tasks are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		close(l.quit)
		l.queue = nil
		l.mu.Unlock()
		l.cancel()
	})
}

// Done is closed once the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.quit
}

func (l *Loop) isStopped() bool {
	select {
	case <-l.quit:
		return true
	default:
		return false
	}
}

// Timer is a loop-bound timer. Stop it from a loop task to guarantee no further callback.
type Timer struct {
	stopped atomic.Bool
	stop    chan struct{}
	once    sync.Once
}

func newTimer() *Timer {
	return &Timer{stop: make(chan struct{})}
}

// Stop cancels the timer. Ticks already queued are skipped.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.once.Do(func() {
		t.stopped.Store(true)
		close(t.stop)
	})
}

// Stopped reports whether Stop was called.
func (t *Timer) Stopped() bool {
	return t != nil && t.stopped.Load()
}

// Every posts fn each interval until the timer or the loop stops.
// The ticker is created before Every returns.
func (l *Loop) Every(interval time.Duration, fn func()) *Timer {
	t := newTimer()
	ticker := l.clock.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
				l.Post(func() {
					if !t.Stopped() {
						fn()
					}
				})
			case <-t.stop:
				return
			case <-l.quit:
				return
			}
		}
	}()
	return t
}

// After posts fn once after d unless the timer or the loop stops first.
// The underlying timer is created before After returns.
func (l *Loop) After(d time.Duration, fn func()) *Timer {
	t := newTimer()
	timer := l.clock.NewTimer(d)
	go func() {
		defer timer.Stop()
		select {
		case <-timer.C():
			l.Post(func() {
				if !t.Stopped() {
					t.Stop()
					fn()
				}
			})
		case <-t.stop:
		case <-l.quit:
		}
	}()
	return t
}
