package loop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	testingclock "k8s.io/utils/clock/testing"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func startLoop(t *testing.T) (*Loop, *testingclock.FakeClock) {
	t.Helper()
	clk := testingclock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	l := New(clk, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return l, clk
}

func TestTasksRunInPostOrder(t *testing.T) {
	l, _ := startLoop(t)

	var got []int
	for i := 0; i < 50; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	var n int
	l.Call(func() { n = len(got) })
	if n != 50 {
		t.Fatalf("expected 50 tasks, got %d", n)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran out of order: %d", i, v)
		}
	}
}

func TestEveryTicksUntilStopped(t *testing.T) {
	l, clk := startLoop(t)

	var ticks atomic.Int32
	var timer *Timer
	l.Call(func() { timer = l.Every(time.Second, func() { ticks.Add(1) }) })

	for i := 1; i <= 3; i++ {
		clk.Step(time.Second)
		want := int32(i)
		waitFor(t, time.Second, func() bool { return ticks.Load() == want })
	}

	l.Call(timer.Stop)
	clk.Step(time.Second)
	time.Sleep(20 * time.Millisecond)
	l.Call(func() {})
	if got := ticks.Load(); got != 3 {
		t.Fatalf("expected no ticks after stop, got %d", got)
	}
}

func TestAfterFiresOnce(t *testing.T) {
	l, clk := startLoop(t)

	var fired atomic.Int32
	l.Call(func() { l.After(10*time.Second, func() { fired.Add(1) }) })

	clk.Step(9 * time.Second)
	time.Sleep(20 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("fired early")
	}
	clk.Step(time.Second)
	waitFor(t, time.Second, func() bool { return fired.Load() == 1 })
	waitFor(t, time.Second, func() bool { return !clk.HasWaiters() })
}

func TestPostAfterStopIsNoop(t *testing.T) {
	l, clk := startLoop(t)

	var ran atomic.Bool
	l.Call(func() { l.After(time.Second, func() { ran.Store(true) }) })
	l.Stop()

	if l.Post(func() { ran.Store(true) }) {
		t.Fatalf("expected post after stop to be rejected")
	}
	if l.Call(func() { ran.Store(true) }) {
		t.Fatalf("expected call after stop to be rejected")
	}
	clk.Step(time.Second)
	time.Sleep(20 * time.Millisecond)
	if ran.Load() {
		t.Fatalf("task ran after stop")
	}
}

func TestPanickingTaskDoesNotKillLoop(t *testing.T) {
	l, _ := startLoop(t)
	l.Post(func() { panic("boom") })
	if !l.Call(func() {}) {
		t.Fatalf("loop stopped after panic")
	}
}

func TestStopCancelsContext(t *testing.T) {
	l := New(testingclock.NewFakeClock(time.Now()), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()

	if l.Context().Err() != nil {
		t.Fatalf("context cancelled while running")
	}
	cancel()
	<-done
	if l.Context().Err() == nil {
		t.Fatalf("expected loop context to be cancelled once run returns")
	}
}
