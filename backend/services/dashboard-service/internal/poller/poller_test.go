package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	testingclock "k8s.io/utils/clock/testing"

	"evsense/backend/services/dashboard-service/internal/loop"
	"evsense/backend/services/dashboard-service/internal/models"
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

func startLoop(t *testing.T) (*loop.Loop, *testingclock.FakeClock) {
	t.Helper()
	clk := testingclock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	l := loop.New(clk, zap.NewNop())
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

type outcomeLog struct {
	mu       sync.Mutex
	outcomes []Outcome[string]
}

func (o *outcomeLog) add(out Outcome[string]) {
	o.mu.Lock()
	o.outcomes = append(o.outcomes, out)
	o.mu.Unlock()
}

func (o *outcomeLog) snapshot() []Outcome[string] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Outcome[string](nil), o.outcomes...)
}

type countingObserver struct {
	discards atomic.Int32
	polls    atomic.Int32
}

func (c *countingObserver) ObservePoll(string, Kind) { c.polls.Add(1) }
func (c *countingObserver) ObserveDiscard(string)    { c.discards.Add(1) }

func TestOutcomeKinds(t *testing.T) {
	l, clk := startLoop(t)

	results := []struct {
		value string
		err   error
		want  Kind
	}{
		{value: "v1", want: Success},
		{err: models.ErrEmptyResult, want: Empty},
		{err: errors.New("API error 500"), want: Failure},
		{value: "v2", want: Success},
	}
	var calls atomic.Int32
	fetch := func(context.Context) (string, error) {
		r := results[calls.Add(1)-1]
		return r.value, r.err
	}

	log := &outcomeLog{}
	p := New("latest", l, time.Second, fetch, log.add, nil, zap.NewNop())
	l.Call(p.Start)
	waitFor(t, time.Second, func() bool { return len(log.snapshot()) == 1 })

	for i := 2; i <= len(results); i++ {
		clk.Step(time.Second)
		want := i
		waitFor(t, time.Second, func() bool { return len(log.snapshot()) == want })
	}

	got := log.snapshot()
	for i, r := range results {
		if got[i].Kind != r.want {
			t.Fatalf("outcome %d: expected %v, got %v", i, r.want, got[i].Kind)
		}
	}
	if got[2].Message() != "API error 500" {
		t.Fatalf("expected failure message, got %q", got[2].Message())
	}
	if got[3].Value != "v2" {
		t.Fatalf("failure must not stop the schedule, got %+v", got[3])
	}
}

func TestSupersededResponseIsDiscarded(t *testing.T) {
	l, clk := startLoop(t)

	release := make(chan struct{})
	firstCtx := make(chan context.Context, 1)
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		switch calls.Add(1) {
		case 1:
			firstCtx <- ctx
			<-release
			return "late", nil
		default:
			return "fresh", nil
		}
	}

	log := &outcomeLog{}
	obs := &countingObserver{}
	p := New("latest", l, time.Second, fetch, log.add, obs, zap.NewNop())
	l.Call(p.Start)

	ctx1 := <-firstCtx
	clk.Step(time.Second)
	waitFor(t, time.Second, func() bool { return len(log.snapshot()) == 1 })

	if ctx1.Err() == nil {
		t.Fatalf("expected superseded request to be cancelled")
	}

	close(release)
	waitFor(t, time.Second, func() bool { return obs.discards.Load() == 1 })
	l.Call(func() {})

	got := log.snapshot()
	if len(got) != 1 || got[0].Value != "fresh" || got[0].Seq != 2 {
		t.Fatalf("expected only the newer result to apply, got %+v", got)
	}
}

func TestStopDropsInFlightOutcome(t *testing.T) {
	l, clk := startLoop(t)

	release := make(chan struct{})
	started := make(chan context.Context, 1)
	fetch := func(ctx context.Context) (string, error) {
		started <- ctx
		<-release
		return "", ctx.Err()
	}

	log := &outcomeLog{}
	obs := &countingObserver{}
	p := New("history", l, 5*time.Minute, fetch, log.add, obs, zap.NewNop())
	l.Call(p.Start)
	ctx := <-started

	l.Call(p.Stop)
	if ctx.Err() == nil {
		t.Fatalf("expected in-flight request to be aborted")
	}
	close(release)
	waitFor(t, time.Second, func() bool { return obs.discards.Load() == 1 })

	clk.Step(5 * time.Minute)
	time.Sleep(20 * time.Millisecond)
	l.Call(func() {})
	if n := len(log.snapshot()); n != 0 {
		t.Fatalf("expected no outcome after stop, got %d", n)
	}
	select {
	case <-started:
		t.Fatalf("no fetch may be issued after stop")
	default:
	}
}

func TestLoopShutdownAbortsInFlightFetch(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	l := loop.New(clk, zap.NewNop())
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(runCtx)
		close(done)
	}()

	started := make(chan context.Context, 1)
	fetch := func(ctx context.Context) (string, error) {
		started <- ctx
		<-ctx.Done()
		return "", ctx.Err()
	}
	log := &outcomeLog{}
	p := New("latest", l, time.Second, fetch, log.add, nil, zap.NewNop())
	l.Call(p.Start)
	ctx := <-started

	cancel()
	<-done
	waitFor(t, time.Second, func() bool { return ctx.Err() != nil })
	time.Sleep(20 * time.Millisecond)
	if n := len(log.snapshot()); n != 0 {
		t.Fatalf("expected no outcome after shutdown, got %d", n)
	}
}
