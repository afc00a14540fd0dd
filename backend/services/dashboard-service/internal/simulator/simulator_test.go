package simulator

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	testingclock "k8s.io/utils/clock/testing"

	"evsense/backend/services/dashboard-service/internal/battery"
	"evsense/backend/services/dashboard-service/internal/loop"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
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

func decayOnly() Config {
	cfg := DefaultConfig()
	cfg.SOHInterval = time.Hour
	cfg.JitterInterval = time.Hour
	return cfg
}

func stateOf(l *loop.Loop, s *Simulator) (st battery.SimState, scheduled bool) {
	l.Call(func() {
		st = s.State()
		scheduled = s.DecayScheduled()
	})
	return st, scheduled
}

func TestDecayIsMonotonicAndStopsAtZero(t *testing.T) {
	l, clk := startLoop(t)
	sim := New(l, decayOnly(), func() float64 { return 0.5 }, nil, zap.NewNop())
	l.Call(sim.Start)

	prev := 85
	ticks := 0
	for {
		st, scheduled := stateOf(l, sim)
		if st.SOC == 0 {
			if scheduled {
				t.Fatalf("decay must not be rescheduled at zero")
			}
			break
		}
		if !scheduled {
			t.Fatalf("decay must stay scheduled while soc > 0 (soc=%d)", st.SOC)
		}

		clk.Step(6 * time.Second)
		ticks++
		want := prev - 2
		if want < 0 {
			want = 0
		}
		waitFor(t, time.Second, func() bool {
			got, _ := stateOf(l, sim)
			return got.SOC == want
		})
		prev = want
		if ticks > 50 {
			t.Fatalf("soc never reached zero")
		}
	}
	if ticks != 43 {
		t.Fatalf("expected 43 decay ticks from 85 to 0, got %d", ticks)
	}

	for i := 0; i < 5; i++ {
		clk.Step(6 * time.Second)
	}
	time.Sleep(20 * time.Millisecond)
	if st, _ := stateOf(l, sim); st.SOC != 0 {
		t.Fatalf("soc moved after reaching zero: %d", st.SOC)
	}
}

func TestStartReseedsDefaults(t *testing.T) {
	l, clk := startLoop(t)
	var changes []battery.SimState
	sim := New(l, DefaultConfig(), func() float64 { return 0.9 }, func(s battery.SimState) {
		changes = append(changes, s)
	}, zap.NewNop())

	l.Call(sim.Start)
	clk.Step(6 * time.Second)
	waitFor(t, time.Second, func() bool {
		st, _ := stateOf(l, sim)
		return st.SOC == 83
	})

	l.Call(sim.Start)
	st, scheduled := stateOf(l, sim)
	if st != (battery.SimState{SOC: 85, SOH: 94, DTEJitter: 0}) || !scheduled {
		t.Fatalf("expected reseeded defaults, got %+v scheduled=%v", st, scheduled)
	}

	var n int
	l.Call(func() { n = len(changes) })
	if n < 3 {
		t.Fatalf("expected a change notification per start and tick, got %d", n)
	}
}

func TestStopCancelsTimers(t *testing.T) {
	l, clk := startLoop(t)
	var changes int
	sim := New(l, DefaultConfig(), func() float64 { return 0.9 }, func(battery.SimState) { changes++ }, zap.NewNop())
	l.Call(sim.Start)
	l.Call(sim.Stop)

	var before int
	l.Call(func() { before = changes })
	for i := 0; i < 3; i++ {
		clk.Step(15 * time.Second)
	}
	time.Sleep(20 * time.Millisecond)

	st, scheduled := stateOf(l, sim)
	if st != (battery.SimState{SOC: 85, SOH: 94, DTEJitter: 0}) || scheduled {
		t.Fatalf("expected frozen state after stop, got %+v scheduled=%v", st, scheduled)
	}
	var after int
	l.Call(func() { after = changes })
	if after != before {
		t.Fatalf("expected no change notifications after stop, got %d", after-before)
	}
}

func TestSOHWalkBounds(t *testing.T) {
	for _, r := range []float64{0, 0.0001, 0.25, 0.5, 0.73, 0.9999, 0.99999999} {
		got := nextSOH(r)
		if got < 92 || got > 96 {
			t.Fatalf("nextSOH(%v) = %v out of bounds", r, got)
		}
		if battery.Round(got, 1) != got {
			t.Fatalf("nextSOH(%v) = %v not rounded to one decimal", r, got)
		}
	}
	if got := nextSOH(0.5); got != 94 {
		t.Fatalf("expected centre value 94, got %v", got)
	}
}

func TestJitterAndSOHTicks(t *testing.T) {
	l, clk := startLoop(t)
	sim := New(l, DefaultConfig(), func() float64 { return 1 }, nil, zap.NewNop())
	l.Call(sim.Start)

	clk.Step(8 * time.Second)
	waitFor(t, time.Second, func() bool {
		st, _ := stateOf(l, sim)
		return st.DTEJitter == 5
	})
	clk.Step(7 * time.Second)
	waitFor(t, time.Second, func() bool {
		st, _ := stateOf(l, sim)
		return st.SOH == 96
	})
}
