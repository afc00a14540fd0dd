// Package simulator drives the simulated state of charge, state of health and range jitter.
package simulator

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"evsense/backend/services/dashboard-service/internal/battery"
	"evsense/backend/services/dashboard-service/internal/loop"
)

// Config controls simulator cadence and seed values.
type Config struct {
	DecayInterval  time.Duration
	SOHInterval    time.Duration
	JitterInterval time.Duration
	DecayStep      int
	InitialSOC     int
	InitialSOH     float64
}

// DefaultConfig returns the dashboard simulation cadence.
func DefaultConfig() Config {
	return Config{
		DecayInterval:  6 * time.Second,
		SOHInterval:    15 * time.Second,
		JitterInterval: 8 * time.Second,
		DecayStep:      2,
		InitialSOC:     85,
		InitialSOH:     94,
	}
}

const (
	sohCenter    = 94.0
	sohSpread    = 4.0
	sohMin       = 92.0
	sohMax       = 96.0
	jitterSpread = 10.0
)

// Simulator owns SimState. Every method must run on the owning loop.
type Simulator struct {
	cfg      Config
	loop     *loop.Loop
	rand     func() float64
	onChange func(battery.SimState)
	logger   *zap.Logger

	state   battery.SimState
	running bool
	decay   *loop.Timer
	soh     *loop.Timer
	jitter  *loop.Timer
}

// New builds a stopped simulator. rnd returns values in [0, 1); nil uses math/rand.
func New(l *loop.Loop, cfg Config, rnd func() float64, onChange func(battery.SimState), logger *zap.Logger) *Simulator {
	if rnd == nil {
		rnd = rand.Float64
	}
	if onChange == nil {
		onChange = func(battery.SimState) {}
	}
	return &Simulator{
		cfg:      cfg,
		loop:     l,
		rand:     rnd,
		onChange: onChange,
		logger:   logger,
		state:    seed(cfg),
	}
}

func seed(cfg Config) battery.SimState {
	return battery.SimState{SOC: cfg.InitialSOC, SOH: cfg.InitialSOH, DTEJitter: 0}
}

// Start re-seeds the defaults and arms all timers. Earlier values are never reused.
func (s *Simulator) Start() {
	if s.running {
		s.Stop()
	}
	s.running = true
	s.state = seed(s.cfg)
	s.logger.Info("battery simulation started",
		zap.Int("soc", s.state.SOC),
		zap.Float64("soh", s.state.SOH),
	)

	s.scheduleDecay()
	s.soh = s.loop.Every(s.cfg.SOHInterval, s.walkSOH)
	s.jitter = s.loop.Every(s.cfg.JitterInterval, s.jitterDTE)
	s.onChange(s.state)
}

// Stop cancels every timer.
func (s *Simulator) Stop() {
	s.running = false
	s.decay.Stop()
	s.soh.Stop()
	s.jitter.Stop()
	s.decay, s.soh, s.jitter = nil, nil, nil
}

// State returns the current simulated values.
func (s *Simulator) State() battery.SimState {
	return s.state
}

// DecayScheduled reports whether a decay step is pending.
func (s *Simulator) DecayScheduled() bool {
	return s.decay != nil && !s.decay.Stopped()
}

func (s *Simulator) scheduleDecay() {
	if !s.running || s.state.SOC <= 0 {
		s.decay = nil
		return
	}
	s.decay = s.loop.After(s.cfg.DecayInterval, s.decaySOC)
}

func (s *Simulator) decaySOC() {
	if !s.running {
		return
	}
	s.applyDecay()
	s.scheduleDecay()
	if s.state.SOC == 0 {
		s.logger.Info("simulated battery depleted")
	}
	s.onChange(s.state)
}

func (s *Simulator) applyDecay() {
	if s.state.SOC <= 0 {
		return
	}
	s.state.SOC -= s.cfg.DecayStep
	if s.state.SOC < 0 {
		s.state.SOC = 0
	}
}

func (s *Simulator) walkSOH() {
	if !s.running {
		return
	}
	s.state.SOH = nextSOH(s.rand())
	s.onChange(s.state)
}

func (s *Simulator) jitterDTE() {
	if !s.running {
		return
	}
	s.state.DTEJitter = (s.rand() - 0.5) * jitterSpread
	s.onChange(s.state)
}

func nextSOH(r float64) float64 {
	v := battery.Round(sohCenter+(r-0.5)*sohSpread, 1)
	if v < sohMin {
		return sohMin
	}
	if v > sohMax {
		return sohMax
	}
	return v
}
