// Package alerts raises battery threshold and smart-charging alerts.
package alerts

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"evsense/backend/services/dashboard-service/internal/models"
)

// Arm states.
const (
	StateArmed = "armed"
	StateFired = "fired"

	eventFire  = "fire"
	eventRearm = "rearm"
)

// bandWidth is how far below a threshold a first observation still fires.
const bandWidth = 2

// Speaker speaks alert text.
type Speaker interface {
	Speak(text string)
}

// Notifier shows a toast.
type Notifier interface {
	Notify(kind, title, message string) models.Notification
}

// Observer counts fired alerts.
type Observer interface {
	AlertFired(name string)
}

// Threshold describes one one-shot state of charge alert.
type Threshold struct {
	Name    string
	Level   int
	Voice   string
	Title   string
	Message string
	Kind    string
}

// DefaultThresholds are the medium (60%) and low (20%) battery alerts.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{
			Name:    "medium_battery",
			Level:   60,
			Voice:   "Attention! Battery level has dropped to 60 percent. Consider planning your next charge soon.",
			Title:   "⚠️ Medium Battery Warning",
			Message: "Battery level at 60%. Plan your charging strategy.",
			Kind:    models.NotificationWarning,
		},
		{
			Name:    "low_battery",
			Level:   20,
			Voice:   "Warning! Battery level is critically low at 20 percent. Please charge your vehicle soon to avoid getting stranded.",
			Title:   "⚠️ Low Battery Alert",
			Message: "Battery level has reached 20%. Please charge soon!",
			Kind:    models.NotificationDestructive,
		},
	}
}

type thresholdMachine struct {
	Threshold
	*fsm.FSM
}

// ThresholdEngine runs one armed/fired machine per threshold. Observe must run on the owning loop.
type ThresholdEngine struct {
	machines     []*thresholdMachine
	speaker      Speaker
	notifier     Notifier
	voiceEnabled func() bool
	observer     Observer
	logger       *zap.Logger

	lastSOC  int
	observed bool
}

// NewThresholdEngine builds armed machines for every threshold.
func NewThresholdEngine(thresholds []Threshold, speaker Speaker, notifier Notifier, voiceEnabled func() bool, observer Observer, logger *zap.Logger) *ThresholdEngine {
	e := &ThresholdEngine{
		speaker:      speaker,
		notifier:     notifier,
		voiceEnabled: voiceEnabled,
		observer:     observer,
		logger:       logger,
	}
	for _, th := range thresholds {
		e.machines = append(e.machines, e.newMachine(th))
	}
	return e
}

func (e *ThresholdEngine) newMachine(th Threshold) *thresholdMachine {
	m := &thresholdMachine{Threshold: th}
	m.FSM = fsm.NewFSM(
		StateArmed,
		fsm.Events{
			{Name: eventFire, Src: []string{StateArmed}, Dst: StateFired},
			{Name: eventRearm, Src: []string{StateFired}, Dst: StateArmed},
		},
		fsm.Callbacks{
			"enter_" + StateFired: func(_ context.Context, _ *fsm.Event) {
				e.emit(m.Threshold)
			},
			"enter_" + StateArmed: func(_ context.Context, _ *fsm.Event) {
				e.logger.Debug("alert re-armed", zap.String("alert", m.Name))
			},
		},
	)
	return m
}

// Observe feeds a new state of charge. A threshold fires when the charge lands in
// (level-2, level] or crosses down past level since the previous observation.
// A threshold re-arms once the charge rises above it.
func (e *ThresholdEngine) Observe(soc int) {
	ctx := context.Background()
	for _, m := range e.machines {
		switch {
		case soc > m.Level:
			if m.Is(StateFired) {
				e.trigger(ctx, m, eventRearm)
			}
		case m.Is(StateArmed) && e.voiceEnabled() && e.entered(soc, m.Level):
			e.trigger(ctx, m, eventFire)
		}
	}
	e.lastSOC = soc
	e.observed = true
}

func (e *ThresholdEngine) entered(soc, level int) bool {
	if soc > level-bandWidth {
		return true
	}
	return e.observed && e.lastSOC > level
}

func (e *ThresholdEngine) trigger(ctx context.Context, m *thresholdMachine, event string) {
	if err := m.Event(ctx, event); err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return
		}
		e.logger.Warn("alert transition failed", zap.String("alert", m.Name), zap.String("event", event), zap.Error(err))
	}
}

func (e *ThresholdEngine) emit(th Threshold) {
	e.logger.Info("battery alert fired", zap.String("alert", th.Name), zap.Int("level", th.Level))
	e.speaker.Speak(th.Voice)
	e.notifier.Notify(th.Kind, th.Title, th.Message)
	if e.observer != nil {
		e.observer.AlertFired(th.Name)
	}
}

// State returns the arm state of the threshold at level, or "" when unknown.
func (e *ThresholdEngine) State(level int) string {
	for _, m := range e.machines {
		if m.Level == level {
			return m.Current()
		}
	}
	return ""
}

// Reset re-arms every threshold and forgets the previous observation.
func (e *ThresholdEngine) Reset() {
	for _, m := range e.machines {
		m.SetState(StateArmed)
	}
	e.observed = false
	e.lastSOC = 0
}
