package alerts

import (
	"time"

	"go.uber.org/zap"

	"evsense/backend/services/dashboard-service/internal/loop"
	"evsense/backend/services/dashboard-service/internal/models"
)

// Off-peak defaults.
const (
	DefaultOffPeakCheck  = 30 * time.Second
	DefaultGridAlertHold = 10 * time.Second
)

const (
	offPeakName    = "off_peak"
	offPeakStart   = 22
	offPeakEnd     = 6
	offPeakMaxSOC  = 80
	offPeakVoice   = "Smart charging alert: Grid load is low. This is an optimal time for charging with lower rates."
	offPeakTitle   = "Smart Charging Alert"
	offPeakMessage = "Off-peak hours detected. Save up to 40% on charging costs!"
)

// OffPeakChecker suggests charging during low grid load. All methods must run on the owning loop.
type OffPeakChecker struct {
	loop     *loop.Loop
	interval time.Duration
	hold     time.Duration
	location *time.Location
	soc      func() int
	speaker  Speaker
	notifier Notifier
	observer Observer
	onAlert  func(active bool)
	logger   *zap.Logger

	timer  *loop.Timer
	clear  *loop.Timer
	active bool
}

// OffPeakConfig controls the checker cadence.
type OffPeakConfig struct {
	Interval time.Duration
	Hold     time.Duration
	Location *time.Location
}

// NewOffPeakChecker builds a stopped checker. onAlert sees every grid alert flag change.
func NewOffPeakChecker(l *loop.Loop, cfg OffPeakConfig, soc func() int, speaker Speaker, notifier Notifier, observer Observer, onAlert func(bool), logger *zap.Logger) *OffPeakChecker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultOffPeakCheck
	}
	if cfg.Hold <= 0 {
		cfg.Hold = DefaultGridAlertHold
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if onAlert == nil {
		onAlert = func(bool) {}
	}
	return &OffPeakChecker{
		loop:     l,
		interval: cfg.Interval,
		hold:     cfg.Hold,
		location: cfg.Location,
		soc:      soc,
		speaker:  speaker,
		notifier: notifier,
		observer: observer,
		onAlert:  onAlert,
		logger:   logger,
	}
}

// Start arms the periodic check. The first check runs one interval after Start.
func (c *OffPeakChecker) Start() {
	if c.timer != nil {
		return
	}
	c.timer = c.loop.Every(c.interval, c.check)
}

// Stop cancels the check and any pending clear, and drops the alert flag.
func (c *OffPeakChecker) Stop() {
	c.timer.Stop()
	c.clear.Stop()
	c.timer, c.clear = nil, nil
	c.setActive(false)
}

// Active reports whether the grid alert flag is raised.
func (c *OffPeakChecker) Active() bool {
	return c.active
}

// IsOffPeak reports whether hour falls in the 22:00-06:59 window.
func IsOffPeak(hour int) bool {
	return hour >= offPeakStart || hour <= offPeakEnd
}

func (c *OffPeakChecker) check() {
	hour := c.loop.Clock().Now().In(c.location).Hour()
	soc := c.soc()
	if !IsOffPeak(hour) || soc >= offPeakMaxSOC {
		return
	}

	c.logger.Info("off-peak charging window", zap.Int("hour", hour), zap.Int("soc", soc))
	c.setActive(true)
	c.speaker.Speak(offPeakVoice)
	c.notifier.Notify(models.NotificationInfo, offPeakTitle, offPeakMessage)
	if c.observer != nil {
		c.observer.AlertFired(offPeakName)
	}

	c.clear.Stop()
	c.clear = c.loop.After(c.hold, func() {
		c.clear = nil
		c.setActive(false)
	})
}

func (c *OffPeakChecker) setActive(active bool) {
	if c.active == active {
		return
	}
	c.active = active
	c.onAlert(active)
}
