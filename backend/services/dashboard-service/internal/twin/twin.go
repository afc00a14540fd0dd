// Package twin owns the battery digital twin: the simulator, both sensor feeds and
// the alerts, all driven from one loop, and publishes an immutable snapshot after
// every state change.
package twin

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"evsense/backend/services/dashboard-service/internal/alerts"
	"evsense/backend/services/dashboard-service/internal/battery"
	"evsense/backend/services/dashboard-service/internal/loop"
	"evsense/backend/services/dashboard-service/internal/models"
	"evsense/backend/services/dashboard-service/internal/poller"
	"evsense/backend/services/dashboard-service/internal/simulator"
)

const (
	feedLatest  = "latest"
	feedHistory = "history"

	// DefaultHistoryLimit is the number of history rows requested per poll.
	DefaultHistoryLimit = 100
	// DefaultSearchRadiusKm is the initial station search radius.
	DefaultSearchRadiusKm = 5

	sosVoice   = "Emergency SOS activated. Contacting nearest service center and emergency contacts."
	sosTitle   = "SOS Activated"
	sosMessage = "Emergency services have been notified. Help is on the way!"
)

// Feeds fetches sensor data from the telemetry backend.
type Feeds interface {
	FetchLatest(ctx context.Context) (models.SensorSample, error)
	FetchHistory(ctx context.Context, limit int) ([]models.HistoricalSample, error)
}

// Observer receives feed, alert and status accounting.
type Observer interface {
	poller.Observer
	alerts.Observer
	ObserveStatus(s battery.BatteryStatus)
}

// VoiceOutput is a speaker whose output can be switched off.
type VoiceOutput interface {
	Speak(text string)
	Enabled() bool
	SetEnabled(enabled bool)
}

// Config controls polling and simulation cadence.
type Config struct {
	LatestInterval  time.Duration
	HistoryInterval time.Duration
	HistoryLimit    int
	Simulator       simulator.Config
	OffPeak         alerts.OffPeakConfig
	SearchRadiusKm  float64
}

// DefaultConfig polls the latest sample every second and history every five minutes.
func DefaultConfig() Config {
	return Config{
		LatestInterval:  time.Second,
		HistoryInterval: 5 * time.Minute,
		HistoryLimit:    DefaultHistoryLimit,
		Simulator:       simulator.DefaultConfig(),
		SearchRadiusKm:  DefaultSearchRadiusKm,
	}
}

// Settings are the driver preferences the twin honours.
type Settings struct {
	VoiceEnabled   bool    `json:"voiceEnabled"`
	SearchRadiusKm float64 `json:"searchRadius"`
}

// Snapshot is the published twin state. It is never mutated after publishing.
type Snapshot struct {
	Version        uint64                    `json:"version"`
	UpdatedAt      time.Time                 `json:"updatedAt"`
	Battery        battery.BatteryStatus     `json:"battery"`
	Sensor         *models.SensorSample      `json:"sensor"`
	Loading        bool                      `json:"loading"`
	Error          string                    `json:"error,omitempty"`
	History        []models.HistoricalSample `json:"-"`
	HistoryLoading bool                      `json:"historyLoading"`
	HistoryError   string                    `json:"historyError,omitempty"`
	GridAlert      bool                      `json:"gridAlert"`
	Alerts         map[int]string            `json:"alerts"`
	Weather        Weather                   `json:"weather"`
	Tip            string                    `json:"tip"`
}

// Twin is the application state container.
type Twin struct {
	cfg        Config
	loop       *loop.Loop
	sim        *simulator.Simulator
	latest     *poller.Poller[models.SensorSample]
	history    *poller.Poller[[]models.HistoricalSample]
	thresholds *alerts.ThresholdEngine
	offPeak    *alerts.OffPeakChecker
	voice      VoiceOutput
	notifier   alerts.Notifier
	observer   Observer
	rand       func() float64
	logger     *zap.Logger

	// owned by the loop
	sample        *models.SensorSample
	latestErr     string
	latestLoading bool
	hist          []models.HistoricalSample
	histErr       string
	histLoading   bool
	gridAlert     bool
	weather       Weather
	tip           string
	version       uint64
	running       bool

	snap atomic.Pointer[Snapshot]

	mu        sync.RWMutex
	listeners []func(Snapshot)
	radius    float64
}

// New wires a stopped twin onto l. rnd returns values in [0, 1); nil uses math/rand.
func New(l *loop.Loop, feeds Feeds, cfg Config, out VoiceOutput, notifier alerts.Notifier, observer Observer, rnd func() float64, logger *zap.Logger) *Twin {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.SearchRadiusKm <= 0 {
		cfg.SearchRadiusKm = DefaultSearchRadiusKm
	}
	if observer == nil {
		observer = nopObserver{}
	}
	rnd = orDefaultRand(rnd)

	t := &Twin{
		cfg:      cfg,
		loop:     l,
		voice:    out,
		notifier: notifier,
		observer: observer,
		rand:     rnd,
		logger:   logger,
		radius:   cfg.SearchRadiusKm,
	}
	t.sim = simulator.New(l, cfg.Simulator, rnd, func(battery.SimState) { t.recompute() }, logger.Named("simulator"))
	t.latest = poller.New(feedLatest, l, cfg.LatestInterval, feeds.FetchLatest, t.onLatest, observer, logger)
	t.history = poller.New(feedHistory, l, cfg.HistoryInterval,
		func(ctx context.Context) ([]models.HistoricalSample, error) {
			return feeds.FetchHistory(ctx, cfg.HistoryLimit)
		}, t.onHistory, observer, logger)
	t.thresholds = alerts.NewThresholdEngine(alerts.DefaultThresholds(), out, notifier, out.Enabled, observer, logger.Named("alerts"))
	t.offPeak = alerts.NewOffPeakChecker(l, cfg.OffPeak, t.currentSOC, out, notifier, observer, t.onGridAlert, logger.Named("offpeak"))
	t.snap.Store(&Snapshot{Loading: true, HistoryLoading: true, History: []models.HistoricalSample{}, Alerts: map[int]string{}})
	return t
}

// Start seeds the simulator, issues both fetches and arms every timer. It blocks
// until the loop has applied it and reports false when the loop is stopped.
func (t *Twin) Start() bool {
	return t.loop.Call(t.start)
}

// Stop cancels every timer and in-flight fetch.
func (t *Twin) Stop() bool {
	return t.loop.Call(t.stop)
}

func (t *Twin) start() {
	if t.running {
		t.stop()
	}
	t.running = true
	t.latestLoading, t.histLoading = true, true
	t.sample, t.latestErr, t.histErr = nil, "", ""
	t.hist = []models.HistoricalSample{}
	t.gridAlert = false
	t.thresholds.Reset()

	t.weather = pickWeather(t.rand())
	t.tip = pickTip(t.rand())
	if msg, ok := t.weather.Alert(); ok {
		t.voice.Speak(msg)
	}

	t.sim.Start()
	t.latest.Start()
	t.history.Start()
	t.offPeak.Start()
	t.logger.Info("battery twin started", zap.String("weather", t.weather.Condition))
}

func (t *Twin) stop() {
	if !t.running {
		return
	}
	t.running = false
	t.sim.Stop()
	t.latest.Stop()
	t.history.Stop()
	t.offPeak.Stop()
	t.logger.Info("battery twin stopped")
}

func (t *Twin) onLatest(o poller.Outcome[models.SensorSample]) {
	switch o.Kind {
	case poller.Success:
		s := o.Value
		t.sample = &s
		t.latestErr = ""
	case poller.Empty:
		t.sample = nil
		t.latestErr = ""
	default:
		t.latestErr = o.Message()
	}
	t.latestLoading = false
	t.recompute()
}

func (t *Twin) onHistory(o poller.Outcome[[]models.HistoricalSample]) {
	switch o.Kind {
	case poller.Success:
		t.hist = o.Value
		if t.hist == nil {
			t.hist = []models.HistoricalSample{}
		}
		t.histErr = ""
	case poller.Empty:
		t.hist = []models.HistoricalSample{}
		t.histErr = ""
	default:
		t.histErr = o.Message()
	}
	t.histLoading = false
	t.publish(t.snap.Load().Battery)
}

func (t *Twin) onGridAlert(active bool) {
	t.gridAlert = active
	t.publish(t.snap.Load().Battery)
}

func (t *Twin) currentSOC() int {
	return t.sim.State().SOC
}

// recompute derives the status once and evaluates the thresholds against it.
func (t *Twin) recompute() {
	status := battery.ComputeStatus(t.sample, t.sim.State())
	t.thresholds.Observe(status.SOC)
	t.publish(status)
}

func (t *Twin) publish(status battery.BatteryStatus) {
	t.version++
	var sample *models.SensorSample
	if t.sample != nil {
		s := *t.sample
		sample = &s
	}
	snap := Snapshot{
		Version:        t.version,
		UpdatedAt:      t.loop.Clock().Now().UTC(),
		Battery:        status,
		Sensor:         sample,
		Loading:        t.latestLoading,
		Error:          t.latestErr,
		History:        t.hist,
		HistoryLoading: t.histLoading,
		HistoryError:   t.histErr,
		GridAlert:      t.gridAlert,
		Alerts: map[int]string{
			battery.MediumBatterySOC: t.thresholds.State(battery.MediumBatterySOC),
			battery.LowBatterySOC:    t.thresholds.State(battery.LowBatterySOC),
		},
		Weather: t.weather,
		Tip:     t.tip,
	}
	t.snap.Store(&snap)
	t.observer.ObserveStatus(status)

	t.mu.RLock()
	listeners := t.listeners
	t.mu.RUnlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

// Snapshot returns the most recently published state.
func (t *Twin) Snapshot() Snapshot {
	return *t.snap.Load()
}

// Status returns the most recently published battery status.
func (t *Twin) Status() battery.BatteryStatus {
	return t.snap.Load().Battery
}

// Subscribe registers fn for every published snapshot. fn runs on the loop and must not block.
func (t *Twin) Subscribe(fn func(Snapshot)) {
	t.mu.Lock()
	t.listeners = append(append([]func(Snapshot){}, t.listeners...), fn)
	t.mu.Unlock()
}

// RefreshLatest issues a latest-sample fetch now, superseding any in flight.
func (t *Twin) RefreshLatest() bool {
	return t.loop.Post(func() {
		if t.running {
			t.latest.Tick()
		}
	})
}

// SOS raises the emergency alert.
func (t *Twin) SOS() models.Notification {
	t.logger.Warn("sos activated")
	t.voice.Speak(sosVoice)
	return t.notifier.Notify(models.NotificationDestructive, sosTitle, sosMessage)
}

// Settings returns the current driver preferences.
func (t *Twin) Settings() Settings {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Settings{VoiceEnabled: t.voice.Enabled(), SearchRadiusKm: t.radius}
}

// UpdateSettings applies s and republishes, so an alert held back by muted voice can fire.
func (t *Twin) UpdateSettings(s Settings) Settings {
	t.mu.Lock()
	if s.SearchRadiusKm > 0 {
		t.radius = s.SearchRadiusKm
	}
	t.mu.Unlock()
	t.voice.SetEnabled(s.VoiceEnabled)
	t.logger.Info("settings updated", zap.Bool("voice_enabled", s.VoiceEnabled), zap.Float64("search_radius_km", s.SearchRadiusKm))
	t.loop.Post(func() {
		if t.running {
			t.recompute()
		}
	})
	return t.Settings()
}

type nopObserver struct{}

func (nopObserver) ObservePoll(string, poller.Kind)     {}
func (nopObserver) ObserveDiscard(string)               {}
func (nopObserver) AlertFired(string)                   {}
func (nopObserver) ObserveStatus(battery.BatteryStatus) {}
