package twin

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	testingclock "k8s.io/utils/clock/testing"

	"evsense/backend/services/dashboard-service/internal/alerts"
	"evsense/backend/services/dashboard-service/internal/battery"
	"evsense/backend/services/dashboard-service/internal/loop"
	"evsense/backend/services/dashboard-service/internal/models"
	"evsense/backend/services/dashboard-service/internal/notify"
	"evsense/backend/services/dashboard-service/internal/voice"
)

type fakeFeeds struct {
	mu      sync.Mutex
	sample  models.SensorSample
	err     error
	history []models.HistoricalSample
}

func (f *fakeFeeds) FetchLatest(context.Context) (models.SensorSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sample, f.err
}

func (f *fakeFeeds) FetchHistory(_ context.Context, limit int) ([]models.HistoricalSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, nil
}

func (f *fakeFeeds) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type transcript struct {
	mu    sync.Mutex
	lines []string
}

func (tr *transcript) add(text string) {
	tr.mu.Lock()
	tr.lines = append(tr.lines, text)
	tr.mu.Unlock()
}

func (tr *transcript) countPrefix(prefix string) int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	n := 0
	for _, l := range tr.lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met")
}

type harness struct {
	loop   *loop.Loop
	clock  *testingclock.FakeClock
	feeds  *fakeFeeds
	speech *transcript
	voice  *voice.Speaker
	center *notify.Center
	twin   *Twin
}

func newHarness(t *testing.T, opts ...func(*Config)) *harness {
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

	h := &harness{
		loop:   l,
		clock:  clk,
		feeds:  &fakeFeeds{sample: models.SensorSample{Voltage: 12.5, Current: 0.2, Temperature: 30, Latitude: 13.08, Longitude: 80.27}},
		speech: &transcript{},
		voice:  voice.NewSpeaker(true, zap.NewNop()),
		center: notify.NewCenter(clk, 50, nil),
	}
	h.voice.SetSink(h.speech.add)

	cfg := DefaultConfig()
	cfg.OffPeak = alerts.OffPeakConfig{Location: time.UTC}
	for _, opt := range opts {
		opt(&cfg)
	}
	h.twin = New(l, h.feeds, cfg, h.voice, h.center, nil, func() float64 { return 0.5 }, zap.NewNop())
	return h
}

func (h *harness) waitSOC(t *testing.T, soc int) Snapshot {
	t.Helper()
	waitFor(t, func() bool { return h.twin.Snapshot().Battery.SOC == soc })
	return h.twin.Snapshot()
}

func TestTwinEndToEnd(t *testing.T) {
	h := newHarness(t)
	if !h.twin.Start() {
		t.Fatalf("start failed")
	}

	waitFor(t, func() bool {
		s := h.twin.Snapshot()
		return !s.Loading && s.Sensor != nil
	})
	snap := h.twin.Snapshot()
	if snap.Battery.SOC != 85 || snap.Battery.SOH != 94 || snap.Battery.Temperature != 30 {
		t.Fatalf("initial status %+v", snap.Battery)
	}
	if snap.Battery.Status != battery.StatusNormal {
		t.Fatalf("initial status = %s", snap.Battery.Status)
	}

	for i := 1; i <= 3; i++ {
		h.clock.Step(6 * time.Second)
		snap = h.waitSOC(t, 85-2*i)
	}
	if snap.Battery.SOC != 79 || snap.Battery.Status != battery.StatusNormal {
		t.Fatalf("after three ticks: %+v", snap.Battery)
	}

	for soc := 77; soc >= 20; soc -= 2 {
		h.clock.Step(6 * time.Second)
		snap = h.waitSOC(t, soc)
	}
	// 85 decays to odd values; the first value at or below 20 is 19
	h.clock.Step(6 * time.Second)
	snap = h.waitSOC(t, 19)
	if snap.Battery.Status != battery.StatusLowBattery {
		t.Fatalf("status at 19 = %s", snap.Battery.Status)
	}
	if snap.Battery.DistanceToEmpty != 61 {
		t.Fatalf("dte at 19 = %d, want 61", snap.Battery.DistanceToEmpty)
	}

	if got := h.speech.countPrefix("Attention! Battery level has dropped to 60 percent."); got != 1 {
		t.Fatalf("medium alert spoken %d times, want 1", got)
	}
	if got := h.speech.countPrefix("Warning! Battery level is critically low"); got != 1 {
		t.Fatalf("low alert spoken %d times, want 1", got)
	}
	if snap.Alerts[60] != alerts.StateFired || snap.Alerts[20] != alerts.StateFired {
		t.Fatalf("alert states %v", snap.Alerts)
	}

	titles := map[string]bool{}
	for _, n := range h.center.List() {
		titles[n.Title] = true
	}
	if !titles["⚠️ Medium Battery Warning"] || !titles["⚠️ Low Battery Alert"] {
		t.Fatalf("missing alert notifications: %v", titles)
	}
}

func TestTwinDistanceAtTwenty(t *testing.T) {
	h := newHarness(t, func(cfg *Config) { cfg.Simulator.InitialSOC = 24 })
	h.twin.Start()

	h.clock.Step(6 * time.Second)
	h.waitSOC(t, 22)
	h.clock.Step(6 * time.Second)
	snap := h.waitSOC(t, 20)

	if snap.Battery.DistanceToEmpty != 64 {
		t.Fatalf("dte = %d, want 64", snap.Battery.DistanceToEmpty)
	}
	if snap.Battery.Status != battery.StatusMediumBattery {
		t.Fatalf("status = %s", snap.Battery.Status)
	}
	if h.speech.countPrefix("Warning! Battery level is critically low") != 1 {
		t.Fatalf("low alert must fire at 20")
	}
}

func TestTwinFailureKeepsLastSample(t *testing.T) {
	h := newHarness(t)
	h.twin.Start()
	waitFor(t, func() bool { return h.twin.Snapshot().Sensor != nil })

	h.feeds.fail(errors.New("API error 503"))
	h.twin.RefreshLatest()
	waitFor(t, func() bool { return h.twin.Snapshot().Error != "" })

	snap := h.twin.Snapshot()
	if snap.Error != "API error 503" {
		t.Fatalf("error = %q", snap.Error)
	}
	if snap.Sensor == nil || snap.Sensor.Voltage != 12.5 {
		t.Fatalf("failure must keep the previous sample")
	}

	h.feeds.fail(models.ErrEmptyResult)
	h.twin.RefreshLatest()
	waitFor(t, func() bool { return h.twin.Snapshot().Sensor == nil })
	if snap := h.twin.Snapshot(); snap.Error != "" || snap.Loading {
		t.Fatalf("empty result is a waiting state, got %+v", snap)
	}
	if snap := h.twin.Snapshot(); snap.Battery.Temperature != 0 || snap.Battery.HasSample {
		t.Fatalf("no sample must read as zero temperature")
	}
}

func TestTwinStopHaltsSimulation(t *testing.T) {
	h := newHarness(t)
	h.twin.Start()
	h.clock.Step(6 * time.Second)
	h.waitSOC(t, 83)

	h.twin.Stop()
	version := h.twin.Snapshot().Version
	h.clock.Step(6 * time.Second)
	time.Sleep(20 * time.Millisecond)
	h.loop.Call(func() {})

	snap := h.twin.Snapshot()
	if snap.Battery.SOC != 83 {
		t.Fatalf("soc moved after stop: %d", snap.Battery.SOC)
	}
	if snap.Version != version {
		t.Fatalf("snapshot republished after stop")
	}
}

func TestTwinRestartReseeds(t *testing.T) {
	h := newHarness(t)
	h.twin.Start()
	h.clock.Step(6 * time.Second)
	h.waitSOC(t, 83)

	h.twin.Start()
	if soc := h.twin.Snapshot().Battery.SOC; soc != 85 {
		t.Fatalf("restart soc = %d, want 85", soc)
	}
}

func TestTwinSettingsAndSOS(t *testing.T) {
	h := newHarness(t)
	h.twin.Start()

	s := h.twin.UpdateSettings(Settings{VoiceEnabled: false, SearchRadiusKm: 10})
	if s.VoiceEnabled || s.SearchRadiusKm != 10 {
		t.Fatalf("settings = %+v", s)
	}

	n := h.twin.SOS()
	if n.Type != models.NotificationDestructive || n.Title != "SOS Activated" {
		t.Fatalf("sos notification %+v", n)
	}
	if h.speech.countPrefix("Emergency SOS activated") != 0 {
		t.Fatalf("muted voice must not speak")
	}

	h.twin.UpdateSettings(Settings{VoiceEnabled: true})
	if got := h.twin.Settings().SearchRadiusKm; got != 10 {
		t.Fatalf("radius must survive a zero update, got %v", got)
	}
	h.twin.SOS()
	if h.speech.countPrefix("Emergency SOS activated") != 1 {
		t.Fatalf("sos must be spoken")
	}
}

func TestTwinWeatherAndTip(t *testing.T) {
	h := newHarness(t)
	h.twin.Start()
	snap := h.twin.Snapshot()
	if snap.Weather.Condition != "Hot" || snap.Tip != tips[2] {
		t.Fatalf("weather %+v tip %q", snap.Weather, snap.Tip)
	}
	if h.speech.countPrefix("Weather alert: Hot conditions may reduce range by 10 percent.") != 1 {
		t.Fatalf("weather alert not spoken")
	}
	if _, ok := weathers[0].Alert(); ok {
		t.Fatalf("clear weather must not alert")
	}
}

func TestSubscribeSeesEveryPublish(t *testing.T) {
	h := newHarness(t)
	var mu sync.Mutex
	var versions []uint64
	h.twin.Subscribe(func(s Snapshot) {
		mu.Lock()
		versions = append(versions, s.Version)
		mu.Unlock()
	})
	h.twin.Start()
	h.clock.Step(6 * time.Second)
	h.waitSOC(t, 83)

	mu.Lock()
	defer mu.Unlock()
	if len(versions) < 2 {
		t.Fatalf("versions = %v", versions)
	}
	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Fatalf("versions must increase: %v", versions)
		}
	}
}

type blockingFeeds struct {
	latest chan context.Context
}

func (b *blockingFeeds) FetchLatest(ctx context.Context) (models.SensorSample, error) {
	b.latest <- ctx
	<-ctx.Done()
	return models.SensorSample{}, ctx.Err()
}

func (b *blockingFeeds) FetchHistory(context.Context, int) ([]models.HistoricalSample, error) {
	return nil, nil
}

func TestLoopShutdownAbortsFeedRequests(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	l := loop.New(clk, zap.NewNop())
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(runCtx)
		close(done)
	}()

	feeds := &blockingFeeds{latest: make(chan context.Context, 1)}
	cfg := DefaultConfig()
	cfg.OffPeak = alerts.OffPeakConfig{Location: time.UTC}
	tw := New(l, feeds, cfg, voice.NewSpeaker(false, zap.NewNop()), notify.NewCenter(clk, 50, nil), nil, func() float64 { return 0.5 }, zap.NewNop())
	if !tw.Start() {
		t.Fatalf("start rejected")
	}
	inflight := <-feeds.latest

	cancel()
	<-done
	waitFor(t, func() bool { return inflight.Err() != nil })
	if tw.Stop() {
		t.Fatalf("stop must be rejected once the loop is gone")
	}
}

func TestStopBeforeLoopShutdownAbortsFeedRequests(t *testing.T) {
	h := newHarness(t)
	feeds := &blockingFeeds{latest: make(chan context.Context, 1)}
	cfg := DefaultConfig()
	cfg.OffPeak = alerts.OffPeakConfig{Location: time.UTC}
	tw := New(h.loop, feeds, cfg, h.voice, h.center, nil, func() float64 { return 0.5 }, zap.NewNop())
	tw.Start()
	inflight := <-feeds.latest

	if !tw.Stop() {
		t.Fatalf("stop rejected while loop runs")
	}
	if inflight.Err() == nil {
		t.Fatalf("expected in-flight request to be aborted by stop")
	}
}
