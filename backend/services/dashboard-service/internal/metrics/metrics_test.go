package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"evsense/backend/services/dashboard-service/internal/battery"
	"evsense/backend/services/dashboard-service/internal/poller"
)

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObservePoll("latest", poller.Success)
	m.ObservePoll("latest", poller.Failure)
	m.ObserveDiscard("history")
	m.AlertFired("low_battery")
	m.ObserveStatus(battery.BatteryStatus{SOC: 42, SOH: 94, DistanceToEmpty: 134})
	m.ClientConnected()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`dashboard_feed_polls_total{feed="latest",outcome="success"} 1`,
		`dashboard_feed_polls_total{feed="latest",outcome="failure"} 1`,
		`dashboard_feed_discarded_total{feed="history"} 1`,
		`dashboard_alerts_fired_total{alert="low_battery"} 1`,
		`dashboard_battery_soc_percent 42`,
		`dashboard_distance_to_empty_km 134`,
		`dashboard_ws_clients 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
