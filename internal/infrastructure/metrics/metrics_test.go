package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// scrape returns the text exposition of m.
func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	return rec.Body.String()
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/x", 200, time.Millisecond)
	m.ObserveCommand("fan", "api", "success")
	m.SetDeviceState("fan", true, 60)
	m.ObserveScheduleFire("fan", "success")
	m.ObserveBusMessage("accepted")
	m.ObserveBusPublish("success")
	m.SetBusConnected(true)
	m.ObserveStoreError("upsert")
	m.ObserveEnergySample(80)
	m.ObserveSensorSample(25, 60)
	m.SetWebSocketClients(3)
}

func TestRecording(t *testing.T) {
	m := New("")

	m.ObserveCommand("fan", "api", "success")
	m.ObserveCommand("fan", "api", "success")
	m.ObserveCommand("light", "schedule", "success")
	m.SetDeviceState("fan", true, 62.5)
	m.ObserveEnergySample(82.5)
	m.SetBusConnected(true)

	body := scrape(t, m)
	want := []string{
		`hearth_device_commands_total{device="fan",result="success",source="api"} 2`,
		`hearth_device_commands_total{device="light",result="success",source="schedule"} 1`,
		`hearth_device_on{device="fan"} 1`,
		`hearth_device_power_watts{device="fan"} 62.5`,
		`hearth_telemetry_total_power_watts 82.5`,
		`hearth_bus_connected 1`,
	}
	for _, line := range want {
		if !strings.Contains(body, line) {
			t.Errorf("exposition missing %q", line)
		}
	}
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := New("hearth")
	m.ObserveHTTP("GET", "/api/v1/health", 200, 5*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll error = %v", err)
	}
	if !strings.Contains(string(body), "hearth_http_requests_total") {
		t.Error("hearth_http_requests_total missing from exposition")
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("go collector missing from exposition")
	}
}
