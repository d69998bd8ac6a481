// Package metrics exposes Hearth's Prometheus instruments.
//
// Every component receives the same *Metrics from main. All recording
// methods are nil-safe so tests and optional wiring can pass nil.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "hearth"

// Metrics holds a private registry and the instruments registered on it.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DeviceCommandsTotal *prometheus.CounterVec
	DeviceOn            *prometheus.GaugeVec
	DevicePowerWatts    *prometheus.GaugeVec

	ScheduleFiresTotal *prometheus.CounterVec

	BusMessagesTotal *prometheus.CounterVec
	BusPublishTotal  *prometheus.CounterVec
	BusConnected     prometheus.Gauge

	StoreErrorsTotal *prometheus.CounterVec

	TelemetrySamplesTotal *prometheus.CounterVec
	TotalPowerWatts       prometheus.Gauge
	TemperatureCelsius    prometheus.Gauge
	HumidityPercent       prometheus.Gauge

	WebSocketClients prometheus.Gauge
}

// New creates the instruments under namespace and registers them, along
// with the Go and process collectors, on a fresh registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		DeviceCommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "device",
				Name:      "commands_total",
				Help:      "Device control commands by producer and outcome",
			},
			[]string{"device", "source", "result"}, // result: success, invalid, error
		),
		DeviceOn: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "device",
				Name:      "on",
				Help:      "1 when the device is ON, 0 when OFF",
			},
			[]string{"device"},
		),
		DevicePowerWatts: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "device",
				Name:      "power_watts",
				Help:      "Current simulated draw per device",
			},
			[]string{"device"},
		),
		ScheduleFiresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "fires_total",
				Help:      "Schedule rule firings by outcome",
			},
			[]string{"device", "result"},
		),
		BusMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bus",
				Name:      "messages_total",
				Help:      "Inbound bus messages by outcome",
			},
			[]string{"result"}, // result: accepted, ignored, invalid
		),
		BusPublishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "bus",
				Name:      "publish_total",
				Help:      "Outbound state publishes by outcome",
			},
			[]string{"result"}, // result: success, error, skipped
		),
		StoreErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "errors_total",
				Help:      "Persistence failures by operation",
			},
			[]string{"op"},
		),
		TelemetrySamplesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "telemetry",
				Name:      "samples_total",
				Help:      "Telemetry samples taken by kind",
			},
			[]string{"kind"}, // kind: energy, sensor
		),
		TotalPowerWatts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "total_power_watts",
			Help:      "Last sampled household draw including baseline",
		}),
		TemperatureCelsius: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "temperature_celsius",
			Help:      "Last sampled ambient temperature",
		}),
		HumidityPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "telemetry",
			Name:      "humidity_percent",
			Help:      "Last sampled relative humidity",
		}),
		BusConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "connected",
			Help:      "1 while the broker connection is up",
		}),
		WebSocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "clients",
			Help:      "Connected WebSocket clients",
		}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DeviceCommandsTotal,
		m.DeviceOn,
		m.DevicePowerWatts,
		m.ScheduleFiresTotal,
		m.BusMessagesTotal,
		m.BusPublishTotal,
		m.BusConnected,
		m.StoreErrorsTotal,
		m.TelemetrySamplesTotal,
		m.TotalPowerWatts,
		m.TemperatureCelsius,
		m.HumidityPercent,
		m.WebSocketClients,
	)

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveCommand counts a control command.
func (m *Metrics) ObserveCommand(device, source, result string) {
	if m == nil {
		return
	}
	m.DeviceCommandsTotal.WithLabelValues(device, source, result).Inc()
}

// SetDeviceState updates the per-device on/off and power gauges.
func (m *Metrics) SetDeviceState(device string, on bool, powerWatts float64) {
	if m == nil {
		return
	}
	v := 0.0
	if on {
		v = 1
	}
	m.DeviceOn.WithLabelValues(device).Set(v)
	m.DevicePowerWatts.WithLabelValues(device).Set(powerWatts)
}

// ObserveScheduleFire counts a rule firing.
func (m *Metrics) ObserveScheduleFire(device, result string) {
	if m == nil {
		return
	}
	m.ScheduleFiresTotal.WithLabelValues(device, result).Inc()
}

// ObserveBusMessage counts an inbound bus message.
func (m *Metrics) ObserveBusMessage(result string) {
	if m == nil {
		return
	}
	m.BusMessagesTotal.WithLabelValues(result).Inc()
}

// ObserveBusPublish counts an outbound publish attempt.
func (m *Metrics) ObserveBusPublish(result string) {
	if m == nil {
		return
	}
	m.BusPublishTotal.WithLabelValues(result).Inc()
}

// SetBusConnected reports the broker connection state.
func (m *Metrics) SetBusConnected(up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.BusConnected.Set(v)
}

// ObserveStoreError counts a failed persistence call.
func (m *Metrics) ObserveStoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrorsTotal.WithLabelValues(op).Inc()
}

// ObserveEnergySample records an energy sample.
func (m *Metrics) ObserveEnergySample(totalWatts float64) {
	if m == nil {
		return
	}
	m.TelemetrySamplesTotal.WithLabelValues("energy").Inc()
	m.TotalPowerWatts.Set(totalWatts)
}

// ObserveSensorSample records a sensor sample.
func (m *Metrics) ObserveSensorSample(temperature, humidity float64) {
	if m == nil {
		return
	}
	m.TelemetrySamplesTotal.WithLabelValues("sensor").Inc()
	m.TemperatureCelsius.Set(temperature)
	m.HumidityPercent.Set(humidity)
}

// SetWebSocketClients reports the current hub size.
func (m *Metrics) SetWebSocketClients(n int) {
	if m == nil {
		return
	}
	m.WebSocketClients.Set(float64(n))
}
