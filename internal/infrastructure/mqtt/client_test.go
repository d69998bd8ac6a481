package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/hearth-core/internal/infrastructure/config"
)

// testConfig returns an MQTT configuration pointing at a local broker.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "hearth-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
		ConnectTimeout: 1,
		PublishTimeout: 2,
		TopicPrefix:    "hearth-test",
	}
}

// connectOrSkip connects to the local broker or skips the test when none
// is running.
func connectOrSkip(t *testing.T, clientID string) *Client {
	t.Helper()
	cfg := testConfig()
	cfg.Broker.ClientID = clientID

	client, err := Connect(cfg)
	if err != nil {
		t.Skipf("no MQTT broker at 127.0.0.1:1883: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

type mockLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

// =============================================================================
// Broker-free tests
// =============================================================================

func TestTopics(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		wantDevice string
		wantStatus string
	}{
		{"default prefix", "home", "home/fan", "home/system/status"},
		{"empty falls back", "", "home/fan", "home/system/status"},
		{"slashes trimmed", "/house/", "house/fan", "house/system/status"},
		{"nested prefix", "site/a", "site/a/fan", "site/a/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topics := NewTopics(tt.prefix)
			if got := topics.Device("fan"); got != tt.wantDevice {
				t.Errorf("Device() = %q, want %q", got, tt.wantDevice)
			}
			if got := topics.SystemStatus(); got != tt.wantStatus {
				t.Errorf("SystemStatus() = %q, want %q", got, tt.wantStatus)
			}
		})
	}
}

func TestDeviceFromTopic(t *testing.T) {
	tests := map[string]string{
		"home/fan":         "fan",
		"home/light":       "light",
		"a/b/c/heater":     "heater",
		"bare":             "bare",
		"home/trailing/":   "",
	}
	for topic, want := range tests {
		if got := DeviceFromTopic(topic); got != want {
			t.Errorf("DeviceFromTopic(%q) = %q, want %q", topic, got, want)
		}
	}
}

func TestBrokerURL(t *testing.T) {
	plain := brokerURL(config.MQTTBrokerConfig{Host: "broker", Port: 1883})
	if plain != "tcp://broker:1883" {
		t.Errorf("brokerURL() = %q, want tcp://broker:1883", plain)
	}
	secure := brokerURL(config.MQTTBrokerConfig{Host: "broker", Port: 8883, TLS: true})
	if secure != "ssl://broker:8883" {
		t.Errorf("brokerURL() = %q, want ssl://broker:8883", secure)
	}
}

func TestTimeoutDefaults(t *testing.T) {
	var cfg config.MQTTConfig
	if got := connectTimeout(cfg); got != defaultConnectTimeout {
		t.Errorf("connectTimeout() = %v, want %v", got, defaultConnectTimeout)
	}
	if got := publishTimeout(cfg); got != defaultPublishTimeout {
		t.Errorf("publishTimeout() = %v, want %v", got, defaultPublishTimeout)
	}

	cfg.ConnectTimeout = 3
	cfg.PublishTimeout = 7
	if got := connectTimeout(cfg); got != 3*time.Second {
		t.Errorf("connectTimeout() = %v, want 3s", got)
	}
	if got := publishTimeout(cfg); got != 7*time.Second {
		t.Errorf("publishTimeout() = %v, want 7s", got)
	}
}

func TestStatusPayload(t *testing.T) {
	var msg statusMessage
	if err := json.Unmarshal(statusPayload("hearth-core", "offline", "graceful_shutdown"), &msg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if msg.Status != "offline" || msg.ClientID != "hearth-core" || msg.Reason != "graceful_shutdown" {
		t.Errorf("statusPayload() = %+v", msg)
	}
	if msg.Timestamp == "" {
		t.Error("statusPayload() timestamp is empty")
	}
}

func TestValidatePublish(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"valid", "home/fan", []byte(`{"state":"ON"}`), 1, nil},
		{"nil payload", "home/fan", nil, 0, nil},
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"bad qos", "home/fan", []byte("x"), 3, ErrInvalidQoS},
		{"oversized", "home/fan", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePublish(tt.topic, tt.payload, tt.qos)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("validatePublish() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validatePublish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNilClientIsDisconnected(t *testing.T) {
	var c *Client
	if c.IsConnected() {
		t.Error("nil client IsConnected() = true")
	}

	empty := &Client{subscriptions: map[string]subscription{}}
	if empty.IsConnected() {
		t.Error("zero client IsConnected() = true")
	}
	if err := empty.Publish("home/fan", []byte("x"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := empty.Subscribe("home/fan", 1, func(string, []byte) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
	if err := empty.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestClientOptionsKeepOrder(t *testing.T) {
	opts := buildClientOptions(testConfig())
	if !opts.Order {
		t.Error("buildClientOptions() disabled ordered delivery")
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Errorf("AutoReconnect=%v CleanSession=%v, want both true", opts.AutoReconnect, opts.CleanSession)
	}
}

func TestDisconnectCallback(t *testing.T) {
	c := &Client{subscriptions: map[string]subscription{}, connected: true}

	var got error
	c.SetOnDisconnect(func(err error) { got = err })

	lost := errors.New("connection reset")
	c.handleDisconnect(lost)

	if !errors.Is(got, lost) {
		t.Errorf("onDisconnect error = %v, want %v", got, lost)
	}
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	if c.connected {
		t.Error("connected still true after handleDisconnect")
	}
}

func TestSubscribeArgumentValidation(t *testing.T) {
	c := &Client{subscriptions: map[string]subscription{}}
	handler := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 1, handler); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("home/fan", 5, handler); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("bad qos error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Subscribe("home/fan", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v, want ErrSubscribeFailed", err)
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	logger := &mockLogger{}
	dispatch(logger, func(string, []byte) error {
		panic("boom")
	}, "home/fan", nil)

	if len(logger.errors) != 1 {
		t.Fatalf("logged %d errors, want 1", len(logger.errors))
	}
}

func TestDispatchLogsHandlerError(t *testing.T) {
	logger := &mockLogger{}
	dispatch(logger, func(string, []byte) error {
		return errors.New("bad payload")
	}, "home/fan", nil)

	if len(logger.warns) != 1 {
		t.Fatalf("logged %d warnings, want 1", len(logger.warns))
	}
}

func TestDispatchWithoutLogger(t *testing.T) {
	// Must not panic with a nil logger.
	dispatch(nil, func(string, []byte) error { panic("boom") }, "home/fan", nil)
}

func TestConnectRefusedWithinTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999
	cfg.ConnectTimeout = 1

	start := time.Now()
	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Connect() took %v, want about 1s", elapsed)
	}
}

// =============================================================================
// Broker tests (skipped when no broker is running)
// =============================================================================

func TestConnectAndClose(t *testing.T) {
	client := connectOrSkip(t, "hearth-test-connect")

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
}

func TestPublishSubscribeRoundtrip(t *testing.T) {
	client := connectOrSkip(t, "hearth-test-roundtrip")
	logger := &mockLogger{}
	client.SetLogger(logger)

	topic := NewTopics(testConfig().TopicPrefix).Device("fan")
	received := make(chan string, 1)

	err := client.Subscribe(topic, 1, func(topic string, payload []byte) error {
		received <- DeviceFromTopic(topic) + ":" + string(payload)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := client.Publish(topic, []byte(`{"state":"ON"}`), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if !strings.HasPrefix(got, "fan:") || !strings.Contains(got, `"ON"`) {
			t.Errorf("received %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestCallbacksRegistered(t *testing.T) {
	client := connectOrSkip(t, "hearth-test-callbacks")

	var mu sync.Mutex
	connects := 0
	client.SetOnConnect(func() {
		mu.Lock()
		connects++
		mu.Unlock()
	})
	client.SetOnDisconnect(func(error) {})

	client.handleConnect()

	mu.Lock()
	defer mu.Unlock()
	if connects != 1 {
		t.Errorf("onConnect called %d times, want 1", connects)
	}
}
