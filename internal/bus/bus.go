package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/infrastructure/config"
	"github.com/nerrad567/hearth-core/internal/infrastructure/metrics"
	"github.com/nerrad567/hearth-core/internal/infrastructure/mqtt"
)

// Mode values reported by Bus.Mode.
const (
	ModeConnected    = "connected"
	ModeDisconnected = "disconnected"
	ModeDegraded     = "degraded"
)

// Transport is the broker surface the bus needs. *mqtt.Client satisfies it.
type Transport interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
	Close() error
}

// Logger defines the logging interface used by the bus.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// inboundQueueSize bounds messages waiting for dispatch.
const inboundQueueSize = 64

// Handler receives a validated inbound state request.
type Handler func(ctx context.Context, name device.Name, state device.State)

// Message is the JSON body carried on every device topic.
type Message struct {
	State string `json:"state"`
}

type inboundMessage struct {
	name  device.Name
	state device.State
}

// Bus adapts the MQTT client to device-level publish and subscribe.
//
// A Bus built without a transport runs degraded: Publish is a no-op and
// no handler is ever invoked.
//
// Inbound messages are queued by the transport goroutine and handed to the
// handlers, in arrival order, by a single dispatch goroutine. Handlers may
// therefore block without stalling the broker connection.
type Bus struct {
	transport Transport
	topics    mqtt.Topics
	qos       byte
	logger    Logger
	metrics   *metrics.Metrics

	mu       sync.RWMutex
	handlers []Handler

	inbound  chan inboundMessage
	stop     chan struct{}
	stopOnce sync.Once
	loop     sync.WaitGroup
}

// New wraps a transport. A nil transport yields a degraded bus.
func New(transport Transport, topics mqtt.Topics, qos byte) *Bus {
	return &Bus{
		transport: transport,
		topics:    topics,
		qos:       qos,
		logger:    noopLogger{},
		inbound:   make(chan inboundMessage, inboundQueueSize),
		stop:      make(chan struct{}),
	}
}

// Connect dials the broker described by cfg. When the broker cannot be
// reached the error is logged and a degraded bus is returned; it never
// fails.
func Connect(cfg config.MQTTConfig, logger Logger) *Bus {
	topics := mqtt.NewTopics(cfg.TopicPrefix)

	client, err := mqtt.Connect(cfg)
	if err != nil {
		if logger != nil {
			logger.Warn("MQTT broker unavailable, running without bus",
				"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
				"error", err)
		}
		b := New(nil, topics, byte(cfg.QoS))
		b.SetLogger(logger)
		return b
	}

	client.SetLogger(logger)
	b := New(client, topics, byte(cfg.QoS))
	b.SetLogger(logger)
	client.SetOnConnect(b.connectionRestored)
	client.SetOnDisconnect(b.connectionLost)
	return b
}

// connectionRestored runs on every broker (re)connection.
func (b *Bus) connectionRestored() {
	b.metrics.SetBusConnected(true)
	b.logger.Info("bus connected")
}

// connectionLost runs when paho drops the connection. Paho keeps
// reconnecting in the background; Mode reports disconnected meanwhile.
func (b *Bus) connectionLost(err error) {
	b.metrics.SetBusConnected(false)
	b.logger.Warn("bus connection lost", "error", err)
}

// SetLogger sets the logger. A nil logger is ignored.
func (b *Bus) SetLogger(logger Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// SetMetrics attaches Prometheus instruments and reports the current
// connection state.
func (b *Bus) SetMetrics(m *metrics.Metrics) {
	b.metrics = m
	m.SetBusConnected(b.Connected())
}

// Degraded reports whether the bus was built without a broker.
func (b *Bus) Degraded() bool {
	return b.transport == nil
}

// Connected reports whether the broker connection is currently up.
func (b *Bus) Connected() bool {
	return b.transport != nil && b.transport.IsConnected()
}

// Mode returns ModeDegraded when built without a broker, otherwise
// ModeConnected or ModeDisconnected from the live connection state.
func (b *Bus) Mode() string {
	switch {
	case b.Degraded():
		return ModeDegraded
	case b.Connected():
		return ModeConnected
	default:
		return ModeDisconnected
	}
}

// Publish sends {"state":"<state>"} to {prefix}/{device}.
//
// Delivery is best-effort. The transport bounds the wait; a failure is
// logged and returned but callers are not expected to act on it. In
// degraded mode nothing is sent and nil is returned.
func (b *Bus) Publish(ctx context.Context, name device.Name, state device.State) error {
	if b.Degraded() {
		b.metrics.ObserveBusPublish("skipped")
		return nil
	}
	if err := ctx.Err(); err != nil {
		b.metrics.ObserveBusPublish("skipped")
		return err
	}

	payload, err := json.Marshal(Message{State: string(state)})
	if err != nil {
		return fmt.Errorf("encoding bus message: %w", err)
	}

	topic := b.topics.Device(string(name))
	if err := b.transport.Publish(topic, payload, b.qos, false); err != nil {
		b.metrics.ObserveBusPublish("error")
		b.logger.Warn("bus publish failed", "topic", topic, "error", err)
		return err
	}

	b.metrics.ObserveBusPublish("success")
	b.logger.Debug("bus publish", "topic", topic, "state", state)
	return nil
}

// OnMessage registers h for inbound messages on every device topic. The
// first registration starts dispatch and subscribes; later ones share the
// subscription. In degraded mode the handler is recorded but never called.
func (b *Bus) OnMessage(h Handler) error {
	b.mu.Lock()
	first := len(b.handlers) == 0
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()

	if b.Degraded() || !first {
		return nil
	}

	b.loop.Add(1)
	go b.dispatchLoop()

	var errs []error
	for _, n := range device.Names() {
		topic := b.topics.Device(string(n))
		if err := b.transport.Subscribe(topic, b.qos, b.handleMessage); err != nil {
			errs = append(errs, fmt.Errorf("subscribing %s: %w", topic, err))
			continue
		}
		b.logger.Info("bus subscribed", "topic", topic)
	}
	return errors.Join(errs...)
}

// handleMessage decodes one inbound message and queues it for dispatch.
//
// Messages without a state field are dropped without logging; our own
// confirmations have one, so this only filters foreign traffic.
func (b *Bus) handleMessage(topic string, payload []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		b.metrics.ObserveBusMessage("invalid")
		b.logger.Warn("bus message is not valid JSON", "topic", topic, "error", err)
		return nil
	}

	field, ok := raw["state"]
	if !ok {
		b.metrics.ObserveBusMessage("ignored")
		return nil
	}

	var stateText string
	if err := json.Unmarshal(field, &stateText); err != nil {
		b.metrics.ObserveBusMessage("invalid")
		b.logger.Warn("bus message state is not a string", "topic", topic)
		return nil
	}

	name, err := device.ParseName(mqtt.DeviceFromTopic(topic))
	if err != nil {
		b.metrics.ObserveBusMessage("ignored")
		return nil
	}

	state, err := device.ParseState(stateText)
	if err != nil {
		b.metrics.ObserveBusMessage("invalid")
		b.logger.Warn("bus message has invalid state", "topic", topic, "state", stateText)
		return nil
	}

	select {
	case b.inbound <- inboundMessage{name: name, state: state}:
		b.metrics.ObserveBusMessage("accepted")
	default:
		b.metrics.ObserveBusMessage("dropped")
		b.logger.Warn("bus inbound queue full, dropping message", "topic", topic, "state", state)
	}
	return nil
}

// dispatchLoop delivers queued messages until Close, then drains what is
// already queued.
func (b *Bus) dispatchLoop() {
	defer b.loop.Done()
	for {
		select {
		case msg := <-b.inbound:
			b.dispatch(msg)
		case <-b.stop:
			for {
				select {
				case msg := <-b.inbound:
					b.dispatch(msg)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) dispatch(msg inboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("bus handler panic recovered", "device", msg.name, "panic", r)
		}
	}()

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(context.Background(), msg.name, msg.state)
	}
}

// Close disconnects from the broker and waits for queued messages to be
// dispatched.
func (b *Bus) Close() error {
	var err error
	if b.transport != nil {
		err = b.transport.Close()
	}
	b.stopOnce.Do(func() { close(b.stop) })
	b.loop.Wait()
	return err
}
