// Package bus carries device state over MQTT.
//
// Outbound, every applied state change is published as {"state":"ON"} to
// {prefix}/{device}. Inbound, messages on the same topics are decoded and
// handed to the orchestrator as state requests. Because Hearth listens on
// the topics it publishes to, its own confirmations come back; the
// orchestrator treats a request for the current state as a no-op.
//
// When the broker is unreachable at startup the bus runs degraded for the
// life of the process.
package bus
