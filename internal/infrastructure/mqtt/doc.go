// Package mqtt provides MQTT broker connectivity for Hearth Core.
//
// This package manages:
//   - Connection to the broker with a bounded initial connect
//   - Publishing with a bounded acknowledgement wait
//   - Subscriptions that survive reconnects
//   - Last Will and Testament on {prefix}/system/status
//
// # Architecture
//
// The broker carries device state between Hearth and anything else in the
// house (wall switches, dashboards, other controllers):
//
//	Hearth Core ↔ MQTT Broker ↔ other publishers/subscribers
//
// Device state uses one topic per device under the configured prefix,
// e.g. home/fan, with a JSON body {"state":"ON"}.
//
// # Failure handling
//
// Connect gives up after mqtt.connect_timeout and stops the underlying
// client. The bus package turns that into a degraded, publish-nothing mode
// so the rest of the system keeps running without a broker.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    // run degraded
//	}
//	defer client.Close()
//
//	topics := mqtt.NewTopics(cfg.MQTT.TopicPrefix)
//	err = client.Subscribe(topics.Device("fan"), 1, handler)
package mqtt
