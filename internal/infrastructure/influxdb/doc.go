// Package influxdb mirrors Hearth telemetry into an InfluxDB v2 bucket.
//
// SQLite stays the system of record; this package only exists so energy,
// sensor and device-state series can be graphed by external tooling. The
// mirror is optional: when influxdb.enabled is false Connect returns
// ErrDisabled and callers simply skip it.
//
// Measurements:
//   - energy: field total_watts
//   - sensors: tag door; fields temperature, humidity, motion
//   - device_state: tags device, source; fields state, on, power_watts
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    // run without the mirror
//	}
//	defer client.Close()
//
//	client.WriteEnergySample(time.Now(), 87.4)
package influxdb
