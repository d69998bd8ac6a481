// Package store persists Hearth's device table and telemetry logs.
//
// SQLite is the system of record: the devices table is re-read at startup
// and the energy, sensor and state history logs back the HTTP history
// endpoints. Mirror optionally copies appended rows to InfluxDB for
// graphing.
//
// Persistence is best-effort from the caller's point of view: the
// orchestrator and samplers log store errors and carry on.
package store
