// Package insights derives usage predictions, per-device reports and a
// weekly energy summary from the telemetry store and the live simulator.
//
// Predictions follow each device's habitual usage window in local time.
// Usage figures come from the recorded state history: ON intervals are
// clipped to the report window and priced at the wattage recorded when
// the device switched on. Nothing here is random; the same history and
// clock always give the same report.
package insights
