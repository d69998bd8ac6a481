// Package orchestrator applies device commands.
//
// It owns the write path: HTTP handlers, the bus subscription and the
// scheduler all call Control (or its wrappers), which drives the
// simulated hardware, the registry, the store, the bus and the live push
// hub in one order under a per-device lock.
//
// It also receives sensor snapshots from the telemetry sampler and turns
// door and motion changes into security events.
package orchestrator
