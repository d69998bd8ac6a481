// Package telemetry samples household energy draw and ambient sensors on
// fixed periods, feeding the log store, live clients and the orchestrator's
// sensor hook.
package telemetry
