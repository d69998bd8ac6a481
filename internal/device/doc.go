// Package device defines Hearth's controllable devices and the in-memory
// registry that holds their authoritative on/off state.
//
// The device set is fixed (fan, light). Name, State and Action parsing live
// here so every producer (HTTP, MQTT, scheduler) validates the same way.
// Only the orchestrator writes to the Registry; everything else reads.
package device
