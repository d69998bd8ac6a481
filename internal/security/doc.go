// Package security keeps the arming mode and an alert log fed by door and
// motion transitions.
//
// Door opening while ARMED or AWAY is a WARNING; motion while AWAY is
// CRITICAL. Everything else lands in the recent events list only. Mode
// changes are logged as INFO alerts.
package security
