// Package scheduler fires device actions at fixed times of day.
//
// Each device has at most one Rule: a 24h HH:MM trigger, the action to
// apply and the weekdays it applies on. Adding a rule for a device that
// already has one replaces it. Rules live in memory only; on startup the
// fan (19:00 ON) and light (18:30 ON) defaults are installed.
//
// Run evaluates rules at the top of every minute using robfig/cron. Tick
// is exported so tests and callers with their own clock can drive the
// evaluator directly.
package scheduler
