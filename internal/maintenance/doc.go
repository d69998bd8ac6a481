// Package maintenance tracks device wear.
//
// Operating hours accrue from the ON time the orchestrator reports. From
// them the monitor derives service alerts (OVERDUE, DUE_SOON, UPCOMING),
// component alerts and a health score banded as EXCELLENT, GOOD, FAIR,
// POOR or CRITICAL.
package maintenance
