// Package audit records who changed what through the API.
//
// Device transitions already land in the state history; the audit trail
// adds the authenticated subject and covers the non-device changes too:
// schedules, security mode, alert handling and maintenance bookings.
package audit
