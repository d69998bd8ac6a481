package scheduler

import (
	"slices"

	"github.com/nerrad567/hearth-core/internal/device"
)

// Weekdays lists the accepted day names in calendar order (Sunday first,
// matching time.Weekday).
var Weekdays = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// timeLayout is the 24h HH:MM trigger format.
const timeLayout = "15:04"

// Rule is the daily trigger for one device.
type Rule struct {
	Device  device.Name   `json:"device"`
	Time    string        `json:"time"`
	Action  device.Action `json:"action"`
	Enabled bool          `json:"enabled"`
	Days    []string      `json:"days"`
}

// clone returns a copy that shares no slices with r.
func (r Rule) clone() Rule {
	r.Days = slices.Clone(r.Days)
	return r
}

// matches reports whether the rule should fire at the minute described by
// hhmm and day.
func (r Rule) matches(hhmm, day string) bool {
	return r.Enabled && r.Time == hhmm && slices.Contains(r.Days, day)
}

// DefaultRules returns the rules installed at startup.
func DefaultRules() []Rule {
	return []Rule{
		{Device: device.Fan, Time: "19:00", Action: device.ActionOn, Enabled: true, Days: slices.Clone(Weekdays)},
		{Device: device.Light, Time: "18:30", Action: device.ActionOn, Enabled: true, Days: slices.Clone(Weekdays)},
	}
}
