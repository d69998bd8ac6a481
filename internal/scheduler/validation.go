package scheduler

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nerrad567/hearth-core/internal/device"
)

// normalize validates r and returns it in canonical form: action upper-cased,
// days lowercased, de-duplicated and in calendar order, all seven days when
// none are given.
func normalize(r Rule) (Rule, error) {
	if !r.Device.Valid() {
		return Rule{}, fmt.Errorf("%w: %w: %q", ErrInvalidRule, device.ErrDeviceNotFound, r.Device)
	}

	if err := validateTime(r.Time); err != nil {
		return Rule{}, err
	}

	action, err := device.ParseAction(string(r.Action))
	if err != nil {
		return Rule{}, fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	r.Action = action

	days, err := normalizeDays(r.Days)
	if err != nil {
		return Rule{}, err
	}
	r.Days = days

	return r, nil
}

// validateTime accepts exactly two-digit HH:MM in 24h form.
func validateTime(s string) error {
	if len(s) != len(timeLayout) {
		return fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidRule, s)
	}
	if _, err := time.Parse(timeLayout, s); err != nil {
		return fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidRule, s)
	}
	return nil
}

func normalizeDays(in []string) ([]string, error) {
	if len(in) == 0 {
		return slices.Clone(Weekdays), nil
	}

	seen := make(map[string]bool, len(in))
	for _, d := range in {
		d = strings.ToLower(strings.TrimSpace(d))
		if !slices.Contains(Weekdays, d) {
			return nil, fmt.Errorf("%w: unknown day %q", ErrInvalidRule, d)
		}
		seen[d] = true
	}

	out := make([]string, 0, len(seen))
	for _, d := range Weekdays {
		if seen[d] {
			out = append(out, d)
		}
	}
	return out, nil
}
