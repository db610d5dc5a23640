// Package shift models the weekly working-hours schedule attached to a
// doctor-clinic affiliation and derives the hour-granularity slot keys used
// for booking capacity accounting.
package shift

import (
	"fmt"
	"strings"
	"time"

	"github.com/khoj-clinics/khoj/internal/domain/apperr"
)

// Schedule maps a lowercase weekday name ("monday") to a working range
// "HH:MM-HH:MM". A day with no entry is a day off. At most one range per day.
type Schedule map[string]string

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// SlotKey returns the capacity-accounting bucket for a point in time:
// "<WEEKDAY>_<HH>:00" with the weekday uppercased and minutes truncated to
// the top of the hour. All bookings within the same calendar hour of the same
// weekday share one capacity pool.
func SlotKey(t time.Time) string {
	return fmt.Sprintf("%s_%02d:00", strings.ToUpper(t.Weekday().String()), t.Hour())
}

// Covers reports whether the time-of-day of t falls inside the schedule's
// range for t's weekday. Both range ends are inclusive. A missing day means
// not working. A malformed range yields a Validation error.
func (s Schedule) Covers(t time.Time) (bool, error) {
	day := strings.ToLower(t.Weekday().String())
	rng, ok := s[day]
	if !ok {
		return false, nil
	}
	start, end, err := parseRange(rng)
	if err != nil {
		return false, err
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= start && minute <= end, nil
}

// Validate checks that every key is a weekday and every range is well-formed
// with start strictly before end.
func (s Schedule) Validate() error {
	for day, rng := range s {
		if !weekdays[day] {
			return apperr.New(apperr.Validation, "unknown weekday %q in shift schedule", day)
		}
		start, end, err := parseRange(rng)
		if err != nil {
			return err
		}
		if start >= end {
			return apperr.New(apperr.Validation, "shift range %q for %s must start before it ends", rng, day)
		}
	}
	return nil
}

// parseRange parses "HH:MM-HH:MM" into minutes-of-day.
func parseRange(rng string) (start, end int, err error) {
	parts := strings.SplitN(rng, "-", 2)
	if len(parts) != 2 {
		return 0, 0, apperr.New(apperr.Validation, "malformed shift range %q, want HH:MM-HH:MM", rng)
	}
	if start, err = parseClock(parts[0]); err != nil {
		return 0, 0, apperr.New(apperr.Validation, "malformed shift range %q: %v", rng, err)
	}
	if end, err = parseClock(parts[1]); err != nil {
		return 0, 0, apperr.New(apperr.Validation, "malformed shift range %q: %v", rng, err)
	}
	return start, end, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("bad clock time %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
