package engine

import "time"

// Expiry returns the instant at which a checkpoint's allotted time runs
// out: start + allottedMinutes * 60000 * multiplier milliseconds. The
// multiplier dilates the deadline uniformly (1.0 in normal operation,
// a fraction in accelerated test mode) so that countdowns and monitor
// decisions stay consistent.
//
// Non-positive minutes or multipliers are rejected at session start, not
// here.
func Expiry(start time.Time, allottedMinutes int, multiplier float64) time.Time {
	ms := float64(allottedMinutes) * 60000 * multiplier
	return start.Add(time.Duration(ms) * time.Millisecond)
}
