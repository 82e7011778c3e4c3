package core

import "time"

// ElapsedSeconds returns later - earlier in seconds.
func ElapsedSeconds(later, earlier time.Time) float64 {
	return later.Sub(earlier).Seconds()
}

// ElapsedHours returns later - earlier in hours.
func ElapsedHours(later, earlier time.Time) float64 {
	return later.Sub(earlier).Hours()
}

// Midpoint returns curr - (curr - prev)/2. The half interval is truncated to
// whole nanoseconds.
func Midpoint(prev, curr time.Time) time.Time {
	return curr.Add(-curr.Sub(prev) / 2)
}
