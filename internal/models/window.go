package models

import "time"

// TimeWindow names a relative submission-time filter. Windows are resolved
// against the request clock, never persisted.
type TimeWindow string

const (
	WindowAll       TimeWindow = ""
	WindowLast24h   TimeWindow = "24h"
	WindowLast7d    TimeWindow = "7d"
	WindowLast30d   TimeWindow = "30d"
	WindowThisWeek  TimeWindow = "week"
	WindowThisMonth TimeWindow = "month"
	WindowThisYear  TimeWindow = "year"
)

// Since resolves the window to its lower bound at the given instant. The
// second return is false for the all-time window.
func (w TimeWindow) Since(now time.Time) (time.Time, bool) {
	switch w {
	case WindowLast24h:
		return now.Add(-24 * time.Hour), true
	case WindowLast7d:
		return now.AddDate(0, 0, -7), true
	case WindowLast30d:
		return now.AddDate(0, 0, -30), true
	case WindowThisWeek:
		// Weeks start on Monday.
		offset := (int(now.Weekday()) + 6) % 7
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return day.AddDate(0, 0, -offset), true
	case WindowThisMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	case WindowThisYear:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), true
	default:
		return time.Time{}, false
	}
}

// ParseTimeWindow validates a query value, mapping unknown values to all-time.
func ParseTimeWindow(raw string) TimeWindow {
	switch TimeWindow(raw) {
	case WindowLast24h, WindowLast7d, WindowLast30d, WindowThisWeek, WindowThisMonth, WindowThisYear:
		return TimeWindow(raw)
	default:
		return WindowAll
	}
}
