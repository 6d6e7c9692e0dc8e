package leaderboard

import (
	"fmt"
	"time"
)

// Window is a named, now-anchored time range selecting which closed trades
// count toward the leaderboard.
type Window string

const (
	WindowAll     Window = "all"
	WindowDaily   Window = "daily"
	WindowWeekly  Window = "weekly"
	WindowMonthly Window = "monthly"
)

// ParseWindow validates a window selector string. Empty defaults to all.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case WindowAll, WindowDaily, WindowWeekly, WindowMonthly:
		return Window(s), nil
	case "":
		return WindowAll, nil
	}
	return "", fmt.Errorf("unknown window %q", s)
}

// Range resolves the window to a concrete [start, end] range anchored at now.
// bounded is false for the all-time window, meaning no time filter applies.
// Start boundaries are UTC calendar boundaries with time-of-day truncated;
// end is always now. Week starts Monday.
func (w Window) Range(now time.Time) (start, end time.Time, bounded bool) {
	now = now.UTC()
	switch w {
	case WindowDaily:
		return startOfDay(now), now, true
	case WindowWeekly:
		daysSinceMonday := (int(now.Weekday()) + 6) % 7
		return startOfDay(now.AddDate(0, 0, -daysSinceMonday)), now, true
	case WindowMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), now, true
	}
	return time.Time{}, time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
