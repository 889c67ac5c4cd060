// Package guildday computes the guild's reporting windows.
//
// A guild-day runs from the reset hour (04:00 by default) to the same hour on
// the next calendar day, in the guild's timezone. Windows are inclusive unix
// second bounds so they can be used directly in BETWEEN clauses.
package guildday

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// DefaultResetHour is the local hour a guild-day starts
	DefaultResetHour = 4
	// DateLayout is the accepted date argument format
	DateLayout = "2006-01-02"
	// AllToken selects the unbounded window
	AllToken = "-all"
)

// Window is an inclusive [Start, End] range of unix seconds
type Window struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// All returns the unbounded window
func All() Window {
	return Window{Start: math.MinInt64, End: math.MaxInt64}
}

// Range builds an explicit inclusive window
func Range(start, end int64) (Window, error) {
	if start > end {
		return Window{}, fmt.Errorf("window start %d is after end %d", start, end)
	}
	return Window{Start: start, End: end}, nil
}

// IsAll reports whether w is unbounded
func (w Window) IsAll() bool {
	return w.Start == math.MinInt64 && w.End == math.MaxInt64
}

// Contains reports whether ts lies inside w, bounds included
func (w Window) Contains(ts int64) bool {
	return ts >= w.Start && ts <= w.End
}

func (w Window) String() string {
	if w.IsAll() {
		return "all"
	}
	return fmt.Sprintf("[%d, %d]", w.Start, w.End)
}

// Calendar turns dates and instants into guild-day windows
type Calendar struct {
	loc       *time.Location
	resetHour int
}

// NewCalendar creates a calendar; a nil location means time.Local
func NewCalendar(loc *time.Location, resetHour int) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	if resetHour < 0 || resetHour > 23 {
		resetHour = DefaultResetHour
	}
	return &Calendar{loc: loc, resetHour: resetHour}
}

// Location returns the calendar's timezone
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Current returns the guild-day containing now. Before the reset hour the
// previous calendar day's window is still open.
func (c *Calendar) Current(now time.Time) Window {
	n := now.In(c.loc)
	start := c.dayStart(n.Year(), n.Month(), n.Day())
	if n.Before(start) {
		start = c.dayStart(n.Year(), n.Month(), n.Day()-1)
	}
	return c.windowFrom(start)
}

// ForDate returns the guild-day that starts on the given YYYY-MM-DD date
func (c *Calendar) ForDate(day string) (Window, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(day), c.loc)
	if err != nil {
		return Window{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", day)
	}
	return c.windowFrom(c.dayStart(d.Year(), d.Month(), d.Day())), nil
}

// Resolve maps an optional argument to a window: "" is the current guild-day,
// "-all" is unbounded, anything else must be a date.
func (c *Calendar) Resolve(arg string, now time.Time) (Window, error) {
	arg = strings.TrimSpace(arg)
	switch arg {
	case "":
		return c.Current(now), nil
	case AllToken:
		return All(), nil
	}
	return c.ForDate(arg)
}

// DayStart returns the unix second a date's guild-day opens. A record dated
// with a bare day is stamped with this instant so it lands in that day's window.
func (c *Calendar) DayStart(day string) (int64, error) {
	w, err := c.ForDate(day)
	if err != nil {
		return 0, err
	}
	return w.Start, nil
}

// Format renders a timestamp as the guild-day date it belongs to
func (c *Calendar) Format(ts int64) string {
	t := time.Unix(ts, 0).In(c.loc)
	w := c.Current(t)
	return time.Unix(w.Start, 0).In(c.loc).Format(DateLayout)
}

func (c *Calendar) dayStart(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, c.resetHour, 0, 0, 0, c.loc)
}

// windowFrom ends one second before the next day's reset, so DST days are
// 23 or 25 hours long rather than drifting.
func (c *Calendar) windowFrom(start time.Time) Window {
	next := c.dayStart(start.Year(), start.Month(), start.Day()+1)
	return Window{Start: start.Unix(), End: next.Unix() - 1}
}
