// Package session models the selected day or week as an immutable window
// value. Every navigation action returns a new Window; callers own storage.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Mode selects whether the window covers one day or one Monday-Sunday week.
type Mode string

const (
	ModeDay  Mode = "day"
	ModeWeek Mode = "week"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ErrModeMismatch is returned when a step action is not available in the
// window's current mode.
var ErrModeMismatch = errors.New("navigation not available in current mode")

// ParseMode accepts "day" or "week" in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDay:
		return ModeDay, nil
	case ModeWeek:
		return ModeWeek, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return d, nil
}

// DateOf strips the time of day from t, keeping the calendar date as it reads
// in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MondayOf returns the Monday on or before the date of t.
func MondayOf(t time.Time) time.Time {
	d := DateOf(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// Window is the currently selected day or week. WeekStart and WeekEnd are
// always derived from Anchor, so WeekEnd is WeekStart plus six days and
// WeekStart <= Anchor <= WeekEnd in every reachable state.
type Window struct {
	Mode      Mode
	Anchor    time.Time
	WeekStart time.Time
	WeekEnd   time.Time
}

// New returns the initial window: day mode anchored on today.
func New(today time.Time) Window {
	return anchored(ModeDay, today)
}

func anchored(mode Mode, d time.Time) Window {
	anchor := DateOf(d)
	start := MondayOf(anchor)
	return Window{
		Mode:      mode,
		Anchor:    anchor,
		WeekStart: start,
		WeekEnd:   start.AddDate(0, 0, 6),
	}
}

// SelectDate moves the anchor to d, keeping the mode.
func (w Window) SelectDate(d time.Time) Window {
	return anchored(w.Mode, d)
}

// SwitchMode changes the mode and recomputes the week around the anchor.
func (w Window) SwitchMode(m Mode) (Window, error) {
	if m != ModeDay && m != ModeWeek {
		return w, fmt.Errorf("switch mode: unknown mode %q", m)
	}
	return anchored(m, w.Anchor), nil
}

// StepDay moves the anchor by n days. Only valid in day mode.
func (w Window) StepDay(n int) (Window, error) {
	if w.Mode != ModeDay {
		return w, fmt.Errorf("step day in %s mode: %w", w.Mode, ErrModeMismatch)
	}
	return anchored(w.Mode, w.Anchor.AddDate(0, 0, n)), nil
}

// StepWeek moves the anchor by n weeks. Only valid in week mode. The week
// bounds follow from the new anchor rather than being shifted separately.
func (w Window) StepWeek(n int) (Window, error) {
	if w.Mode != ModeWeek {
		return w, fmt.Errorf("step week in %s mode: %w", w.Mode, ErrModeMismatch)
	}
	return anchored(w.Mode, w.Anchor.AddDate(0, 0, 7*n)), nil
}

// Range returns the inclusive first and last calendar dates the window covers.
func (w Window) Range() (first, last time.Time) {
	if w.Mode == ModeWeek {
		return w.WeekStart, w.WeekEnd
	}
	return w.Anchor, w.Anchor
}

// Contains reports whether the calendar date of t falls inside the window.
// Time of day is ignored and both bounds are inclusive.
func (w Window) Contains(t time.Time) bool {
	first, last := w.Range()
	d := DateOf(t)
	return !d.Before(first) && !d.After(last)
}

// Key identifies the window for caching.
func (w Window) Key() string {
	first, last := w.Range()
	return string(w.Mode) + ":" + first.Format(DateLayout) + ":" + last.Format(DateLayout)
}
