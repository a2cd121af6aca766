package model

import (
    "errors"
    "fmt"
    "strings"
    "time"
)

// DateLayout is the wire and storage layout for calendar dates.
const DateLayout = "2006-01-02"

// ClockLayout is the wire and storage layout for clock times.
const ClockLayout = "15:04"

// ErrInvalidClock is returned when a clock string cannot be parsed.
var ErrInvalidClock = errors.New("invalid clock time")

// TimeWindow is an availability interval expressed as absolute instants.
// End is never before Start.
type TimeWindow struct {
    Start time.Time
    End   time.Time
}

// ParseClock accepts "HH:MM" or "HH:MM:SS" (the latter is what MySQL TIME
// columns return) and yields the offset from midnight.
func ParseClock(s string) (time.Duration, error) {
    s = strings.TrimSpace(s)
    for _, layout := range []string{ClockLayout, "15:04:05"} {
        if t, err := time.Parse(layout, s); err == nil {
            return time.Duration(t.Hour())*time.Hour +
                time.Duration(t.Minute())*time.Minute +
                time.Duration(t.Second())*time.Second, nil
        }
    }
    return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
    return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// DateOnly truncates t to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
    y, m, d := t.UTC().Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// At combines a calendar date with a clock string.
func At(date time.Time, clock string) (time.Time, error) {
    off, err := ParseClock(clock)
    if err != nil {
        return time.Time{}, err
    }
    return DateOnly(date).Add(off), nil
}

// NewWindow builds a window on date from two clock strings.  When latest is
// earlier than earliest the window crosses midnight and ends the next day.
func NewWindow(date time.Time, earliest, latest string) (TimeWindow, error) {
    start, err := At(date, earliest)
    if err != nil {
        return TimeWindow{}, err
    }
    end, err := At(date, latest)
    if err != nil {
        return TimeWindow{}, err
    }
    if end.Before(start) {
        end = end.Add(24 * time.Hour)
    }
    return TimeWindow{Start: start, End: end}, nil
}

// Overlaps reports whether the two closed intervals share at least one instant.
func (w TimeWindow) Overlaps(o TimeWindow) bool {
    return !w.Start.After(o.End) && !w.End.Before(o.Start)
}

// Instant returns a zero-length window at t.
func Instant(t time.Time) TimeWindow { return TimeWindow{Start: t, End: t} }
