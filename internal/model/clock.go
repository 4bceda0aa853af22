package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a calendar day.
const DateLayout = "2006-01-02"

// ClockTime is a wall-clock time of day expressed in minutes since
// midnight.  Valid values range from 00:00 to 24:00 inclusive; 24:00 is
// only meaningful as the end of a range.
type ClockTime int

// EndOfDay is 24:00.
const EndOfDay ClockTime = 24 * 60

// ParseClock parses an "HH:MM" string.
func ParseClock(s string) (ClockTime, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || len(m) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if hh < 0 || hh > 24 || mm < 0 || mm > 59 || (hh == 24 && mm != 0) {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return ClockTime(hh*60 + mm), nil
}

// MustClock is ParseClock for literals; it panics on malformed input.
func MustClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf returns the time of day of t in t's location.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Minutes returns the number of minutes since midnight.
func (c ClockTime) Minutes() int { return int(c) }

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseDate parses a YYYY-MM-DD calendar day and returns midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// DayOf truncates t to its calendar day in t's location and returns it as
// midnight UTC so that dates compare by value regardless of zone.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
