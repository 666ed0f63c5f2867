package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Weekday keys used in a trainer's working hours.
var weekdayKeys = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// WeekdayKey returns the lowercase English key for wd, e.g. "monday".
func WeekdayKey(wd time.Weekday) string {
	return weekdayKeys[wd]
}

// ParseWeekday maps a weekday key back to time.Weekday.
func ParseWeekday(key string) (time.Weekday, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for i, k := range weekdayKeys {
		if k == key {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// DayHours is the availability of one weekday.
type DayHours struct {
	IsWorking bool      `json:"is_working"`
	Start     TimeOfDay `json:"start"`
	End       TimeOfDay `json:"end"`
}

// Window returns the working window as an interval.
func (d DayHours) Window() Interval {
	return Interval{Start: d.Start, End: d.End}
}

// WorkingHours maps weekday keys ("monday"…"sunday") to availability.
// A missing key means the trainer does not work that day.
type WorkingHours map[string]DayHours

// Day returns the hours configured for date's weekday.
func (w WorkingHours) Day(date Date) (DayHours, bool) {
	h, ok := w[WeekdayKey(date.Weekday())]
	if !ok || !h.IsWorking || h.Start >= h.End {
		return DayHours{}, false
	}
	return h, true
}

// IsOpen reports whether [start,end) on date lies fully inside the working window.
func (w WorkingHours) IsOpen(date Date, start, end TimeOfDay) bool {
	h, ok := w.Day(date)
	if !ok {
		return false
	}
	return h.Window().Contains(Interval{Start: start, End: end})
}

// WorkingMinutes is the length of date's working window, zero on days off.
func (w WorkingHours) WorkingMinutes(date Date) int {
	h, ok := w.Day(date)
	if !ok {
		return 0
	}
	return h.Window().Minutes()
}

// Normalize returns a copy of w keyed by canonical weekday keys, so
// "Monday" and " monday" both become "monday". Two keys naming the same
// weekday are an error, as is any entry Validate rejects.
func (w WorkingHours) Normalize() (WorkingHours, error) {
	out := make(WorkingHours, len(w))
	for key, h := range w {
		wd, ok := ParseWeekday(key)
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", key)
		}
		canonical := WeekdayKey(wd)
		if _, dup := out[canonical]; dup {
			return nil, fmt.Errorf("weekday %s given more than once", canonical)
		}
		out[canonical] = h
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks that every key is a canonical weekday key and that every
// working day has start before end.
func (w WorkingHours) Validate() error {
	for key, h := range w {
		wd, ok := ParseWeekday(key)
		if !ok {
			return fmt.Errorf("unknown weekday %q", key)
		}
		if key != WeekdayKey(wd) {
			return fmt.Errorf("weekday %q must be written %q", key, WeekdayKey(wd))
		}
		if h.IsWorking && h.Start >= h.End {
			return fmt.Errorf("%s: start %s must be before end %s", key, h.Start, h.End)
		}
	}
	return nil
}

func (w WorkingHours) Value() (driver.Value, error) {
	if w == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(w)
}

func (w *WorkingHours) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*w = WorkingHours{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into WorkingHours", src)
	}
	return json.Unmarshal(data, w)
}
