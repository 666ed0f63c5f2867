package schedule

import "time"

// Slot is a candidate booking start. It is computed on demand and never stored.
type Slot struct {
	Time            TimeOfDay `json:"time"`
	DurationMinutes int       `json:"duration_minutes"`
}

func (s Slot) End() TimeOfDay {
	return s.Time + TimeOfDay(s.DurationMinutes)
}

func (s Slot) Interval() Interval {
	return Interval{Start: s.Time, End: s.End()}
}

// SlotQuery describes one slot discovery request.
type SlotQuery struct {
	Date     Date
	Duration time.Duration
	// Busy holds the intervals of every non-cancelled booking on Date.
	Busy []Interval
	// Earliest drops candidates starting before it. Zero keeps the whole day.
	Earliest TimeOfDay
}

// AvailableSlots walks the working window of q.Date on the policy's fixed grid
// and keeps every candidate [t, t+duration) that overlaps no busy interval.
// The grid is anchored at the window start, not at booking boundaries.
func AvailableSlots(hours WorkingHours, q SlotQuery, policy Policy) []Slot {
	policy = policy.Normalize()
	day, ok := hours.Day(q.Date)
	if !ok || q.Duration < time.Minute {
		return []Slot{}
	}

	length := TimeOfDay(q.Duration / time.Minute)
	step := TimeOfDay(policy.SlotStep / time.Minute)

	slots := []Slot{}
	for t := day.Start; t+length <= day.End; t += step {
		if t < q.Earliest {
			continue
		}
		if overlapsAny(t, t+length, q.Busy) {
			continue
		}
		slots = append(slots, Slot{Time: t, DurationMinutes: int(length)})
	}
	return slots
}

func overlapsAny(start, end TimeOfDay, busy []Interval) bool {
	for _, b := range busy {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}
