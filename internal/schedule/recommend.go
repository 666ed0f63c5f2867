package schedule

import (
	"sort"
	"strings"
)

const (
	baseScore          = 50
	preferredBandBonus = 20
	lateEveningBonus   = 10
	offHoursPenalty    = -30
	adjacencyBonus     = 15
)

type band struct {
	name       string
	start, end TimeOfDay
}

var (
	preferredBands = []band{
		{name: "morning", start: NewTimeOfDay(9, 0), end: NewTimeOfDay(11, 0)},
		{name: "midday", start: NewTimeOfDay(14, 0), end: NewTimeOfDay(16, 0)},
		{name: "evening", start: NewTimeOfDay(18, 0), end: NewTimeOfDay(20, 0)},
	}
	lateEveningBand = band{name: "late evening", start: NewTimeOfDay(20, 0), end: NewTimeOfDay(22, 0)}
	businessHours   = Interval{Start: NewTimeOfDay(8, 0), End: NewTimeOfDay(22, 0)}
)

// RankedSlot is a slot annotated with an advisory score.
type RankedSlot struct {
	Slot
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// Rank scores each slot and orders them by score, highest first, earlier time
// breaking ties. It never drops a slot. booked holds the day's existing
// bookings and is used to favour slots that close gaps.
func Rank(slots []Slot, booked []Interval) []RankedSlot {
	ranked := make([]RankedSlot, 0, len(slots))
	for _, s := range slots {
		score, reasons := scoreSlot(s, booked)
		ranked = append(ranked, RankedSlot{Slot: s, Score: score, Reason: strings.Join(reasons, ", ")})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Time < ranked[j].Time
	})
	return ranked
}

func scoreSlot(s Slot, booked []Interval) (int, []string) {
	score := baseScore
	var reasons []string

	for _, b := range preferredBands {
		if s.Time >= b.start && s.Time < b.end {
			score += preferredBandBonus
			reasons = append(reasons, "preferred "+b.name+" time")
			break
		}
	}
	if s.Time >= lateEveningBand.start && s.Time < lateEveningBand.end {
		score += lateEveningBonus
		reasons = append(reasons, lateEveningBand.name)
	}
	if !businessHours.Contains(s.Interval()) {
		score += offHoursPenalty
		reasons = append(reasons, "outside regular hours")
	}
	for _, b := range booked {
		if s.Time == b.End || s.End() == b.Start {
			score += adjacencyBonus
			reasons = append(reasons, "adjacent to existing session")
			break
		}
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "available")
	}
	return score, reasons
}
