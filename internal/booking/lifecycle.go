package booking

import (
	"strconv"
	"time"

	"github.com/roma-frontend/fitAccess-sub002/internal/schedule"
)

const (
	ActionCancel     = "cancel"
	ActionReschedule = "reschedule"
	ActionComplete   = "complete"
	ActionNoShow     = "mark no-show"
)

// transitions lists the states reachable from each state. Every state other
// than scheduled is terminal.
var transitions = map[Status][]Status{
	StatusScheduled: {StatusCompleted, StatusCancelled, StatusNoShow},
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func notScheduled(action string, b *Booking) *PolicyError {
	return &PolicyError{Action: action, Reason: "booking is " + string(b.Status)}
}

// checkLeadTime requires at least lead between now and the session start.
func checkLeadTime(action string, b *Booking, now time.Time, lead time.Duration) error {
	if b.Status != StatusScheduled {
		return notScheduled(action, b)
	}
	remaining := b.StartsAt(now.Location()).Sub(now)
	if remaining < lead {
		return &PolicyError{
			Action:    action,
			Reason:    "minimum " + formatLead(lead) + " lead time",
			Required:  lead,
			Remaining: remaining,
		}
	}
	return nil
}

func checkCancel(b *Booking, now time.Time, policy schedule.Policy) error {
	return checkLeadTime(ActionCancel, b, now, policy.CancelLeadTime)
}

func checkReschedule(b *Booking, now time.Time, policy schedule.Policy) error {
	return checkLeadTime(ActionReschedule, b, now, policy.RescheduleLeadTime)
}

// checkAttendance gates completed and no-show: the session must have ended.
func checkAttendance(action string, b *Booking, to Status, now time.Time) error {
	if !CanTransition(b.Status, to) {
		return notScheduled(action, b)
	}
	end := b.EndsAt(now.Location())
	if now.Before(end) {
		return &PolicyError{Action: action, Reason: "session has not ended yet", Remaining: end.Sub(now)}
	}
	return nil
}

func formatLead(d time.Duration) string {
	if d%time.Hour == 0 {
		return strconv.Itoa(int(d/time.Hour)) + "h"
	}
	return d.String()
}
