package booking

import "github.com/roma-frontend/fitAccess-sub002/internal/schedule"

// FindConflict returns the first blocking booking in existing that overlaps
// want, skipping the booking with excludeID. Callers pass one trainer's
// bookings for one date.
func FindConflict(existing []Booking, want schedule.Interval, excludeID string) *Booking {
	for i := range existing {
		b := existing[i]
		if !b.Blocking() || (excludeID != "" && b.ID == excludeID) {
			continue
		}
		if schedule.Overlaps(want.Start, want.End, b.StartTime, b.EndTime) {
			return &b
		}
	}
	return nil
}
