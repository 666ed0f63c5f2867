package schedule

import "time"

// Policy holds the business rules the engine enforces. They are set per deployment.
type Policy struct {
	SlotStep           time.Duration
	MinDuration        time.Duration
	MaxDuration        time.Duration
	CancelLeadTime     time.Duration
	RescheduleLeadTime time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		SlotStep:           30 * time.Minute,
		MinDuration:        30 * time.Minute,
		MaxDuration:        4 * time.Hour,
		CancelLeadTime:     24 * time.Hour,
		RescheduleLeadTime: 12 * time.Hour,
	}
}

// Normalize returns p with unset fields replaced by defaults.
func (p Policy) Normalize() Policy {
	def := DefaultPolicy()
	if p.SlotStep < time.Minute {
		p.SlotStep = def.SlotStep
	}
	if p.MinDuration <= 0 {
		p.MinDuration = def.MinDuration
	}
	if p.MaxDuration <= 0 {
		p.MaxDuration = def.MaxDuration
	}
	if p.CancelLeadTime <= 0 {
		p.CancelLeadTime = def.CancelLeadTime
	}
	if p.RescheduleLeadTime <= 0 {
		p.RescheduleLeadTime = def.RescheduleLeadTime
	}
	return p
}
