package schedule

import (
	"fmt"
	"strings"
)

// Violation tags.
const (
	TagPastDate     = "past_date"
	TagDateFormat   = "date_format"
	TagTimeFormat   = "time_format"
	TagTimeOrder    = "time_order"
	TagMinDuration  = "min_duration"
	TagMaxDuration  = "max_duration"
	TagWorkingHours = "working_hours"
	TagRequired     = "required"
)

// Violation is one broken booking rule.
type Violation struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationError carries every violated rule of a booking request.
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has reports whether a violation with tag is present.
func (e *ValidationError) Has(tag string) bool {
	for _, v := range e.Violations {
		if v.Tag == tag {
			return true
		}
	}
	return false
}

func (e *ValidationError) Add(field, tag, msg string) {
	e.Violations = append(e.Violations, Violation{Field: field, Tag: tag, Message: msg})
}

// Invalid builds a ValidationError with a single violation.
func Invalid(field, tag, msg string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, tag, msg)
	return e
}

// Request is a validated booking interval.
type Request struct {
	Date  Date
	Start TimeOfDay
	End   TimeOfDay
}

func (r Request) Interval() Interval {
	return Interval{Start: r.Start, End: r.End}
}

// Validate checks a proposed booking against today and the policy. It checks,
// in order, the date, the HH:MM format of both times, their order, and the
// duration bounds, and reports every failure instead of stopping at the first.
func Validate(today Date, date, start, end string, policy Policy) (Request, error) {
	policy = policy.Normalize()
	verr := &ValidationError{}

	day, dateErr := ParseDate(date)
	switch {
	case date == "":
		verr.Add("date", TagRequired, "date is required")
	case dateErr != nil:
		verr.Add("date", TagDateFormat, fmt.Sprintf("date %q must be YYYY-MM-DD", date))
	case day.Before(today):
		verr.Add("date", TagPastDate, fmt.Sprintf("date %s is in the past", day))
	}

	startTime, startErr := ParseTimeOfDay(start)
	if startErr != nil {
		verr.Add("start_time", TagTimeFormat, fmt.Sprintf("start time %q must be HH:MM", start))
	}
	endTime, endErr := ParseTimeOfDay(end)
	if endErr != nil {
		verr.Add("end_time", TagTimeFormat, fmt.Sprintf("end time %q must be HH:MM", end))
	}

	if startErr == nil && endErr == nil {
		duration := endTime.Sub(startTime)
		switch {
		case startTime >= endTime:
			verr.Add("end_time", TagTimeOrder, "start time must be before end time")
		case duration < policy.MinDuration:
			verr.Add("end_time", TagMinDuration,
				fmt.Sprintf("session must last at least %d minutes", int(policy.MinDuration.Minutes())))
		case duration > policy.MaxDuration:
			verr.Add("end_time", TagMaxDuration,
				fmt.Sprintf("session must last at most %d minutes", int(policy.MaxDuration.Minutes())))
		}
	}

	if len(verr.Violations) > 0 {
		return Request{}, verr
	}
	return Request{Date: day, Start: startTime, End: endTime}, nil
}
