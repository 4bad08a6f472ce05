package domain

import "errors"

// RequiredFields is the number of fields a subscription needs before it is
// considered complete: hour, minute, latitude and longitude.
const RequiredFields = 4

// ErrUnreachable marks a delivery failure that means the recipient is gone
// for good (blocked the bot or deleted the account). The dispatcher reacts
// by tearing the subscription down.
var ErrUnreachable = errors.New("recipient unreachable")

// Subscription is one user's daily forecast subscription. Fields are filled
// in one at a time while the signup conversation progresses, so all of them
// are nullable until set.
type Subscription struct {
	ChatID int64
	Hour   *int
	Minute *int
	Lat    *float64
	Lon    *float64
}

// Patch carries a partial update; nil fields are left untouched.
type Patch struct {
	Hour   *int
	Minute *int
	Lat    *float64
	Lon    *float64
}

// Apply merges non-nil patch fields into the subscription.
func (s *Subscription) Apply(p Patch) {
	if p.Hour != nil {
		s.Hour = p.Hour
	}
	if p.Minute != nil {
		s.Minute = p.Minute
	}
	if p.Lat != nil {
		s.Lat = p.Lat
	}
	if p.Lon != nil {
		s.Lon = p.Lon
	}
}

// FieldCount returns how many of the required fields are set. The signup
// flow derives its current step from this count, so fields must only ever
// be filled in hour, minute, location order.
func (s *Subscription) FieldCount() int {
	n := 0
	if s.Hour != nil {
		n++
	}
	if s.Minute != nil {
		n++
	}
	if s.Lat != nil {
		n++
	}
	if s.Lon != nil {
		n++
	}
	return n
}

// Complete reports whether all required fields are set.
func (s *Subscription) Complete() bool {
	return s.FieldCount() == RequiredFields
}

// Step is the explicit signup state derived from a subscription's fields.
type Step int

const (
	// StepAbsent: no subscription record exists.
	StepAbsent Step = iota
	// StepAwaitingHour: record created, waiting for the hour.
	StepAwaitingHour
	// StepAwaitingMinute: hour set, waiting for the minute.
	StepAwaitingMinute
	// StepAwaitingLocation: hour and minute set, waiting for a location.
	StepAwaitingLocation
	// StepActive: record complete, daily trigger running.
	StepActive
)

// StepOf maps a (possibly nil) subscription to its signup step.
func StepOf(s *Subscription) Step {
	if s == nil {
		return StepAbsent
	}
	switch s.FieldCount() {
	case 0:
		return StepAwaitingHour
	case 1:
		return StepAwaitingMinute
	case 2:
		return StepAwaitingLocation
	default:
		return StepActive
	}
}

// ValidHour reports whether h is a valid hour of day.
func ValidHour(h int) bool { return h >= 0 && h <= 23 }

// ValidMinute reports whether m is a valid minute.
func ValidMinute(m int) bool { return m >= 0 && m <= 59 }
