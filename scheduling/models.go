// Package scheduling books the in-person interview a verifier may hold with a
// resident while the resident's request is under review.
package scheduling

import (
	"errors"
	"time"
)

// ErrConflict signals a slot or appointment that is not in a state the
// operation accepts: an overlapping slot, a slot already taken, a second
// booking for one request, or an appointment that is no longer scheduled.
var ErrConflict = errors.New("scheduling: conflict")

const (
	MinSlotLength = 15 * time.Minute
	MaxSlotLength = 4 * time.Hour
	maxNoteLength = 2000
)

// Slot is a window a verifier offers for interviews.
type Slot struct {
	ID         string
	VerifierID string
	StartsAt   time.Time
	EndsAt     time.Time
	Booked     bool
	CreatedAt  time.Time
}

func (s Slot) overlaps(o Slot) bool {
	return s.StartsAt.Before(o.EndsAt) && o.StartsAt.Before(s.EndsAt)
}

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment is a booked slot tied to one address request.
type Appointment struct {
	ID         string
	SlotID     string
	RequestID  string
	ResidentID string
	VerifierID string
	StartsAt   time.Time
	EndsAt     time.Time
	Status     AppointmentStatus
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
