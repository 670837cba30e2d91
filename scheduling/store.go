package scheduling

import (
	"context"
	"time"

	"addressme/verification"
)

// Store persists slots and appointments.
//
// CreateSlot fails with ErrConflict when the slot overlaps another slot of the
// same verifier. Book marks the slot taken and saves the appointment
// atomically; it fails with ErrConflict when the slot is taken or the request
// already has a scheduled appointment. UpdateAppointment serializes calls for
// one id and frees the slot when fn cancels a scheduled appointment.
type Store interface {
	CreateSlot(ctx context.Context, slot Slot) error
	GetSlot(ctx context.Context, id string) (Slot, error)
	OpenSlots(ctx context.Context, verifierID string, after time.Time) ([]Slot, error)
	Book(ctx context.Context, appt Appointment) error
	UpdateAppointment(ctx context.Context, id string, fn func(*Appointment) error) (Appointment, error)
	AppointmentsForRequest(ctx context.Context, requestID string) ([]Appointment, error)
}

// RequestReader loads the address request an appointment is booked for.
type RequestReader interface {
	Get(ctx context.Context, requestID string) (verification.AddressRequest, error)
}
