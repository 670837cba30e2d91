package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"addressme/verification"
)

// Service manages interview slots and appointments. Bookings never move the
// request through the workflow; they only require it to be under review by
// the slot's verifier.
type Service struct {
	store       Store
	requests    RequestReader
	roles       verification.RoleLookup
	logger      *zap.Logger
	idGenerator func() string
	now         func() time.Time
}

func NewService(store Store, requests RequestReader, roles verification.RoleLookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		requests:    requests,
		roles:       roles,
		logger:      logger,
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) requireRole(ctx context.Context, actorID string, want verification.Role) error {
	role, err := s.roles.Role(ctx, actorID)
	if err != nil {
		return fmt.Errorf("scheduling: resolve role: %w", err)
	}
	if role != want {
		return fmt.Errorf("%w: requires %s role", verification.ErrForbidden, want)
	}
	return nil
}

// PublishSlot offers a future window of MinSlotLength to MaxSlotLength.
func (s *Service) PublishSlot(ctx context.Context, verifierID string, startsAt, endsAt time.Time) (Slot, error) {
	if err := s.requireRole(ctx, verifierID, verification.RoleVerifier); err != nil {
		return Slot{}, err
	}
	now := s.now().UTC()
	startsAt, endsAt = startsAt.UTC(), endsAt.UTC()
	if !startsAt.After(now) {
		return Slot{}, fmt.Errorf("%w: slot must start in the future", verification.ErrInvalidInput)
	}
	if length := endsAt.Sub(startsAt); length < MinSlotLength || length > MaxSlotLength {
		return Slot{}, fmt.Errorf("%w: slot length %s outside [%s, %s]", verification.ErrInvalidInput, length, MinSlotLength, MaxSlotLength)
	}

	slot := Slot{
		ID:         s.idGenerator(),
		VerifierID: verifierID,
		StartsAt:   startsAt,
		EndsAt:     endsAt,
		CreatedAt:  now,
	}
	if err := s.store.CreateSlot(ctx, slot); err != nil {
		return Slot{}, err
	}
	s.logger.Info("interview slot published",
		zap.String("slot_id", slot.ID),
		zap.String("verifier_id", verifierID),
		zap.Time("starts_at", startsAt),
	)
	return slot, nil
}

// OpenSlots lists unbooked future slots, optionally for one verifier.
func (s *Service) OpenSlots(ctx context.Context, verifierID string) ([]Slot, error) {
	return s.store.OpenSlots(ctx, strings.TrimSpace(verifierID), s.now().UTC())
}

// Book reserves slotID for the resident's request. The request must be under
// review by the verifier who published the slot.
func (s *Service) Book(ctx context.Context, residentID, requestID, slotID string) (Appointment, error) {
	if err := s.requireRole(ctx, residentID, verification.RoleResident); err != nil {
		return Appointment{}, err
	}
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return Appointment{}, err
	}
	if req.ResidentID != residentID {
		return Appointment{}, fmt.Errorf("%w: request belongs to another resident", verification.ErrForbidden)
	}
	if req.Status != verification.StatusUnderReview || req.VerifierID == nil {
		return Appointment{}, fmt.Errorf("%w: interviews are booked while the request is under review, it is %s", ErrConflict, req.Status)
	}

	slot, err := s.store.GetSlot(ctx, slotID)
	if err != nil {
		return Appointment{}, err
	}
	if slot.VerifierID != *req.VerifierID {
		return Appointment{}, fmt.Errorf("%w: slot belongs to another verifier", verification.ErrForbidden)
	}
	now := s.now().UTC()
	if !slot.StartsAt.After(now) {
		return Appointment{}, fmt.Errorf("%w: slot has already started", ErrConflict)
	}

	appt := Appointment{
		ID:         s.idGenerator(),
		SlotID:     slot.ID,
		RequestID:  req.ID,
		ResidentID: residentID,
		VerifierID: slot.VerifierID,
		StartsAt:   slot.StartsAt,
		EndsAt:     slot.EndsAt,
		Status:     AppointmentScheduled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Book(ctx, appt); err != nil {
		return Appointment{}, err
	}
	s.logger.Info("interview booked",
		zap.String("appointment_id", appt.ID),
		zap.String("request_id", req.ID),
		zap.String("slot_id", slot.ID),
	)
	return appt, nil
}

// Cancel withdraws a scheduled appointment and frees its slot. Either party
// may cancel.
func (s *Service) Cancel(ctx context.Context, actorID, appointmentID string) (Appointment, error) {
	appt, err := s.store.UpdateAppointment(ctx, appointmentID, func(a *Appointment) error {
		if actorID != a.ResidentID && actorID != a.VerifierID {
			return fmt.Errorf("%w: not a party to the appointment", verification.ErrForbidden)
		}
		if a.Status != AppointmentScheduled {
			return fmt.Errorf("%w: appointment is %s", ErrConflict, a.Status)
		}
		a.Status = AppointmentCancelled
		a.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	s.logger.Info("interview cancelled", zap.String("appointment_id", appointmentID), zap.String("actor_id", actorID))
	return appt, nil
}

// Complete records that the interview took place.
func (s *Service) Complete(ctx context.Context, verifierID, appointmentID, notes string) (Appointment, error) {
	if utf8.RuneCountInString(notes) > maxNoteLength {
		return Appointment{}, fmt.Errorf("%w: notes exceed %d characters", verification.ErrInvalidInput, maxNoteLength)
	}
	if err := s.requireRole(ctx, verifierID, verification.RoleVerifier); err != nil {
		return Appointment{}, err
	}
	appt, err := s.store.UpdateAppointment(ctx, appointmentID, func(a *Appointment) error {
		if a.VerifierID != verifierID {
			return fmt.Errorf("%w: appointment belongs to another verifier", verification.ErrForbidden)
		}
		if a.Status != AppointmentScheduled {
			return fmt.Errorf("%w: appointment is %s", ErrConflict, a.Status)
		}
		now := s.now().UTC()
		if now.Before(a.StartsAt) {
			return fmt.Errorf("%w: interview has not started", ErrConflict)
		}
		a.Status = AppointmentCompleted
		a.Notes = notes
		a.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Appointment{}, err
	}
	s.logger.Info("interview completed", zap.String("appointment_id", appointmentID))
	return appt, nil
}

// Appointments lists every appointment of a request, earliest first.
func (s *Service) Appointments(ctx context.Context, requestID string) ([]Appointment, error) {
	return s.store.AppointmentsForRequest(ctx, requestID)
}
