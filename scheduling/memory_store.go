package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"addressme/verification"
)

// MemoryStore is an in-process Store guarded by a single mutex.
type MemoryStore struct {
	mu           sync.Mutex
	slots        map[string]Slot
	appointments map[string]Appointment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots:        make(map[string]Slot),
		appointments: make(map[string]Appointment),
	}
}

func (m *MemoryStore) CreateSlot(_ context.Context, slot Slot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.slots {
		if existing.VerifierID == slot.VerifierID && existing.overlaps(slot) {
			return ErrConflict
		}
	}
	m.slots[slot.ID] = slot
	return nil
}

func (m *MemoryStore) GetSlot(_ context.Context, id string) (Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots[id]
	if !ok {
		return Slot{}, verification.ErrNotFound
	}
	return slot, nil
}

func (m *MemoryStore) OpenSlots(_ context.Context, verifierID string, after time.Time) ([]Slot, error) {
	m.mu.Lock()
	open := make([]Slot, 0, len(m.slots))
	for _, slot := range m.slots {
		if slot.Booked || !slot.StartsAt.After(after) {
			continue
		}
		if verifierID != "" && slot.VerifierID != verifierID {
			continue
		}
		open = append(open, slot)
	}
	m.mu.Unlock()

	sort.Slice(open, func(i, j int) bool {
		if open[i].StartsAt.Equal(open[j].StartsAt) {
			return open[i].ID < open[j].ID
		}
		return open[i].StartsAt.Before(open[j].StartsAt)
	})
	return open, nil
}

func (m *MemoryStore) Book(_ context.Context, appt Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots[appt.SlotID]
	if !ok {
		return verification.ErrNotFound
	}
	if slot.Booked {
		return ErrConflict
	}
	for _, existing := range m.appointments {
		if existing.RequestID == appt.RequestID && existing.Status == AppointmentScheduled {
			return ErrConflict
		}
	}
	slot.Booked = true
	m.slots[slot.ID] = slot
	m.appointments[appt.ID] = appt
	return nil
}

func (m *MemoryStore) UpdateAppointment(_ context.Context, id string, fn func(*Appointment) error) (Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.appointments[id]
	if !ok {
		return Appointment{}, verification.ErrNotFound
	}
	next := current
	if err := fn(&next); err != nil {
		return Appointment{}, err
	}
	if current.Status == AppointmentScheduled && next.Status == AppointmentCancelled {
		if slot, ok := m.slots[next.SlotID]; ok {
			slot.Booked = false
			m.slots[slot.ID] = slot
		}
	}
	m.appointments[id] = next
	return next, nil
}

func (m *MemoryStore) AppointmentsForRequest(_ context.Context, requestID string) ([]Appointment, error) {
	m.mu.Lock()
	out := make([]Appointment, 0)
	for _, appt := range m.appointments {
		if appt.RequestID == requestID {
			out = append(out, appt)
		}
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out, nil
}
