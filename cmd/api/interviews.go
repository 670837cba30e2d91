package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"addressme/scheduling"
)

func (s *Server) handlePublishSlot(w http.ResponseWriter, r *http.Request) {
	var body slotRequest
	if !decodeBody(w, r, &body) {
		return
	}
	startsAt, err := time.Parse(time.RFC3339, body.StartsAt)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "startsAt must be an RFC 3339 timestamp"})
		return
	}
	endsAt, err := time.Parse(time.RFC3339, body.EndsAt)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "endsAt must be an RFC 3339 timestamp"})
		return
	}

	userID, _ := actorFromContext(r.Context())
	slot, err := s.scheduling.PublishSlot(r.Context(), userID, startsAt, endsAt)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSlotResponse(slot))
}

func (s *Server) handleOpenSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := s.scheduling.OpenSlots(r.Context(), r.URL.Query().Get("verifier_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := make([]slotResponse, 0, len(slots))
	for _, slot := range slots {
		resp = append(resp, newSlotResponse(slot))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBookAppointment(w http.ResponseWriter, r *http.Request) {
	var body bookRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.SlotID) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "slotId is required"})
		return
	}

	userID, _ := actorFromContext(r.Context())
	appt, err := s.scheduling.Book(r.Context(), userID, chi.URLParam(r, "id"), body.SlotID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newAppointmentResponse(appt))
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	req, ok := s.loadVisible(w, r)
	if !ok {
		return
	}
	appts, err := s.scheduling.Appointments(r.Context(), req.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := make([]appointmentResponse, 0, len(appts))
	for _, appt := range appts {
		resp = append(resp, newAppointmentResponse(appt))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	userID, _ := actorFromContext(r.Context())
	appt, err := s.scheduling.Cancel(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAppointmentResponse(appt))
}

func (s *Server) handleCompleteAppointment(w http.ResponseWriter, r *http.Request) {
	var body completeRequest
	if !decodeBody(w, r, &body) {
		return
	}
	userID, _ := actorFromContext(r.Context())
	appt, err := s.scheduling.Complete(r.Context(), userID, chi.URLParam(r, "id"), strings.TrimSpace(body.Notes))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newAppointmentResponse(appt))
}

func newSlotResponse(slot scheduling.Slot) slotResponse {
	return slotResponse{
		ID:         slot.ID,
		VerifierID: slot.VerifierID,
		StartsAt:   slot.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:     slot.EndsAt.UTC().Format(time.RFC3339),
		Booked:     slot.Booked,
	}
}

func newAppointmentResponse(appt scheduling.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:         appt.ID,
		SlotID:     appt.SlotID,
		RequestID:  appt.RequestID,
		ResidentID: appt.ResidentID,
		VerifierID: appt.VerifierID,
		StartsAt:   appt.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:     appt.EndsAt.UTC().Format(time.RFC3339),
		Status:     string(appt.Status),
		Notes:      appt.Notes,
	}
}
