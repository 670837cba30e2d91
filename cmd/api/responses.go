package main

import (
	"time"

	"addressme/auth"
	"addressme/verification"
)

type errorResponse struct {
	Error string `json:"error"`
}

type coordinatesRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (c coordinatesRequest) coordinates() (verification.Coordinates, bool) {
	if c.Latitude == nil || c.Longitude == nil {
		return verification.Coordinates{}, false
	}
	return verification.Coordinates{Latitude: *c.Latitude, Longitude: *c.Longitude}, true
}

type transitionRequest struct {
	Event string `json:"event"`
	Note  string `json:"note"`
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type userResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Role      string `json:"role"`
	Approved  bool   `json:"approved"`
	CreatedAt string `json:"createdAt"`
}

func newUserResponse(u auth.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FullName:  u.FullName,
		Role:      string(u.Role),
		Approved:  u.Approved,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type slotRequest struct {
	StartsAt string `json:"startsAt"`
	EndsAt   string `json:"endsAt"`
}

type bookRequest struct {
	SlotID string `json:"slotId"`
}

type completeRequest struct {
	Notes string `json:"notes"`
}

type slotResponse struct {
	ID         string `json:"id"`
	VerifierID string `json:"verifierId"`
	StartsAt   string `json:"startsAt"`
	EndsAt     string `json:"endsAt"`
	Booked     bool   `json:"booked"`
}

type appointmentResponse struct {
	ID         string `json:"id"`
	SlotID     string `json:"slotId"`
	RequestID  string `json:"requestId"`
	ResidentID string `json:"residentId"`
	VerifierID string `json:"verifierId"`
	StartsAt   string `json:"startsAt"`
	EndsAt     string `json:"endsAt"`
	Status     string `json:"status"`
	Notes      string `json:"notes,omitempty"`
}

type certificateResponse struct {
	Number    string `json:"number"`
	IssuedAt  string `json:"issuedAt"`
	ExpiresAt string `json:"expiresAt"`
}

type historyEntryResponse struct {
	Seq        int    `json:"seq"`
	Status     string `json:"status"`
	Event      string `json:"event"`
	ActorID    string `json:"actorId"`
	Note       string `json:"note,omitempty"`
	RecordedAt string `json:"recordedAt"`
}

type requestResponse struct {
	ID          string                 `json:"id"`
	ResidentID  string                 `json:"residentId"`
	Latitude    float64                `json:"latitude"`
	Longitude   float64                `json:"longitude"`
	Status      string                 `json:"status"`
	VerifierID  *string                `json:"verifierId"`
	Certificate *certificateResponse   `json:"certificate,omitempty"`
	History     []historyEntryResponse `json:"history"`
	CreatedAt   string                 `json:"createdAt"`
	UpdatedAt   string                 `json:"updatedAt"`
}

type statusResponse struct {
	RequestID   string                 `json:"requestId"`
	ResidentID  string                 `json:"residentId"`
	Status      string                 `json:"status"`
	VerifierID  *string                `json:"verifierId"`
	Certificate *certificateResponse   `json:"certificate,omitempty"`
	History     []historyEntryResponse `json:"history"`
	UpdatedAt   string                 `json:"updatedAt"`
}

type listResponse struct {
	Items []requestResponse `json:"items"`
	Total int               `json:"total"`
}

func newRequestResponse(req verification.AddressRequest) requestResponse {
	return requestResponse{
		ID:          req.ID,
		ResidentID:  req.ResidentID,
		Latitude:    req.Coordinates.Latitude,
		Longitude:   req.Coordinates.Longitude,
		Status:      string(req.Status),
		VerifierID:  req.VerifierID,
		Certificate: newCertificateResponse(req.Certificate),
		History:     newHistoryResponse(req.History.Entries()),
		CreatedAt:   req.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   req.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func newStatusResponse(report verification.StatusReport) statusResponse {
	return statusResponse{
		RequestID:   report.RequestID,
		ResidentID:  report.ResidentID,
		Status:      string(report.Status),
		VerifierID:  report.VerifierID,
		Certificate: newCertificateResponse(report.Certificate),
		History:     newHistoryResponse(report.History),
		UpdatedAt:   report.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func newCertificateResponse(c *verification.Certificate) *certificateResponse {
	if c == nil {
		return nil
	}
	return &certificateResponse{
		Number:    c.Number,
		IssuedAt:  c.IssuedAt.UTC().Format(time.RFC3339),
		ExpiresAt: c.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func newHistoryResponse(entries []verification.HistoryEntry) []historyEntryResponse {
	out := make([]historyEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntryResponse{
			Seq:        e.Seq,
			Status:     string(e.Status),
			Event:      string(e.Event),
			ActorID:    e.ActorID,
			Note:       e.Note,
			RecordedAt: e.RecordedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
