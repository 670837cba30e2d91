package main

//go:generate mockgen -source=ports.go -destination=mocks/workflow-mocks.go -package=mocks

import (
	"context"
	"time"

	"addressme/auth"
	"addressme/scheduling"
	"addressme/verification"
)

// Workflow is the part of verification.Service the HTTP layer drives.
type Workflow interface {
	CreateRequest(ctx context.Context, residentID string, coords verification.Coordinates) (verification.AddressRequest, error)
	Transition(ctx context.Context, requestID string, event verification.Event, actorID, note string) (verification.AddressRequest, error)
	CorrectLocation(ctx context.Context, requestID, actorID string, coords verification.Coordinates) (verification.AddressRequest, error)
	GetStatus(ctx context.Context, requestID string) (verification.StatusReport, error)
	Get(ctx context.Context, requestID string) (verification.AddressRequest, error)
	List(ctx context.Context, filters verification.ListFilters) ([]verification.AddressRequest, int, error)
}

// TokenVerifier validates bearer tokens. Only the subject is trusted; the
// caller's role always comes from Users.
type TokenVerifier interface {
	VerifyToken(token string) (string, verification.Role, error)
}

// Users resolves callers to roles and manages registration.
type Users interface {
	Role(ctx context.Context, actorID string) (verification.Role, error)
	GetUser(ctx context.Context, id string) (auth.User, error)
	Register(ctx context.Context, id, fullName string, role verification.Role) (auth.User, error)
	Approve(ctx context.Context, approverID, userID string) (auth.User, error)
}

// Scheduling books interviews for requests under review.
type Scheduling interface {
	PublishSlot(ctx context.Context, verifierID string, startsAt, endsAt time.Time) (scheduling.Slot, error)
	OpenSlots(ctx context.Context, verifierID string) ([]scheduling.Slot, error)
	Book(ctx context.Context, residentID, requestID, slotID string) (scheduling.Appointment, error)
	Cancel(ctx context.Context, actorID, appointmentID string) (scheduling.Appointment, error)
	Complete(ctx context.Context, verifierID, appointmentID, notes string) (scheduling.Appointment, error)
	Appointments(ctx context.Context, requestID string) ([]scheduling.Appointment, error)
}
