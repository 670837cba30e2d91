package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxNoteLength       = 2000
	certificateValidity = 365 * 24 * time.Hour
	// certificateAttempts bounds how often an approval redraws a certificate
	// number that collided with an issued one.
	certificateAttempts = 3
)

// Service is the verification workflow engine. Every failure is returned
// synchronously; nothing is retried.
type Service struct {
	store       Store
	roles       RoleLookup
	logger      *zap.Logger
	recorder    Recorder
	idGenerator func() string
	certNumbers func() string
	now         func() time.Time
}

func NewService(store Store, roles RoleLookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		roles:       roles,
		logger:      logger,
		recorder:    nopRecorder{},
		idGenerator: func() string { return uuid.NewString() },
		certNumbers: newCertificateNumber,
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

func (s *Service) WithRecorder(r Recorder) *Service {
	if r == nil {
		r = nopRecorder{}
	}
	s.recorder = r
	return s
}

func (s *Service) WithCertificateNumbers(gen func() string) *Service {
	s.certNumbers = gen
	return s
}

// CreateRequest records a resident's submission in Pending with its first
// history entry.
func (s *Service) CreateRequest(ctx context.Context, residentID string, coords Coordinates) (AddressRequest, error) {
	residentID = strings.TrimSpace(residentID)
	if residentID == "" {
		return AddressRequest{}, fmt.Errorf("%w: resident id required", ErrInvalidInput)
	}
	if err := coords.Validate(); err != nil {
		return AddressRequest{}, err
	}

	role, err := s.roles.Role(ctx, residentID)
	if err != nil {
		return AddressRequest{}, fmt.Errorf("verification: resolve role: %w", err)
	}
	if role != RoleResident {
		return AddressRequest{}, fmt.Errorf("%w: only residents may submit requests", ErrForbidden)
	}

	now := s.now().UTC()
	req := AddressRequest{
		ID:          s.idGenerator(),
		ResidentID:  residentID,
		Coordinates: coords,
		Status:      StatusPending,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	req.History.Append(HistoryEntry{
		Status:     StatusPending,
		Event:      EventSubmit,
		ActorID:    residentID,
		RecordedAt: now,
	})

	if err := s.store.Create(ctx, req); err != nil {
		return AddressRequest{}, err
	}

	s.recorder.RequestCreated()
	s.logger.Info("address request submitted",
		zap.String("request_id", req.ID),
		zap.String("resident_id", residentID),
		zap.Float64("latitude", coords.Latitude),
		zap.Float64("longitude", coords.Longitude),
	)
	return req, nil
}

// Transition applies event to the request on behalf of actorID. The existence
// check comes first, then the edge, then the actor's role, so a verifier that
// lost a race observes ErrInvalidTransition.
func (s *Service) Transition(ctx context.Context, requestID string, event Event, actorID, note string) (AddressRequest, error) {
	start := time.Now()
	updated, err := s.transition(ctx, requestID, event, actorID, note)
	outcome := Outcome(err)
	s.recorder.TransitionObserved(string(event), outcome, time.Since(start))

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("event", string(event)),
		zap.String("actor_id", actorID),
		zap.String("outcome", outcome),
	}
	switch outcome {
	case "ok":
		s.logger.Info("address request transitioned", append(fields, zap.String("status", string(updated.Status)))...)
	case "error":
		s.logger.Error("address request transition failed", append(fields, zap.Error(err))...)
	default:
		s.logger.Debug("address request transition refused", append(fields, zap.Error(err))...)
	}
	return updated, err
}

func (s *Service) transition(ctx context.Context, requestID string, event Event, actorID, note string) (AddressRequest, error) {
	requestID = strings.TrimSpace(requestID)
	actorID = strings.TrimSpace(actorID)
	if requestID == "" || actorID == "" {
		return AddressRequest{}, fmt.Errorf("%w: request id and actor id required", ErrInvalidInput)
	}
	note, err := cleanNote(note)
	if err != nil {
		return AddressRequest{}, err
	}

	role, err := s.roles.Role(ctx, actorID)
	if err != nil {
		return AddressRequest{}, fmt.Errorf("verification: resolve role: %w", err)
	}

	var updated AddressRequest
	for attempt := 1; attempt <= certificateAttempts; attempt++ {
		updated, err = s.apply(ctx, requestID, event, actorID, note, role)
		if !errors.Is(err, ErrCertificateNumberTaken) {
			break
		}
		s.logger.Warn("certificate number collision",
			zap.String("request_id", requestID),
			zap.Int("attempt", attempt),
		)
	}
	return updated, err
}

func (s *Service) apply(ctx context.Context, requestID string, event Event, actorID, note string, role Role) (AddressRequest, error) {
	return s.store.Update(ctx, requestID, func(req *AddressRequest) error {
		edge, ok := lookupEdge(req.Status, event)
		if !ok {
			return fmt.Errorf("%w: %q from %s", ErrInvalidTransition, event, req.Status)
		}
		if err := edge.authorize(role, actorID, req); err != nil {
			return err
		}

		now := s.now().UTC()
		req.Status = edge.To
		if edge.Actor == RoleVerifier {
			verifier := actorID
			req.VerifierID = &verifier
		}
		if edge.To == StatusVerified {
			req.Certificate = &Certificate{
				Number:    s.certNumbers(),
				IssuedAt:  now,
				ExpiresAt: now.Add(certificateValidity),
			}
		}
		req.UpdatedAt = now
		req.History.Append(HistoryEntry{
			Status:     edge.To,
			Event:      event,
			ActorID:    actorID,
			Note:       note,
			RecordedAt: now,
		})
		return nil
	})
}

// CorrectLocation replaces the coordinates of a Pending request. Only the
// submitting resident may do so.
func (s *Service) CorrectLocation(ctx context.Context, requestID, actorID string, coords Coordinates) (AddressRequest, error) {
	requestID = strings.TrimSpace(requestID)
	actorID = strings.TrimSpace(actorID)
	if requestID == "" || actorID == "" {
		return AddressRequest{}, fmt.Errorf("%w: request id and actor id required", ErrInvalidInput)
	}
	if err := coords.Validate(); err != nil {
		return AddressRequest{}, err
	}

	updated, err := s.store.Update(ctx, requestID, func(req *AddressRequest) error {
		if req.ResidentID != actorID {
			return fmt.Errorf("%w: only the submitting resident may correct the location", ErrForbidden)
		}
		if req.Status != StatusPending {
			return fmt.Errorf("%w: location is locked once review starts (status %s)", ErrForbidden, req.Status)
		}

		moved := DistanceMeters(req.Coordinates, coords)
		now := s.now().UTC()
		req.Coordinates = coords
		req.UpdatedAt = now
		req.History.Append(HistoryEntry{
			Status:     req.Status,
			Event:      EventCorrectLocation,
			ActorID:    actorID,
			Note:       fmt.Sprintf("location corrected by %.1f m", moved),
			RecordedAt: now,
		})
		return nil
	})
	if err != nil {
		s.logger.Debug("location correction refused",
			zap.String("request_id", requestID),
			zap.String("actor_id", actorID),
			zap.Error(err),
		)
		return AddressRequest{}, err
	}

	s.logger.Info("address request location corrected", zap.String("request_id", requestID))
	return updated, nil
}

// GetStatus returns the current status and the full history of a request.
func (s *Service) GetStatus(ctx context.Context, requestID string) (StatusReport, error) {
	req, err := s.Get(ctx, requestID)
	if err != nil {
		return StatusReport{}, err
	}
	return StatusReport{
		RequestID:   req.ID,
		ResidentID:  req.ResidentID,
		Status:      req.Status,
		VerifierID:  req.VerifierID,
		Certificate: req.Certificate,
		History:     req.History.Entries(),
		UpdatedAt:   req.UpdatedAt,
	}, nil
}

// Get returns the full record of a request.
func (s *Service) Get(ctx context.Context, requestID string) (AddressRequest, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return AddressRequest{}, fmt.Errorf("%w: request id required", ErrInvalidInput)
	}
	return s.store.Get(ctx, requestID)
}

// List returns requests matching filters, newest first, with the total count.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]AddressRequest, int, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filters.Status)
	}
	return s.store.List(ctx, filters.normalized())
}

func cleanNote(note string) (string, error) {
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > maxNoteLength {
		return "", fmt.Errorf("%w: note exceeds %d characters", ErrInvalidInput, maxNoteLength)
	}
	return note, nil
}

func newCertificateNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "AM-" + strings.ToUpper(raw[:8])
}
