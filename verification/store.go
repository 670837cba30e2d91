package verification

import (
	"context"
	"time"
)

// Store persists address requests. Update must serialize concurrent calls for
// the same id: fn receives a private copy of the current record and the copy
// is saved only when fn returns nil.
type Store interface {
	Create(ctx context.Context, req AddressRequest) error
	Get(ctx context.Context, id string) (AddressRequest, error)
	List(ctx context.Context, filters ListFilters) ([]AddressRequest, int, error)
	Update(ctx context.Context, id string, fn func(*AddressRequest) error) (AddressRequest, error)
}

// RoleLookup resolves an actor to the capability it holds. Unknown actors
// resolve to RoleNone without error.
type RoleLookup interface {
	Role(ctx context.Context, actorID string) (Role, error)
}

// Recorder receives engine measurements.
type Recorder interface {
	RequestCreated()
	TransitionObserved(event, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RequestCreated()                                  {}
func (nopRecorder) TransitionObserved(string, string, time.Duration) {}
