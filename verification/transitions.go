package verification

import "fmt"

// Edge is one row of the workflow transition table.
type Edge struct {
	From  Status
	Event Event
	To    Status
	Actor Role
	// OwnerOnly restricts the edge to the resident who submitted the request.
	OwnerOnly bool
	// CreationOnly edges are applied by CreateRequest, never by Transition.
	CreationOnly bool
}

var transitionTable = []Edge{
	{From: StatusPending, Event: EventSubmit, To: StatusPending, Actor: RoleResident, CreationOnly: true},
	{From: StatusPending, Event: EventClaim, To: StatusUnderReview, Actor: RoleVerifier},
	{From: StatusUnderReview, Event: EventApprove, To: StatusVerified, Actor: RoleVerifier},
	{From: StatusUnderReview, Event: EventReject, To: StatusRejected, Actor: RoleVerifier},
	{From: StatusUnderReview, Event: EventRequestInfo, To: StatusNeedsInfo, Actor: RoleVerifier},
	{From: StatusNeedsInfo, Event: EventProvideInfo, To: StatusUnderReview, Actor: RoleResident, OwnerOnly: true},
}

// Edges returns a copy of the transition table.
func Edges() []Edge {
	out := make([]Edge, len(transitionTable))
	copy(out, transitionTable)
	return out
}

// lookupEdge finds the edge Transition may apply for event from status.
func lookupEdge(from Status, event Event) (Edge, bool) {
	for _, e := range transitionTable {
		if e.From == from && e.Event == event && !e.CreationOnly {
			return e, true
		}
	}
	return Edge{}, false
}

func (e Edge) authorize(role Role, actorID string, req *AddressRequest) error {
	if role != e.Actor {
		return fmt.Errorf("%w: %s requires role %s", ErrForbidden, e.Event, e.Actor)
	}
	if e.OwnerOnly && req.ResidentID != actorID {
		return fmt.Errorf("%w: %s is reserved for the submitting resident", ErrForbidden, e.Event)
	}
	return nil
}
