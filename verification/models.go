package verification

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Status is the workflow state of an address request.
type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusNeedsInfo   Status = "needs_info"
	StatusVerified    Status = "verified"
	StatusRejected    Status = "rejected"
)

// Statuses lists every workflow state in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusUnderReview, StatusNeedsInfo, StatusVerified, StatusRejected}
}

// Terminal reports whether no further transition leaves the status.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

func (s Status) Valid() bool {
	return slices.Contains(Statuses(), s)
}

// Event names an action applied to a request.
type Event string

const (
	EventSubmit          Event = "submit"
	EventClaim           Event = "claim"
	EventApprove         Event = "approve"
	EventReject          Event = "reject"
	EventRequestInfo     Event = "requestInfo"
	EventProvideInfo     Event = "provideInfo"
	EventCorrectLocation Event = "correctLocation"
)

// Events lists the workflow events that appear in the transition table.
func Events() []Event {
	return []Event{EventSubmit, EventClaim, EventApprove, EventReject, EventRequestInfo, EventProvideInfo}
}

// Role is the capability an actor holds as reported by a RoleLookup.
type Role string

const (
	RoleNone     Role = ""
	RoleResident Role = "resident"
	RoleVerifier Role = "verifier"
)

// Coordinates is a WGS84 point in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Validate rejects non-finite or out-of-range coordinates.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidInput, c.Latitude)
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidInput, c.Longitude)
	}
	return nil
}

// HistoryEntry is an immutable audit record of one change to a request.
type HistoryEntry struct {
	Seq        int
	Status     Status
	Event      Event
	ActorID    string
	Note       string
	RecordedAt time.Time
}

// History is the append-only audit log of a request. The zero value is an
// empty log; entries can only be added through Append.
type History struct {
	entries []HistoryEntry
}

// NewHistory rebuilds a history from persisted entries, already ordered by seq.
func NewHistory(entries ...HistoryEntry) History {
	return History{entries: slices.Clone(entries)}
}

// Append records e as the next entry and returns it with its sequence number.
func (h *History) Append(e HistoryEntry) HistoryEntry {
	e.Seq = len(h.entries) + 1
	h.entries = append(h.entries, e)
	return e
}

// Entries returns a copy of the log in append order.
func (h History) Entries() []HistoryEntry {
	return slices.Clone(h.entries)
}

func (h History) Len() int {
	return len(h.entries)
}

// Last returns the most recent entry.
func (h History) Last() (HistoryEntry, bool) {
	if len(h.entries) == 0 {
		return HistoryEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Since returns the entries appended after the first n.
func (h History) Since(n int) []HistoryEntry {
	if n >= len(h.entries) {
		return nil
	}
	if n < 0 {
		n = 0
	}
	return slices.Clone(h.entries[n:])
}

func (h History) clone() History {
	return History{entries: slices.Clone(h.entries)}
}

// Certificate is the proof of address issued when a request is verified.
type Certificate struct {
	Number    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AddressRequest is one resident's claim to a location.
type AddressRequest struct {
	ID          string
	ResidentID  string
	Coordinates Coordinates
	Status      Status
	VerifierID  *string
	Certificate *Certificate
	History     History
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r AddressRequest) clone() AddressRequest {
	out := r
	out.History = r.History.clone()
	if r.VerifierID != nil {
		v := *r.VerifierID
		out.VerifierID = &v
	}
	if r.Certificate != nil {
		c := *r.Certificate
		out.Certificate = &c
	}
	return out
}

// StatusReport is the read model returned by GetStatus.
type StatusReport struct {
	RequestID   string
	ResidentID  string
	Status      Status
	VerifierID  *string
	Certificate *Certificate
	History     []HistoryEntry
	UpdatedAt   time.Time
}

// ListFilters narrows List results. Empty fields match everything.
type ListFilters struct {
	Status     Status
	ResidentID string
	Page       int
	PageSize   int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (f ListFilters) normalized() ListFilters {
	if f.Page <= 0 {
		f.Page = 1
	}
	switch {
	case f.PageSize <= 0:
		f.PageSize = defaultPageSize
	case f.PageSize > maxPageSize:
		f.PageSize = maxPageSize
	}
	return f
}

func (f ListFilters) offset() int {
	return (f.Page - 1) * f.PageSize
}
