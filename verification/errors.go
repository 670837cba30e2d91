package verification

import "errors"

var (
	// ErrInvalidInput signals malformed coordinates or missing fields.
	ErrInvalidInput = errors.New("verification: invalid input")
	// ErrNotFound is returned when no request exists for the identifier.
	ErrNotFound = errors.New("verification: not found")
	// ErrInvalidTransition signals the event has no edge from the current status.
	ErrInvalidTransition = errors.New("verification: invalid transition")
	// ErrForbidden signals the actor lacks the role or ownership the action needs.
	ErrForbidden = errors.New("verification: forbidden")
	// ErrCertificateNumberTaken is returned by a Store when an issued
	// certificate number is already held by another request.
	ErrCertificateNumberTaken = errors.New("verification: certificate number already issued")
)

// Outcome classifies err into a short label for logs and metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
