package auth

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"addressme/verification"
)

// User is an actor known to the directory. Residents act on their own
// requests; verifiers act only once approved.
type User struct {
	ID        string
	FullName  string
	Role      verification.Role
	Approved  bool
	CreatedAt time.Time
}

// EffectiveRole is the capability the user holds right now.
func (u User) EffectiveRole() verification.Role {
	switch u.Role {
	case verification.RoleResident:
		return verification.RoleResident
	case verification.RoleVerifier:
		if u.Approved {
			return verification.RoleVerifier
		}
	}
	return verification.RoleNone
}

func isValidRole(role verification.Role) bool {
	switch role {
	case verification.RoleResident, verification.RoleVerifier:
		return true
	default:
		return false
	}
}

const maxFullNameLength = 200

func validateUser(u User) error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("%w: id required", ErrInvalidUser)
	}
	if !isValidRole(u.Role) {
		return fmt.Errorf("%w: role %q", ErrInvalidUser, u.Role)
	}
	if utf8.RuneCountInString(u.FullName) > maxFullNameLength {
		return fmt.Errorf("%w: full name exceeds %d characters", ErrInvalidUser, maxFullNameLength)
	}
	return nil
}
