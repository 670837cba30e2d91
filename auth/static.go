package auth

import (
	"context"
	"fmt"
	"strings"

	"addressme/verification"
)

// StaticDirectory is a fixed actor-to-role map for local runs and tests.
type StaticDirectory map[string]verification.Role

// ParseStaticDirectory builds a directory from id -> role pairs as read from
// configuration.
func ParseStaticDirectory(pairs map[string]string) (StaticDirectory, error) {
	dir := make(StaticDirectory, len(pairs))
	for id, raw := range pairs {
		id = strings.TrimSpace(id)
		role := verification.Role(strings.TrimSpace(raw))
		if id == "" || !isValidRole(role) {
			return nil, fmt.Errorf("%w: %q=%q", ErrInvalidUser, id, raw)
		}
		dir[id] = role
	}
	return dir, nil
}

// Role implements verification.RoleLookup.
func (s StaticDirectory) Role(_ context.Context, actorID string) (verification.Role, error) {
	return s[actorID], nil
}
