package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"addressme/verification"
)

// UserStore is the user persistence behind Onboarding. Directory and
// MemoryDirectory implement it.
type UserStore interface {
	Role(ctx context.Context, actorID string) (verification.Role, error)
	GetUser(ctx context.Context, id string) (User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	UpsertUser(ctx context.Context, user User) (User, error)
	SetApproved(ctx context.Context, id string, approved bool) error
}

// Onboarding registers users and lets approved verifiers approve new ones.
// Residents are usable on registration; verifiers hold no role until approved.
type Onboarding struct {
	users  UserStore
	logger *zap.Logger
}

func NewOnboarding(users UserStore, logger *zap.Logger) *Onboarding {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Onboarding{users: users, logger: logger}
}

// Role implements verification.RoleLookup.
func (o *Onboarding) Role(ctx context.Context, actorID string) (verification.Role, error) {
	return o.users.Role(ctx, actorID)
}

func (o *Onboarding) GetUser(ctx context.Context, id string) (User, error) {
	return o.users.GetUser(ctx, id)
}

// Register records the authenticated identity id as a new user.
func (o *Onboarding) Register(ctx context.Context, id, fullName string, role verification.Role) (User, error) {
	user := User{
		ID:       strings.TrimSpace(id),
		FullName: strings.TrimSpace(fullName),
		Role:     role,
		Approved: role == verification.RoleResident,
	}
	if user.FullName == "" {
		return User{}, fmt.Errorf("%w: full name required", ErrInvalidUser)
	}
	created, err := o.users.CreateUser(ctx, user)
	if err != nil {
		return User{}, err
	}
	o.logger.Info("user registered",
		zap.String("user_id", created.ID),
		zap.String("role", string(created.Role)),
		zap.Bool("approved", created.Approved),
	)
	return created, nil
}

// Approve lets an approved verifier admit a registered verifier.
func (o *Onboarding) Approve(ctx context.Context, approverID, userID string) (User, error) {
	role, err := o.users.Role(ctx, approverID)
	if err != nil {
		return User{}, fmt.Errorf("auth: resolve approver: %w", err)
	}
	if role != verification.RoleVerifier {
		return User{}, fmt.Errorf("%w: only approved verifiers may approve users", verification.ErrForbidden)
	}

	user, err := o.users.GetUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	if user.Role != verification.RoleVerifier {
		return User{}, fmt.Errorf("%w: %s is not a verifier", ErrInvalidUser, userID)
	}
	if user.Approved {
		return user, nil
	}
	if err := o.users.SetApproved(ctx, userID, true); err != nil {
		return User{}, err
	}
	user.Approved = true
	o.logger.Info("verifier approved", zap.String("user_id", userID), zap.String("approved_by", approverID))
	return user, nil
}

// Bootstrap makes each id an approved verifier, keeping any stored name. It
// seeds the first verifiers, who then approve the rest.
func (o *Onboarding) Bootstrap(ctx context.Context, ids []string) error {
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		user, err := o.users.GetUser(ctx, id)
		if err != nil && !errors.Is(err, ErrUserNotFound) {
			return err
		}
		user.ID = id
		user.Role = verification.RoleVerifier
		user.Approved = true
		if _, err := o.users.UpsertUser(ctx, user); err != nil {
			return fmt.Errorf("auth: bootstrap %s: %w", id, err)
		}
	}
	return nil
}
