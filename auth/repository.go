package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"addressme/verification"
)

var (
	// ErrUserNotFound signals that the user does not exist.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrInvalidUser signals a user record that cannot be stored.
	ErrInvalidUser = errors.New("auth: invalid user")
	// ErrUserExists signals a registration for an id that is already taken.
	ErrUserExists = errors.New("auth: user already exists")
)

// Directory resolves actors against the users table.
type Directory struct {
	pool *pgxpool.Pool
}

// NewDirectory creates a PostgreSQL-backed directory.
func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// Role implements verification.RoleLookup. Unknown users and unapproved
// verifiers hold no role.
func (d *Directory) Role(ctx context.Context, actorID string) (verification.Role, error) {
	user, err := d.GetUser(ctx, actorID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return verification.RoleNone, nil
		}
		return verification.RoleNone, err
	}
	return user.EffectiveRole(), nil
}

// GetUser retrieves a user by id.
func (d *Directory) GetUser(ctx context.Context, id string) (User, error) {
	const selectSQL = `
		SELECT id, full_name, role, approved, created_at
		FROM users
		WHERE id = $1
	`

	var (
		user User
		role string
	)
	err := d.pool.QueryRow(ctx, selectSQL, id).Scan(&user.ID, &user.FullName, &role, &user.Approved, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("auth: get user: %w", err)
	}
	user.Role = verification.Role(role)
	return user, nil
}

// CreateUser inserts a new user and fails with ErrUserExists when the id is
// taken.
func (d *Directory) CreateUser(ctx context.Context, user User) (User, error) {
	if err := validateUser(user); err != nil {
		return User{}, err
	}

	const insertSQL = `
		INSERT INTO users (id, full_name, role, approved)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at
	`
	err := d.pool.QueryRow(ctx, insertSQL, user.ID, user.FullName, string(user.Role), user.Approved).Scan(&user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserExists
		}
		return User{}, fmt.Errorf("auth: create user: %w", err)
	}
	return user, nil
}

// UpsertUser inserts the user or replaces its name, role and approval flag.
func (d *Directory) UpsertUser(ctx context.Context, user User) (User, error) {
	user.ID = strings.TrimSpace(user.ID)
	if err := validateUser(user); err != nil {
		return User{}, err
	}

	const upsertSQL = `
		INSERT INTO users (id, full_name, role, approved)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET full_name = EXCLUDED.full_name,
		    role = EXCLUDED.role,
		    approved = EXCLUDED.approved
		RETURNING created_at
	`
	if err := d.pool.QueryRow(ctx, upsertSQL, user.ID, user.FullName, string(user.Role), user.Approved).Scan(&user.CreatedAt); err != nil {
		return User{}, fmt.Errorf("auth: upsert user: %w", err)
	}
	return user, nil
}

// SetApproved flips a user's approval flag.
func (d *Directory) SetApproved(ctx context.Context, id string, approved bool) error {
	tag, err := d.pool.Exec(ctx, `UPDATE users SET approved = $2 WHERE id = $1`, id, approved)
	if err != nil {
		return fmt.Errorf("auth: set approved: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
