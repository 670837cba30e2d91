package auth

import (
	"context"
	"sync"
	"time"

	"addressme/verification"
)

// MemoryDirectory keeps users in process for runs without PostgreSQL.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]User
	now   func() time.Time
}

// NewMemoryDirectory seeds the directory with approved users from seed.
func NewMemoryDirectory(seed StaticDirectory) *MemoryDirectory {
	d := &MemoryDirectory{users: make(map[string]User, len(seed)), now: time.Now}
	for id, role := range seed {
		d.users[id] = User{ID: id, Role: role, Approved: true, CreatedAt: d.now().UTC()}
	}
	return d
}

// Role implements verification.RoleLookup.
func (d *MemoryDirectory) Role(_ context.Context, actorID string) (verification.Role, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.users[actorID].EffectiveRole(), nil
}

func (d *MemoryDirectory) GetUser(_ context.Context, id string) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (d *MemoryDirectory) CreateUser(_ context.Context, user User) (User, error) {
	if err := validateUser(user); err != nil {
		return User{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.users[user.ID]; exists {
		return User{}, ErrUserExists
	}
	user.CreatedAt = d.now().UTC()
	d.users[user.ID] = user
	return user, nil
}

func (d *MemoryDirectory) UpsertUser(_ context.Context, user User) (User, error) {
	if err := validateUser(user); err != nil {
		return User{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	} else {
		user.CreatedAt = d.now().UTC()
	}
	d.users[user.ID] = user
	return user, nil
}

func (d *MemoryDirectory) SetApproved(_ context.Context, id string, approved bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.Approved = approved
	d.users[id] = user
	return nil
}
