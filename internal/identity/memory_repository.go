package identity

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var defaultRoles = map[string]int{
	RoleAdmin:    1,
	RoleCorredor: 2,
	RoleAuditor:  3,
}

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User // keyed by id
	roles map[string]int
}

// NewMemoryRepository builds an in-memory user store for testing.
func NewMemoryRepository() Repository {
	roles := make(map[string]int, len(defaultRoles))
	for name, id := range defaultRoles {
		roles[name] = id
	}
	return &memoryRepository{users: make(map[string]User), roles: roles}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return errors.New("el usuario ya existe")
		}
	}
	user.Role = r.roleName(user.RoleID)
	r.users[user.ID] = user
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryRepository) List(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (r *memoryRepository) Update(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Name = user.Name
	existing.RoleID = user.RoleID
	existing.Role = r.roleName(user.RoleID)
	existing.Status = user.Status
	existing.Active = user.Active
	existing.MFAEnabled = user.MFAEnabled
	r.users[user.ID] = existing
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryRepository) UpdatePassword(_ context.Context, id string, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = hash
	r.users[id] = user
	return nil
}

func (r *memoryRepository) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	at = at.UTC()
	user.LastLogin = &at
	r.users[id] = user
	return nil
}

func (r *memoryRepository) RoleID(_ context.Context, roleName string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.roles[roleName]
	if !ok {
		return 0, ErrRoleNotFound
	}
	return id, nil
}

func (r *memoryRepository) roleName(roleID int) string {
	for name, id := range r.roles {
		if id == roleID {
			return name
		}
	}
	return ""
}
