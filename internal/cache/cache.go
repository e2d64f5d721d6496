// Package cache provides a look-aside cache for user profiles.
package cache

import (
	"context"
	"sync"

	"github.com/mmynk/expenseshare/internal/models"
)

// Profiles caches user records by ID. Implementations report a miss as
// (nil, false, nil); errors are for the cache backend itself.
type Profiles interface {
	GetUser(ctx context.Context, userID string) (*models.User, bool, error)
	SetUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, userID string) error
}

// Nop is a Profiles that never stores anything.
type Nop struct{}

func (Nop) GetUser(context.Context, string) (*models.User, bool, error) { return nil, false, nil }
func (Nop) SetUser(context.Context, *models.User) error { return nil }
func (Nop) DeleteUser(context.Context, string) error { return nil }

// Memory is an in-process Profiles, used in tests and single-node setups.
type Memory struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]models.User)}
}

func (m *Memory) GetUser(_ context.Context, userID string) (*models.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, false, nil
	}
	return &u, true, nil
}

func (m *Memory) SetUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
	return nil
}

// Len returns the number of cached profiles.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}
