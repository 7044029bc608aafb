// Package memory holds an in-process role cache for local development.
// Roles are lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/99minutos/dashboard-roles/internal/core/domain"
)

type RoleCache struct {
	mu    sync.RWMutex
	roles map[string]domain.Role
}

func NewRoleCache() *RoleCache {
	return &RoleCache{roles: make(map[string]domain.Role)}
}

func (c *RoleCache) Get(_ context.Context, subject string) (domain.Role, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roles[subject], nil
}

func (c *RoleCache) Set(_ context.Context, subject string, role domain.Role) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roles[subject] = role
	return nil
}

func (c *RoleCache) Remove(_ context.Context, subject string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.roles, subject)
	return nil
}

func (c *RoleCache) Ping(context.Context) error { return nil }
