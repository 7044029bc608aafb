package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/dashboard-roles/internal/core/domain"
)

const DefaultKeyPrefix = "dashboard:role:"

// RoleCache stores the last-known role of each subject in Redis.
// Key format: <prefix><subject>, value: the role string.
type RoleCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRoleCache wraps client. A ttl of zero keeps roles without expiry.
func NewRoleCache(client *redis.Client, prefix string, ttl time.Duration) *RoleCache {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RoleCache{client: client, prefix: prefix, ttl: ttl}
}

// Get returns the cached role, or domain.RoleUnset when nothing is stored.
func (c *RoleCache) Get(ctx context.Context, subject string) (domain.Role, error) {
	v, err := c.client.Get(ctx, c.key(subject)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.RoleUnset, nil
	}
	if err != nil {
		return domain.RoleUnset, fmt.Errorf("role cache get: %w", err)
	}
	role, err := domain.ParseRole(v)
	if err != nil {
		return domain.RoleUnset, fmt.Errorf("role cache get %q: %w", v, err)
	}
	return role, nil
}

func (c *RoleCache) Set(ctx context.Context, subject string, role domain.Role) error {
	if err := c.client.Set(ctx, c.key(subject), string(role), c.ttl).Err(); err != nil {
		return fmt.Errorf("role cache set: %w", err)
	}
	return nil
}

func (c *RoleCache) Remove(ctx context.Context, subject string) error {
	if err := c.client.Del(ctx, c.key(subject)).Err(); err != nil {
		return fmt.Errorf("role cache remove: %w", err)
	}
	return nil
}

func (c *RoleCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RoleCache) key(subject string) string {
	return c.prefix + subject
}
