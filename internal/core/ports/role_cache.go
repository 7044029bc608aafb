package ports

import (
	"context"

	"github.com/99minutos/dashboard-roles/internal/core/domain"
)

// RoleCache is the local fallback store holding the last-known role per subject.
type RoleCache interface {
	// Get returns domain.RoleUnset with a nil error on a miss.
	Get(ctx context.Context, subject string) (domain.Role, error)
	Set(ctx context.Context, subject string, role domain.Role) error
	Remove(ctx context.Context, subject string) error
	Ping(ctx context.Context) error
}
