package ports

import (
	"context"

	"github.com/99minutos/dashboard-roles/internal/core/domain"
)

// RoleSyncer pushes a locally selected role to the profile API. It is
// best-effort: failures are logged by the implementation, never returned.
type RoleSyncer interface {
	Sync(ctx context.Context, w domain.RoleWrite)
}

// RoleService defines the role resolution use cases.
type RoleService interface {
	Resolve(ctx context.Context, id domain.Identity) (domain.RoleStatus, error)
	SelectRole(ctx context.Context, id domain.Identity, role domain.Role) (domain.RoleStatus, error)
	Status(subject string) domain.RoleStatus
	Logout(ctx context.Context, subject string) error
	EffectiveRole(subject, path string) (domain.Role, domain.RoleSource)
}
