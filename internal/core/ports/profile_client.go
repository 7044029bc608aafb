package ports

import (
	"context"

	"github.com/99minutos/dashboard-roles/internal/core/domain"
)

// ProfileClient is the remote profile API. Implementations return
// domain.ErrProfileNotFound for a 404 and wrap every other failure with
// domain.ErrProfileUnavailable.
type ProfileClient interface {
	GetProfile(ctx context.Context, token string) (*domain.Profile, error)
	UpdateRole(ctx context.Context, token string, role domain.Role) (*domain.Profile, error)
}
