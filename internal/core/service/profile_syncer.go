package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/99minutos/dashboard-roles/internal/api/metrics"
	"github.com/99minutos/dashboard-roles/internal/core/domain"
	"github.com/99minutos/dashboard-roles/internal/core/ports"
)

// ProfileSyncer writes selected roles to the profile API in the caller's
// goroutine. A 404 means the endpoint is not deployed yet and is ignored.
type ProfileSyncer struct {
	profiles ports.ProfileClient
	log      zerolog.Logger
}

func NewProfileSyncer(profiles ports.ProfileClient, log zerolog.Logger) *ProfileSyncer {
	return &ProfileSyncer{profiles: profiles, log: log}
}

// Sync performs a single best-effort PUT; there are no retries.
func (p *ProfileSyncer) Sync(ctx context.Context, w domain.RoleWrite) {
	_, err := p.profiles.UpdateRole(ctx, w.Token, w.Role)
	switch {
	case err == nil:
		metrics.RoleWritesTotal.WithLabelValues("ok").Inc()
		p.log.Debug().Str("subject", w.Subject).Str("role", w.Role.String()).Msg("role synced to profile")
	case errors.Is(err, domain.ErrProfileNotFound):
		metrics.RoleWritesTotal.WithLabelValues("not_found").Inc()
		p.log.Debug().Str("subject", w.Subject).Msg("profile endpoint not available, keeping local role")
	default:
		metrics.RoleWritesTotal.WithLabelValues("error").Inc()
		p.log.Error().Err(err).Str("subject", w.Subject).Str("role", w.Role.String()).Msg("role sync failed")
	}
}
