package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/dashboard-roles/internal/api/metrics"
	"github.com/99minutos/dashboard-roles/internal/core/domain"
	"github.com/99minutos/dashboard-roles/internal/core/ports"
)

// Options tunes RoleService behaviour.
type Options struct {
	// ClearCacheOnLogout removes the cached role on logout. When false the
	// cache survives so the fallback still works on the next login.
	ClearCacheOnLogout bool
}

// subjectLockStripes bounds the number of locks used to order cache writes.
const subjectLockStripes = 64

// session is the in-memory role state of one subject. gen increases on every
// login or selection so that a slower resolution cannot overwrite newer state.
type session struct {
	status domain.RoleStatus
	gen    uint64
}

// RoleService resolves, selects and clears the dashboard role of each subject.
type RoleService struct {
	profiles ports.ProfileClient
	cache    ports.RoleCache
	syncer   ports.RoleSyncer
	opts     Options
	log      zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session

	// writeLocks order cache writes of one subject with the generation checks
	// that guard them. Always taken before mu.
	writeLocks [subjectLockStripes]sync.Mutex
}

func NewRoleService(
	profiles ports.ProfileClient,
	cache ports.RoleCache,
	syncer ports.RoleSyncer,
	opts Options,
	log zerolog.Logger,
) *RoleService {
	return &RoleService{
		profiles: profiles,
		cache:    cache,
		syncer:   syncer,
		opts:     opts,
		log:      log,
		sessions: make(map[string]*session),
	}
}

// Resolve runs on authentication success. The remote profile is
// authoritative; a 404 falls back to the cached role, any other failure
// clears the role state and is returned.
func (s *RoleService) Resolve(ctx context.Context, id domain.Identity) (domain.RoleStatus, error) {
	if id.Subject == "" {
		return domain.InitialStatus(), domain.ErrUnauthenticated
	}

	sess, gen := s.begin(id.Subject)

	profile, err := s.profiles.GetProfile(ctx, id.Token)
	switch {
	case err == nil:
		if profile == nil {
			profile = &domain.Profile{}
		}
		role, perr := domain.ParseRole(string(profile.Role))
		if perr != nil {
			return s.fail(id.Subject, sess, gen, fmt.Errorf("%w: profile role %q: %w", domain.ErrProfileUnavailable, profile.Role, perr))
		}
		return s.applyRemote(ctx, id.Subject, sess, gen, role)

	case errors.Is(err, domain.ErrProfileNotFound):
		role, cerr := s.cache.Get(ctx, id.Subject)
		if cerr != nil {
			s.log.Warn().Err(cerr).Str("subject", id.Subject).Msg("cached role unreadable, treating as empty")
			role = domain.RoleUnset
		}
		outcome := "fallback"
		if !role.IsSet() {
			outcome = "empty"
		}
		s.log.Debug().Str("subject", id.Subject).Str("role", role.String()).Msg("no remote profile, using cached role")
		return s.finish(id.Subject, sess, gen, domain.ResolvedStatus(role), outcome)

	default:
		if !errors.Is(err, domain.ErrProfileUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrProfileUnavailable, err)
		}
		return s.fail(id.Subject, sess, gen, err)
	}
}

// SelectRole records a user's explicit choice. The local cache and in-memory
// state are updated first; the remote write is handed to the syncer and its
// outcome never reaches the caller.
func (s *RoleService) SelectRole(ctx context.Context, id domain.Identity, role domain.Role) (domain.RoleStatus, error) {
	if id.Subject == "" {
		return domain.InitialStatus(), domain.ErrUnauthenticated
	}
	if !role.IsSet() {
		return s.Status(id.Subject), fmt.Errorf("select role %q: %w", role, domain.ErrInvalidRole)
	}

	wl := s.writeLock(id.Subject)
	wl.Lock()
	if err := s.cache.Set(ctx, id.Subject, role); err != nil {
		s.log.Warn().Err(err).Str("subject", id.Subject).Msg("failed to cache selected role")
	}

	status := domain.ResolvedStatus(role)
	s.mu.Lock()
	sess := s.sessions[id.Subject]
	if sess == nil {
		sess = &session{}
		s.sessions[id.Subject] = sess
	}
	sess.gen++
	sess.status = status
	s.mu.Unlock()
	wl.Unlock()

	metrics.RoleSelectionsTotal.WithLabelValues(string(role)).Inc()
	s.log.Info().Str("subject", id.Subject).Str("role", role.String()).Msg("role selected")

	s.syncer.Sync(ctx, domain.RoleWrite{Subject: id.Subject, Token: id.Token, Role: role})
	return status, nil
}

// Status returns the current role status of subject.
func (s *RoleService) Status(subject string) domain.RoleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[subject]; ok {
		return sess.status
	}
	return domain.InitialStatus()
}

// Logout clears the in-memory role state of subject and discards any
// resolution still in flight.
func (s *RoleService) Logout(ctx context.Context, subject string) error {
	wl := s.writeLock(subject)
	wl.Lock()
	defer wl.Unlock()

	s.mu.Lock()
	delete(s.sessions, subject)
	s.mu.Unlock()

	if s.opts.ClearCacheOnLogout {
		if err := s.cache.Remove(ctx, subject); err != nil {
			return fmt.Errorf("logout: remove cached role: %w", err)
		}
	}
	s.log.Info().Str("subject", subject).Msg("session cleared")
	return nil
}

// EffectiveRole returns the role navigation should render for: the session's
// role when known, otherwise the role inferred from path.
func (s *RoleService) EffectiveRole(subject, path string) (domain.Role, domain.RoleSource) {
	if r := s.Status(subject).Role; r.IsSet() {
		return r, domain.SourceSession
	}
	if r := domain.InferRoleFromPath(path); r.IsSet() {
		return r, domain.SourcePath
	}
	return domain.RoleUnset, domain.SourceNone
}

func (s *RoleService) begin(subject string) (*session, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[subject]
	if sess == nil {
		sess = &session{}
		s.sessions[subject] = sess
	}
	sess.gen++
	sess.status = domain.LoadingStatus()
	return sess, sess.gen
}

// applyRemote writes a remotely resolved role through to the cache and
// applies it, unless the resolution went stale while the profile was fetched.
func (s *RoleService) applyRemote(ctx context.Context, subject string, sess *session, gen uint64, role domain.Role) (domain.RoleStatus, error) {
	wl := s.writeLock(subject)
	wl.Lock()
	defer wl.Unlock()

	if role.IsSet() && s.current(subject, sess, gen) {
		if err := s.cache.Set(ctx, subject, role); err != nil {
			s.log.Warn().Err(err).Str("subject", subject).Msg("failed to refresh cached role")
		}
	}
	return s.finish(subject, sess, gen, domain.ResolvedStatus(role), "remote")
}

func (s *RoleService) current(subject string, sess *session, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[subject] == sess && sess.gen == gen
}

func (s *RoleService) writeLock(subject string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subject))
	return &s.writeLocks[h.Sum32()%subjectLockStripes]
}

// finish applies status unless a logout, login or selection happened since
// begin. A stale resolution returns the current status instead.
func (s *RoleService) finish(subject string, sess *session, gen uint64, status domain.RoleStatus, outcome string) (domain.RoleStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[subject] != sess || sess.gen != gen {
		metrics.RoleResolutionsTotal.WithLabelValues("stale").Inc()
		s.log.Debug().Str("subject", subject).Msg("discarding stale role resolution")
		if cur, ok := s.sessions[subject]; ok {
			return cur.status, nil
		}
		return domain.InitialStatus(), nil
	}
	sess.status = status
	metrics.RoleResolutionsTotal.WithLabelValues(outcome).Inc()
	return status, nil
}

func (s *RoleService) fail(subject string, sess *session, gen uint64, err error) (domain.RoleStatus, error) {
	s.log.Error().Err(err).Str("subject", subject).Msg("role resolution failed")
	status, _ := s.finish(subject, sess, gen, domain.InitialStatus(), "error")
	return status, fmt.Errorf("resolve role: %w", err)
}
