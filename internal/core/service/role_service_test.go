package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/99minutos/dashboard-roles/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubProfiles struct {
	getFn    func(ctx context.Context, token string) (*domain.Profile, error)
	updateFn func(ctx context.Context, token string, role domain.Role) (*domain.Profile, error)
}

func (p *stubProfiles) GetProfile(ctx context.Context, token string) (*domain.Profile, error) {
	return p.getFn(ctx, token)
}

func (p *stubProfiles) UpdateRole(ctx context.Context, token string, role domain.Role) (*domain.Profile, error) {
	return p.updateFn(ctx, token, role)
}

type stubCache struct {
	roles    map[string]domain.Role
	getErr   error
	setErr   error
	getCalls int
	removed  []string
}

func newStubCache() *stubCache {
	return &stubCache{roles: make(map[string]domain.Role)}
}

func (c *stubCache) Get(_ context.Context, subject string) (domain.Role, error) {
	c.getCalls++
	if c.getErr != nil {
		return domain.RoleUnset, c.getErr
	}
	return c.roles[subject], nil
}

func (c *stubCache) Set(_ context.Context, subject string, role domain.Role) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.roles[subject] = role
	return nil
}

func (c *stubCache) Remove(_ context.Context, subject string) error {
	delete(c.roles, subject)
	c.removed = append(c.removed, subject)
	return nil
}

func (c *stubCache) Ping(context.Context) error { return nil }

type recordingSyncer struct {
	writes []domain.RoleWrite
}

func (r *recordingSyncer) Sync(_ context.Context, w domain.RoleWrite) {
	r.writes = append(r.writes, w)
}

func notFound(context.Context, string) (*domain.Profile, error) {
	return nil, domain.ErrProfileNotFound
}

var alice = domain.Identity{Subject: "auth0|alice", Email: "alice@example.com", Token: "tok-alice"}

func newRoleSvc(p *stubProfiles, c *stubCache, s *recordingSyncer, opts Options) *RoleService {
	return NewRoleService(p, c, s, opts, zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Resolve
// ---------------------------------------------------------------------------

func TestRoleService_Resolve_RemoteRole(t *testing.T) {
	cache := newStubCache()
	profiles := &stubProfiles{
		getFn: func(_ context.Context, token string) (*domain.Profile, error) {
			if token != "tok-alice" {
				t.Fatalf("unexpected token: %s", token)
			}
			return &domain.Profile{Subject: alice.Subject, Role: domain.RoleCompany}, nil
		},
	}
	svc := newRoleSvc(profiles, cache, &recordingSyncer{}, Options{})

	status, err := svc.Resolve(context.Background(), alice)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if status.Role != domain.RoleCompany || status.State != domain.StateResolved || status.Loading {
		t.Fatalf("unexpected status: %+v", status)
	}
	if cache.getCalls != 0 {
		t.Errorf("local cache consulted %d times, want 0", cache.getCalls)
	}
	if cache.roles[alice.Subject] != domain.RoleCompany {
		t.Errorf("expected cache refreshed to company, got %q", cache.roles[alice.Subject])
	}
	if got := svc.Status(alice.Subject); got != status {
		t.Errorf("Status() = %+v, want %+v", got, status)
	}
}

func TestRoleService_Resolve_NotFoundUsesCachedRole(t *testing.T) {
	cache := newStubCache()
	cache.roles[alice.Subject] = domain.RoleArtist
	svc := newRoleSvc(&stubProfiles{getFn: notFound}, cache, &recordingSyncer{}, Options{})

	status, err := svc.Resolve(context.Background(), alice)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if status.Role != domain.RoleArtist || status.State != domain.StateResolved {
		t.Fatalf("expected resolved artist, got %+v", status)
	}
}

func TestRoleService_Resolve_NotFoundEmptyCache(t *testing.T) {
	svc := newRoleSvc(&stubProfiles{getFn: notFound}, newStubCache(), &recordingSyncer{}, Options{})

	status, err := svc.Resolve(context.Background(), alice)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if status.Role != domain.RoleUnset {
		t.Fatalf("expected unset role, got %q", status.Role)
	}
	if status.Loading {
		t.Errorf("expected loading flag cleared")
	}
}

func TestRoleService_Resolve_CacheErrorTreatedAsMiss(t *testing.T) {
	cache := newStubCache()
	cache.getErr = errors.New("redis down")
	svc := newRoleSvc(&stubProfiles{getFn: notFound}, cache, &recordingSyncer{}, Options{})

	status, err := svc.Resolve(context.Background(), alice)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if status.Role != domain.RoleUnset || status.State != domain.StateResolved {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestRoleService_Resolve_RemoteFailureClearsState(t *testing.T) {
	cache := newStubCache()
	cache.roles[alice.Subject] = domain.RoleArtist
	profiles := &stubProfiles{
		getFn: func(context.Context, string) (*domain.Profile, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := newRoleSvc(profiles, cache, &recordingSyncer{}, Options{})

	// A previous selection must be cleared by the failed login.
	if _, err := svc.SelectRole(context.Background(), alice, domain.RoleArtist); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	status, err := svc.Resolve(context.Background(), alice)
	if !errors.Is(err, domain.ErrProfileUnavailable) {
		t.Fatalf("expected ErrProfileUnavailable, got %v", err)
	}
	if status != domain.InitialStatus() {
		t.Fatalf("expected initial status, got %+v", status)
	}
	if svc.Status(alice.Subject) != domain.InitialStatus() {
		t.Errorf("role state not cleared")
	}
	if cache.getCalls != 0 {
		t.Errorf("cache must not be consulted on non-404 failures")
	}
}

func TestRoleService_Resolve_InvalidRemoteRole(t *testing.T) {
	profiles := &stubProfiles{
		getFn: func(context.Context, string) (*domain.Profile, error) {
			return &domain.Profile{Role: "admin"}, nil
		},
	}
	svc := newRoleSvc(profiles, newStubCache(), &recordingSyncer{}, Options{})

	status, err := svc.Resolve(context.Background(), alice)
	if !errors.Is(err, domain.ErrProfileUnavailable) || !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected wrapped ErrInvalidRole, got %v", err)
	}
	if status.Role != domain.RoleUnset || status.State != domain.StateUnresolved {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestRoleService_Resolve_MissingSubject(t *testing.T) {
	svc := newRoleSvc(&stubProfiles{getFn: notFound}, newStubCache(), &recordingSyncer{}, Options{})

	if _, err := svc.Resolve(context.Background(), domain.Identity{}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRoleService_Resolve_LoadingWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	profiles := &stubProfiles{
		getFn: func(context.Context, string) (*domain.Profile, error) {
			close(entered)
			<-release
			return &domain.Profile{Role: domain.RoleArtist}, nil
		},
	}
	svc := newRoleSvc(profiles, newStubCache(), &recordingSyncer{}, Options{})

	done := make(chan domain.RoleStatus)
	go func() {
		status, _ := svc.Resolve(context.Background(), alice)
		done <- status
	}()

	<-entered
	if got := svc.Status(alice.Subject); !got.Loading || got.State != domain.StateLoading {
		t.Fatalf("expected loading status while in flight, got %+v", got)
	}
	close(release)

	if status := <-done; status.Role != domain.RoleArtist {
		t.Fatalf("expected artist, got %+v", status)
	}
}

func TestRoleService_Resolve_StaleAfterLogout(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	profiles := &stubProfiles{
		getFn: func(context.Context, string) (*domain.Profile, error) {
			close(entered)
			<-release
			return &domain.Profile{Role: domain.RoleCompany}, nil
		},
	}
	svc := newRoleSvc(profiles, newStubCache(), &recordingSyncer{}, Options{})

	done := make(chan domain.RoleStatus)
	go func() {
		status, _ := svc.Resolve(context.Background(), alice)
		done <- status
	}()

	<-entered
	if err := svc.Logout(context.Background(), alice.Subject); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	close(release)

	if status := <-done; status != domain.InitialStatus() {
		t.Fatalf("stale resolution returned %+v", status)
	}
	if got := svc.Status(alice.Subject); got != domain.InitialStatus() {
		t.Fatalf("stale resolution overwrote logout: %+v", got)
	}
}

func TestRoleService_Resolve_StaleDoesNotOverwriteSelectedCache(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	profiles := &stubProfiles{
		getFn: func(context.Context, string) (*domain.Profile, error) {
			close(entered)
			<-release
			return &domain.Profile{Role: domain.RoleArtist}, nil
		},
	}
	cache := newStubCache()
	svc := newRoleSvc(profiles, cache, &recordingSyncer{}, Options{})

	done := make(chan domain.RoleStatus)
	go func() {
		status, _ := svc.Resolve(context.Background(), alice)
		done <- status
	}()

	<-entered
	if _, err := svc.SelectRole(context.Background(), alice, domain.RoleCompany); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	close(release)

	if status := <-done; status.Role != domain.RoleCompany {
		t.Fatalf("stale resolution returned %+v", status)
	}
	if got := svc.Status(alice.Subject).Role; got != domain.RoleCompany {
		t.Fatalf("in-memory role = %q, want company", got)
	}
	if got := cache.roles[alice.Subject]; got != domain.RoleCompany {
		t.Fatalf("cached role = %q, want company", got)
	}
}

func TestRoleService_Resolve_StaleDoesNotRestoreClearedCache(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	profiles := &stubProfiles{
		getFn: func(context.Context, string) (*domain.Profile, error) {
			close(entered)
			<-release
			return &domain.Profile{Role: domain.RoleArtist}, nil
		},
	}
	cache := newStubCache()
	svc := newRoleSvc(profiles, cache, &recordingSyncer{}, Options{ClearCacheOnLogout: true})

	done := make(chan struct{})
	go func() {
		_, _ = svc.Resolve(context.Background(), alice)
		close(done)
	}()

	<-entered
	if err := svc.Logout(context.Background(), alice.Subject); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	close(release)
	<-done

	if got, ok := cache.roles[alice.Subject]; ok {
		t.Fatalf("cached role restored after logout: %q", got)
	}
	if got := svc.Status(alice.Subject); got != domain.InitialStatus() {
		t.Fatalf("stale resolution overwrote logout: %+v", got)
	}
}

// ---------------------------------------------------------------------------
// SelectRole
// ---------------------------------------------------------------------------

func TestRoleService_SelectRole_WritesLocallyThenSyncs(t *testing.T) {
	cache := newStubCache()
	syncer := &recordingSyncer{}
	svc := newRoleSvc(&stubProfiles{getFn: notFound}, cache, syncer, Options{})

	status, err := svc.SelectRole(context.Background(), alice, domain.RoleArtist)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if status.Role != domain.RoleArtist || status.State != domain.StateResolved {
		t.Fatalf("unexpected status: %+v", status)
	}
	if cache.roles[alice.Subject] != domain.RoleArtist {
		t.Errorf("expected cache to hold artist, got %q", cache.roles[alice.Subject])
	}
	if len(syncer.writes) != 1 {
		t.Fatalf("expected 1 sync, got %d", len(syncer.writes))
	}
	w := syncer.writes[0]
	if w.Subject != alice.Subject || w.Token != alice.Token || w.Role != domain.RoleArtist {
		t.Errorf("unexpected write: %+v", w)
	}
}

func TestRoleService_SelectRole_RemoteNotFoundKeepsLocalRole(t *testing.T) {
	cache := newStubCache()
	profiles := &stubProfiles{
		updateFn: func(context.Context, string, domain.Role) (*domain.Profile, error) {
			return nil, domain.ErrProfileNotFound
		},
	}
	syncer := NewProfileSyncer(profiles, zerolog.Nop())
	svc := NewRoleService(profiles, cache, syncer, Options{}, zerolog.Nop())

	status, err := svc.SelectRole(context.Background(), alice, domain.RoleCompany)
	if err != nil {
		t.Fatalf("expected no error surfaced, got: %v", err)
	}
	if status.Role != domain.RoleCompany {
		t.Fatalf("unexpected status: %+v", status)
	}
	if cache.roles[alice.Subject] != domain.RoleCompany {
		t.Errorf("expected cache to hold company, got %q", cache.roles[alice.Subject])
	}
}

func TestRoleService_SelectRole_RemoteFailureNotRolledBack(t *testing.T) {
	cache := newStubCache()
	profiles := &stubProfiles{
		updateFn: func(context.Context, string, domain.Role) (*domain.Profile, error) {
			return nil, domain.ErrProfileUnavailable
		},
	}
	svc := NewRoleService(profiles, cache, NewProfileSyncer(profiles, zerolog.Nop()), Options{}, zerolog.Nop())

	if _, err := svc.SelectRole(context.Background(), alice, domain.RoleArtist); err != nil {
		t.Fatalf("expected no error surfaced, got: %v", err)
	}
	if svc.Status(alice.Subject).Role != domain.RoleArtist {
		t.Errorf("in-memory role rolled back")
	}
	if cache.roles[alice.Subject] != domain.RoleArtist {
		t.Errorf("cached role rolled back")
	}
}

func TestRoleService_SelectRole_CacheFailureStillSelects(t *testing.T) {
	cache := newStubCache()
	cache.setErr = errors.New("disk full")
	syncer := &recordingSyncer{}
	svc := newRoleSvc(&stubProfiles{getFn: notFound}, cache, syncer, Options{})

	status, err := svc.SelectRole(context.Background(), alice, domain.RoleArtist)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if status.Role != domain.RoleArtist {
		t.Fatalf("unexpected status: %+v", status)
	}
	if len(syncer.writes) != 1 {
		t.Errorf("expected remote sync despite cache failure")
	}
}

func TestRoleService_SelectRole_RejectsUnset(t *testing.T) {
	syncer := &recordingSyncer{}
	svc := newRoleSvc(&stubProfiles{getFn: notFound}, newStubCache(), syncer, Options{})

	if _, err := svc.SelectRole(context.Background(), alice, domain.RoleUnset); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.SelectRole(context.Background(), alice, domain.Role("admin")); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if len(syncer.writes) != 0 {
		t.Errorf("invalid selection must not be synced")
	}
}

// ---------------------------------------------------------------------------
// Logout / EffectiveRole
// ---------------------------------------------------------------------------

func TestRoleService_Logout_ResetsState(t *testing.T) {
	cache := newStubCache()
	svc := newRoleSvc(&stubProfiles{getFn: notFound}, cache, &recordingSyncer{}, Options{})

	_, _ = svc.SelectRole(context.Background(), alice, domain.RoleArtist)
	if err := svc.Logout(context.Background(), alice.Subject); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	status := svc.Status(alice.Subject)
	if status.Role != domain.RoleUnset || status.Loading {
		t.Fatalf("expected unset/false after logout, got %+v", status)
	}
	if cache.roles[alice.Subject] != domain.RoleArtist {
		t.Errorf("cache should survive logout by default")
	}
}

func TestRoleService_Logout_ClearsCacheWhenConfigured(t *testing.T) {
	cache := newStubCache()
	svc := newRoleSvc(&stubProfiles{getFn: notFound}, cache, &recordingSyncer{}, Options{ClearCacheOnLogout: true})

	_, _ = svc.SelectRole(context.Background(), alice, domain.RoleCompany)
	if err := svc.Logout(context.Background(), alice.Subject); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, ok := cache.roles[alice.Subject]; ok {
		t.Errorf("expected cached role removed")
	}
}

func TestRoleService_EffectiveRole(t *testing.T) {
	svc := newRoleSvc(&stubProfiles{getFn: notFound}, newStubCache(), &recordingSyncer{}, Options{})

	if r, src := svc.EffectiveRole(alice.Subject, "/artist/jobs"); r != domain.RoleArtist || src != domain.SourcePath {
		t.Errorf("got (%q, %q), want artist from path", r, src)
	}
	if r, src := svc.EffectiveRole(alice.Subject, "/settings"); r != domain.RoleUnset || src != domain.SourceNone {
		t.Errorf("got (%q, %q), want unset", r, src)
	}

	_, _ = svc.SelectRole(context.Background(), alice, domain.RoleCompany)
	if r, src := svc.EffectiveRole(alice.Subject, "/artist/jobs"); r != domain.RoleCompany || src != domain.SourceSession {
		t.Errorf("got (%q, %q), want company from session", r, src)
	}
}
