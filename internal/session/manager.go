package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/kirinyoku/tix-storefront/internal/domain"
	"github.com/kirinyoku/tix-storefront/internal/gateway"
	"github.com/kirinyoku/tix-storefront/internal/repository"
)

type Authenticator interface {
	Login(ctx context.Context, in gateway.Credentials) (domain.AuthResponse, error)
	Signup(ctx context.Context, in gateway.SignupRequest) (domain.AuthResponse, error)
}

// Manager owns the signed-in state of every browser profile. The store is
// the source of truth; the in-memory map is a per-process mirror kept in
// step by Watch.
type Manager struct {
	store  repository.Store
	auth   Authenticator
	admins AdminVerifier
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// New builds a Manager. A nil admins disables admin sign-in.
func New(store repository.Store, auth Authenticator, admins AdminVerifier, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		store:    store,
		auth:     auth,
		logger:   logger,
		sessions: make(map[string]domain.Session),
	}

	// keep a typed nil pointer from turning into a non-nil interface
	if v, ok := admins.(*StaticAdminVerifier); !ok || v != nil {
		m.admins = admins
	}

	return m
}

// Login signs the profile in against the ticketing API.
//
// Returns:
//   - domain.Session: the stored token and user.
//   - error: domain.ErrValidation when email or password is blank, or the
//     gateway error as returned.
func (m *Manager) Login(ctx context.Context, in gateway.Credentials) (domain.Session, error) {
	const op = "session.Manager.Login"

	profileID, err := mustProfile(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return domain.Session{}, fmt.Errorf("%s: email and password are required: %w", op, domain.ErrValidation)
	}

	resp, err := m.auth.Login(ctx, in)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	return m.establish(ctx, op, profileID, resp)
}

// Signup registers a customer or organizer and signs the profile in.
func (m *Manager) Signup(ctx context.Context, in gateway.SignupRequest) (domain.Session, error) {
	const op = "session.Manager.Signup"

	profileID, err := mustProfile(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return domain.Session{}, fmt.Errorf("%s: name, email and password are required: %w", op, domain.ErrValidation)
	}

	if in.Role != domain.RoleCustomer && in.Role != domain.RoleOrganizer {
		return domain.Session{}, fmt.Errorf("%s: role must be CUSTOMER or ORGANIZER: %w", op, domain.ErrValidation)
	}

	resp, err := m.auth.Signup(ctx, in)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	return m.establish(ctx, op, profileID, resp)
}

// establish writes the token first and the user second, then mirrors both.
func (m *Manager) establish(ctx context.Context, op, profileID string, resp domain.AuthResponse) (domain.Session, error) {
	if err := repository.SetJSON(ctx, m.store, repository.ProfileKey(profileID, repository.KeyAuthToken), resp.Token); err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := repository.SetJSON(ctx, m.store, repository.ProfileKey(profileID, repository.KeyAuthUser), resp.User); err != nil {
		return domain.Session{}, fmt.Errorf("%s: %w", op, err)
	}

	s := domain.Session{Token: resp.Token, User: resp.User}
	m.remember(profileID, s)

	return s, nil
}

// Current returns the profile's session, restoring it from the store when
// this process has not seen it yet.
func (m *Manager) Current(ctx context.Context) (domain.Session, bool, error) {
	const op = "session.Manager.Current"

	profileID, err := mustProfile(ctx)
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("%s: %w", op, err)
	}

	m.mu.RLock()
	s, ok := m.sessions[profileID]
	m.mu.RUnlock()
	if ok {
		return s, true, nil
	}

	s, ok, err = m.restore(ctx, profileID)
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("%s: %w", op, err)
	}

	return s, ok, nil
}

func (m *Manager) restore(ctx context.Context, profileID string) (domain.Session, bool, error) {
	user, ok, err := repository.GetJSON[domain.User](ctx, m.store, repository.ProfileKey(profileID, repository.KeyAuthUser))
	if err != nil {
		return domain.Session{}, false, err
	}

	token, err := repository.GetJSONOr(ctx, m.store, repository.ProfileKey(profileID, repository.KeyAuthToken), "")
	if err != nil {
		return domain.Session{}, false, err
	}

	if !ok || token == "" {
		m.forget(profileID)
		return domain.Session{}, false, nil
	}

	s := domain.Session{Token: token, User: user}
	m.remember(profileID, s)

	return s, true, nil
}

func (m *Manager) Logout(ctx context.Context) error {
	const op = "session.Manager.Logout"

	profileID, err := mustProfile(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := m.store.Del(ctx,
		repository.ProfileKey(profileID, repository.KeyAuthToken),
		repository.ProfileKey(profileID, repository.KeyAuthUser),
	); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.forget(profileID)
	return nil
}

// Watch mirrors auth writes made by other processes until ctx is done.
func (m *Manager) Watch(ctx context.Context, feed repository.ChangeFeed) error {
	const op = "session.Manager.Watch"

	err := feed.Subscribe(ctx, func(ctx context.Context, c repository.Change) {
		m.apply(ctx, c)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (m *Manager) apply(ctx context.Context, c repository.Change) {
	profileID, name, ok := repository.ParseProfileKey(c.Key)
	if !ok || (name != repository.KeyAuthUser && name != repository.KeyAuthToken) {
		return
	}

	if c.Deleted {
		m.forget(profileID)
		return
	}

	if _, _, err := m.restore(ctx, profileID); err != nil {
		m.logger.Warn("session: restore after change failed",
			slog.String("profile", profileID),
			slog.String("error", err.Error()),
		)
		m.forget(profileID)
	}
}

func (m *Manager) AdminLogin(ctx context.Context, email, password string) (domain.AdminAuth, error) {
	const op = "session.Manager.AdminLogin"

	profileID, err := mustProfile(ctx)
	if err != nil {
		return domain.AdminAuth{}, fmt.Errorf("%s: %w", op, err)
	}

	if m.admins == nil {
		return domain.AdminAuth{}, fmt.Errorf("%s: %w", op, ErrAdminDisabled)
	}

	if err := m.admins.Verify(ctx, email, password); err != nil {
		return domain.AdminAuth{}, fmt.Errorf("%s: %w", op, err)
	}

	a := domain.AdminAuth{Email: strings.TrimSpace(email)}
	if err := repository.SetJSON(ctx, m.store, repository.ProfileKey(profileID, repository.KeyAdminAuth), a); err != nil {
		return domain.AdminAuth{}, fmt.Errorf("%s: %w", op, err)
	}

	return a, nil
}

func (m *Manager) AdminLogout(ctx context.Context) error {
	const op = "session.Manager.AdminLogout"

	profileID, err := mustProfile(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := m.store.Del(ctx, repository.ProfileKey(profileID, repository.KeyAdminAuth)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Identity collects what the profile is signed in as. Anonymous requests
// get an empty Identity and no error.
func (m *Manager) Identity(ctx context.Context) (domain.Identity, error) {
	const op = "session.Manager.Identity"

	if _, ok := ProfileFrom(ctx); !ok {
		return domain.Identity{}, nil
	}

	var id domain.Identity

	s, ok, err := m.Current(ctx)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%s: %w", op, err)
	}
	if ok {
		u := s.User
		id.User = &u
	}

	profileID, _ := ProfileFrom(ctx)
	a, ok, err := repository.GetJSON[domain.AdminAuth](ctx, m.store, repository.ProfileKey(profileID, repository.KeyAdminAuth))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%s: %w", op, err)
	}
	if ok {
		id.Admin = &a
	}

	return id, nil
}

// Authorize is the route guard. It checks role tags only.
func (m *Manager) Authorize(ctx context.Context, required domain.Role) (domain.Identity, error) {
	id, err := m.Identity(ctx)
	if err != nil {
		return domain.Identity{}, err
	}

	if err := domain.Authorize(id, required); err != nil {
		return domain.Identity{}, err
	}

	return id, nil
}

func (m *Manager) remember(profileID string, s domain.Session) {
	m.mu.Lock()
	m.sessions[profileID] = s
	m.mu.Unlock()
}

func (m *Manager) forget(profileID string) {
	m.mu.Lock()
	delete(m.sessions, profileID)
	m.mu.Unlock()
}
