package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirinyoku/tix-storefront/internal/domain"
	"github.com/kirinyoku/tix-storefront/internal/gateway"
	"github.com/kirinyoku/tix-storefront/internal/repository"
	"github.com/kirinyoku/tix-storefront/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	resp   domain.AuthResponse
	err    error
	signup gateway.SignupRequest
}

func (f *fakeAuth) Login(context.Context, gateway.Credentials) (domain.AuthResponse, error) {
	return f.resp, f.err
}

func (f *fakeAuth) Signup(_ context.Context, in gateway.SignupRequest) (domain.AuthResponse, error) {
	f.signup = in
	return f.resp, f.err
}

func organizerAuth() *fakeAuth {
	return &fakeAuth{resp: domain.AuthResponse{
		Token: "tok-1",
		User:  domain.User{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: domain.RoleOrganizer},
	}}
}

func TestLoginStoresTokenAndUser(t *testing.T) {
	store := memory.New()
	m := New(store, organizerAuth(), nil, nil)
	ctx := WithProfile(context.Background(), "p1")

	s, err := m.Login(ctx, gateway.Credentials{Email: " ana@example.com ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", s.Token)

	token, err := NewTokenSource(store).Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	user, ok, err := repository.GetJSON[domain.User](ctx, store, repository.ProfileKey("p1", repository.KeyAuthUser))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.RoleOrganizer, user.Role)
}

func TestLoginValidation(t *testing.T) {
	m := New(memory.New(), organizerAuth(), nil, nil)

	_, err := m.Login(WithProfile(context.Background(), "p1"), gateway.Credentials{Email: "ana@example.com"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = m.Login(context.Background(), gateway.Credentials{Email: "a", Password: "b"})
	assert.ErrorIs(t, err, ErrNoProfile)
}

func TestLoginFailureLeavesNoSession(t *testing.T) {
	store := memory.New()
	auth := &fakeAuth{err: &gateway.APIError{StatusCode: 401, Message: "invalid credentials"}}
	m := New(store, auth, nil, nil)
	ctx := WithProfile(context.Background(), "p1")

	_, err := m.Login(ctx, gateway.Credentials{Email: "a@b.c", Password: "x"})
	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)

	_, ok, err := m.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignupRejectsAdminRole(t *testing.T) {
	m := New(memory.New(), organizerAuth(), nil, nil)

	_, err := m.Signup(WithProfile(context.Background(), "p1"), gateway.SignupRequest{
		Name: "x", Email: "x@y.z", Password: "p", Role: domain.RoleAdmin,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCurrentRestoresFromStore(t *testing.T) {
	store := memory.New()
	ctx := WithProfile(context.Background(), "p1")

	_, err := New(store, organizerAuth(), nil, nil).Login(ctx, gateway.Credentials{Email: "a", Password: "b"})
	require.NoError(t, err)

	// a fresh process only has the store
	s, ok, err := New(store, nil, nil, nil).Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", s.User.ID)
}

func TestLogout(t *testing.T) {
	store := memory.New()
	m := New(store, organizerAuth(), nil, nil)
	ctx := WithProfile(context.Background(), "p1")

	_, err := m.Login(ctx, gateway.Credentials{Email: "a", Password: "b"})
	require.NoError(t, err)
	require.NoError(t, m.Logout(ctx))

	_, ok, err := m.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	token, err := NewTokenSource(store).Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestWatchFollowsOtherWriters(t *testing.T) {
	store := memory.New()
	ctx := WithProfile(context.Background(), "p1")

	watcher := New(store, nil, nil, nil)
	other := New(store, organizerAuth(), nil, nil)

	_, err := other.Login(ctx, gateway.Credentials{Email: "a", Password: "b"})
	require.NoError(t, err)
	_, ok, err := watcher.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	watchCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Watch(watchCtx, store) }()
	require.Eventually(t, func() bool { return store.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	renamed := domain.User{ID: "u1", Name: "Ana Maria", Email: "ana@example.com", Role: domain.RoleOrganizer}
	require.NoError(t, repository.SetJSON(ctx, store, repository.ProfileKey("p1", repository.KeyAuthUser), renamed))

	require.Eventually(t, func() bool {
		watcher.mu.RLock()
		defer watcher.mu.RUnlock()
		return watcher.sessions["p1"].User.Name == "Ana Maria"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, other.Logout(ctx))

	require.Eventually(t, func() bool {
		watcher.mu.RLock()
		defer watcher.mu.RUnlock()
		_, ok := watcher.sessions["p1"]
		return !ok
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestAdminLogin(t *testing.T) {
	store := memory.New()
	ctx := WithProfile(context.Background(), "p1")

	disabled := New(store, nil, NewStaticAdminVerifier("", ""), nil)
	_, err := disabled.AdminLogin(ctx, "root@example.com", "pw")
	assert.ErrorIs(t, err, ErrAdminDisabled)

	m := New(store, nil, NewStaticAdminVerifier("root@example.com", "pw"), nil)

	_, err = m.AdminLogin(ctx, "root@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	a, err := m.AdminLogin(ctx, "Root@Example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Root@Example.com", a.Email)

	id, err := m.Authorize(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	require.NotNil(t, id.Admin)

	require.NoError(t, m.AdminLogout(ctx))
	_, err = m.Authorize(ctx, domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthorizeByRole(t *testing.T) {
	store := memory.New()
	ctx := WithProfile(context.Background(), "p1")
	m := New(store, organizerAuth(), nil, nil)

	_, err := m.Authorize(ctx, domain.RoleAny)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = m.Login(ctx, gateway.Credentials{Email: "a", Password: "b"})
	require.NoError(t, err)

	_, err = m.Authorize(ctx, domain.RoleOrganizer)
	assert.NoError(t, err)

	_, err = m.Authorize(ctx, domain.RoleCustomer)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = m.Authorize(context.Background(), domain.RoleAny)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
