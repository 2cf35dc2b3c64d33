package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitpulse/companion/internal/domain"
	"github.com/fitpulse/companion/internal/session"
)

type stubAPI struct {
	refreshCalls int
	refreshToken string
	refreshErr   error
	loginSess    *domain.Session
}

func (s *stubAPI) Login(context.Context, string, string) (*domain.Session, error) {
	return s.loginSess, nil
}

func (s *stubAPI) Refresh(context.Context, string) (string, error) {
	s.refreshCalls++
	return s.refreshToken, s.refreshErr
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	dir := t.TempDir()
	return session.NewDefault(dir, filepath.Join(dir, "cookies.txt"))
}

func TestEnsureReturnsFreshSessionAsIs(t *testing.T) {
	store := newTestStore(t)
	store.Set(&domain.Session{
		UserID:       42,
		Role:         domain.RoleNormalUser,
		AccessToken:  signedToken(t, time.Now().Add(time.Hour)),
		RefreshToken: signedToken(t, time.Now().Add(48*time.Hour)),
	})

	api := &stubAPI{}
	sess, err := NewManager(store, api).Ensure(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, 0, api.refreshCalls)
}

func TestEnsureRefreshesExpiredAccessToken(t *testing.T) {
	store := newTestStore(t)
	store.Set(&domain.Session{
		UserID:       42,
		Role:         domain.RoleNormalUser,
		AccessToken:  signedToken(t, time.Now().Add(-time.Minute)),
		RefreshToken: signedToken(t, time.Now().Add(48*time.Hour)),
	})

	fresh := signedToken(t, time.Now().Add(time.Hour))
	api := &stubAPI{refreshToken: fresh}
	sess, err := NewManager(store, api).Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, api.refreshCalls)
	assert.Equal(t, fresh, sess.AccessToken)

	// The refreshed token is persisted, not just returned.
	stored := store.Get()
	require.NotNil(t, stored)
	assert.Equal(t, fresh, stored.AccessToken)
}

func TestEnsureLogsOutWhenRefreshTokenExpired(t *testing.T) {
	store := newTestStore(t)
	store.Set(&domain.Session{
		UserID:       42,
		Role:         domain.RoleNormalUser,
		AccessToken:  signedToken(t, time.Now().Add(-time.Hour)),
		RefreshToken: signedToken(t, time.Now().Add(-time.Minute)),
	})

	api := &stubAPI{}
	_, err := NewManager(store, api).Ensure(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 0, api.refreshCalls)
	assert.Nil(t, store.Get())
}

func TestEnsureWithoutSession(t *testing.T) {
	store := newTestStore(t)
	_, err := NewManager(store, &stubAPI{}).Ensure(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestEnsureSurfacesRefreshFailure(t *testing.T) {
	store := newTestStore(t)
	old := signedToken(t, time.Now().Add(-time.Minute))
	store.Set(&domain.Session{
		UserID:       42,
		Role:         domain.RoleNormalUser,
		AccessToken:  old,
		RefreshToken: signedToken(t, time.Now().Add(48*time.Hour)),
	})

	api := &stubAPI{refreshErr: errors.New("network down")}
	_, err := NewManager(store, api).Ensure(context.Background())
	require.Error(t, err)

	// The stored session is untouched; the next Ensure retries.
	stored := store.Get()
	require.NotNil(t, stored)
	assert.Equal(t, old, stored.AccessToken)
}

func TestLoginPersistsSession(t *testing.T) {
	store := newTestStore(t)
	want := &domain.Session{
		UserID:       7,
		Role:         domain.RoleNormalUser,
		AccessToken:  signedToken(t, time.Now().Add(time.Hour)),
		RefreshToken: signedToken(t, time.Now().Add(48*time.Hour)),
	}

	mgr := NewManager(store, &stubAPI{loginSess: want})
	sess, err := mgr.Login(context.Background(), "user@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, *want, *sess)
	require.NotNil(t, store.Get())

	mgr.Logout()
	assert.Nil(t, store.Get())
}
