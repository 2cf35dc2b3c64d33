package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/fitpulse/companion/internal/domain"
	"github.com/fitpulse/companion/internal/session"
	"github.com/fitpulse/companion/pkg/logger"
)

var (
	// ErrNotAuthenticated means no stored session exists; the caller
	// should run the login flow.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionExpired means the refresh token itself has lapsed; the
	// stored session was removed and the user must log in again.
	ErrSessionExpired = errors.New("session expired")
)

// API is the slice of the auth API the manager calls.
type API interface {
	Login(ctx context.Context, email, password string) (*domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Manager drives the session lifecycle over the store: it hands out a
// usable session, refreshing the access token when it enters the expiry
// buffer and logging the user out when the refresh token has lapsed.
type Manager struct {
	store *session.Store
	api   API
}

// NewManager creates a manager over the given store and auth API.
func NewManager(store *session.Store, api API) *Manager {
	return &Manager{store: store, api: api}
}

// Login authenticates and persists the issued session.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	sess, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.store.Set(sess)
	return sess, nil
}

// Logout discards the stored session everywhere.
func (m *Manager) Logout() {
	m.store.Remove()
}

// Ensure returns a session whose access token is outside the expiry
// buffer, refreshing it first when needed.
func (m *Manager) Ensure(ctx context.Context) (*domain.Session, error) {
	sess := m.store.Get()
	if sess == nil {
		return nil, ErrNotAuthenticated
	}

	if session.IsRefreshTokenExpired(sess.RefreshToken) {
		logger.Info("auth: refresh token expired, logging out")
		m.store.Remove()
		return nil, ErrSessionExpired
	}

	if !session.IsAccessTokenExpired(sess.AccessToken) {
		return sess, nil
	}

	access, err := m.api.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}
	sess.AccessToken = access
	m.store.Set(sess)
	return sess, nil
}
