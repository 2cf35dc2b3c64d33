// Package session stores the authenticated platform session across restarts
// and answers the token-expiry questions the refresh flow asks.
package session

import (
	"errors"

	"github.com/fitpulse/companion/internal/domain"
)

// ErrNoSession is returned by a backend that holds no usable session.
var ErrNoSession = errors.New("no session")

// Backend is one place a session can live. The store tries backends in a
// fixed order; a failing backend is skipped, never fatal.
type Backend interface {
	Load() (*domain.Session, error)
	Save(s *domain.Session) error
	Clear() error
}
