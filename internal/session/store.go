package session

import (
	"time"

	"github.com/fitpulse/companion/internal/domain"
	"github.com/fitpulse/companion/pkg/logger"
)

const (
	// StorageKey names both the session file and the session cookie, so
	// every tier of the fallback chain reads the same logical record.
	StorageKey = "fitpulse_session"

	// StoragePrefix marks files owned by the companion; the quota cleanup
	// pass only ever touches files under this prefix.
	StoragePrefix = "fitpulse_"

	// RefreshTokenLifetime is the nominal refresh-token lifetime and the
	// Max-Age written on the session cookie.
	RefreshTokenLifetime = 3 * 24 * time.Hour
)

// Store keeps the session in an ordered chain of durable backends plus an
// in-process cache. Reads try the durable backends first and fall back to
// the cache; writes hit the cache first so same-process reads never miss,
// then the durable backends best-effort.
type Store struct {
	mem     *memoryBackend
	durable []Backend
}

// New creates a store over the given durable backends, tried in order.
func New(durable ...Backend) *Store {
	return &Store{mem: newMemoryBackend(), durable: durable}
}

// NewDefault wires the standard chain: session file, then cookie file.
func NewDefault(dataDir, cookieFile string) *Store {
	return New(NewFileBackend(dataDir), NewCookieBackend(cookieFile))
}

// Get returns the first well-formed session found in backend order, or nil
// when no backend holds one. Per-backend failures are logged and skipped.
func (s *Store) Get() *domain.Session {
	for _, b := range append(append([]Backend{}, s.durable...), Backend(s.mem)) {
		sess, err := b.Load()
		if err != nil {
			if err != ErrNoSession {
				logger.Debugf("session: backend load failed: %v", err)
			}
			continue
		}
		if !sess.Valid() {
			continue
		}
		return sess
	}
	return nil
}

// Set writes the session to every tier. Durable failures are logged and
// swallowed; the in-process cache always succeeds, so callers keep
// same-process continuity even under total storage failure.
func (s *Store) Set(sess *domain.Session) {
	_ = s.mem.Save(sess)
	for _, b := range s.durable {
		if err := b.Save(sess); err != nil {
			logger.Warnf("session: backend save failed: %v", err)
		}
	}
}

// Remove clears every tier. Best-effort, never fails.
func (s *Store) Remove() {
	_ = s.mem.Clear()
	for _, b := range s.durable {
		if err := b.Clear(); err != nil {
			logger.Warnf("session: backend clear failed: %v", err)
		}
	}
}
