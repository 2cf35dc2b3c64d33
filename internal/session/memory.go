package session

import (
	"sync"

	"github.com/fitpulse/companion/internal/domain"
)

// memoryBackend is the process-lifetime cache tier. It is cleared only by
// an explicit Clear; there is no TTL.
type memoryBackend struct {
	mu   sync.RWMutex
	sess *domain.Session
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{}
}

func (m *memoryBackend) Load() (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.sess == nil {
		return nil, ErrNoSession
	}
	cp := *m.sess
	return &cp, nil
}

func (m *memoryBackend) Save(s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	m.sess = &cp
	return nil
}

func (m *memoryBackend) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sess = nil
	return nil
}
