package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fitpulse/companion/internal/domain"
	"github.com/fitpulse/companion/pkg/logger"
)

// FileBackend is the primary persistent tier: one JSON file per storage key
// under the companion's data directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a file backend rooted at dir. The directory is
// created lazily on first save.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

func (f *FileBackend) path() string {
	return filepath.Join(f.dir, StorageKey+".json")
}

func (f *FileBackend) Load() (*domain.Session, error) {
	data, err := os.ReadFile(f.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return &sess, nil
}

// Save writes the session file. When the write fails (full disk, revoked
// permissions) it removes stale companion files and retries once.
func (f *FileBackend) Save(s *domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := f.write(data); err != nil {
		logger.Warnf("session: write failed, cleaning stale files and retrying: %v", err)
		f.cleanupStale()
		if err := f.write(data); err != nil {
			return fmt.Errorf("write session file: %w", err)
		}
	}
	return nil
}

func (f *FileBackend) write(data []byte) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path(), data, 0o600)
}

// cleanupStale removes companion-owned files older than the refresh-token
// lifetime. Only files under the recognized prefix are ever touched, and
// never the session file itself.
func (f *FileBackend) cleanupStale() {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-RefreshTokenLifetime)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, StoragePrefix) || name == StorageKey+".json" {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, name)); err == nil {
			logger.Debugf("session: removed stale file %s", name)
		}
	}
}

func (f *FileBackend) Clear() error {
	if err := os.Remove(f.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
