package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fitpulse/companion/internal/domain"
)

// CookieBackend is the middle fallback tier. It persists the session as a
// Set-Cookie style line in a cookie file, using the same name as the file
// backend's storage key: value percent-encoded JSON, Path=/, a Max-Age
// equal to the refresh-token lifetime, SameSite=Lax.
type CookieBackend struct {
	path string
}

// NewCookieBackend creates a cookie backend persisted at path.
func NewCookieBackend(path string) *CookieBackend {
	return &CookieBackend{path: path}
}

func (c *CookieBackend) Load() (*domain.Session, error) {
	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("open cookie file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cookie, err := http.ParseSetCookie(line)
		if err != nil || cookie.Name != StorageKey {
			continue
		}
		if !cookie.Expires.IsZero() && !cookie.Expires.After(time.Now()) {
			return nil, ErrNoSession
		}
		raw, err := url.QueryUnescape(cookie.Value)
		if err != nil {
			return nil, fmt.Errorf("decode cookie value: %w", err)
		}
		var sess domain.Session
		if err := json.Unmarshal([]byte(raw), &sess); err != nil {
			return nil, fmt.Errorf("decode cookie session: %w", err)
		}
		return &sess, nil
	}
	return nil, ErrNoSession
}

func (c *CookieBackend) Save(s *domain.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	cookie := &http.Cookie{
		Name:     StorageKey,
		Value:    url.QueryEscape(string(data)),
		Path:     "/",
		MaxAge:   int(RefreshTokenLifetime.Seconds()),
		Expires:  time.Now().Add(RefreshTokenLifetime).UTC(),
		SameSite: http.SameSiteLaxMode,
	}
	return c.write(cookie)
}

// Clear expires the cookie in place rather than deleting the file, the
// same way a browser removes a cookie.
func (c *CookieBackend) Clear() error {
	cookie := &http.Cookie{
		Name:     StorageKey,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	}
	return c.write(cookie)
}

func (c *CookieBackend) write(cookie *http.Cookie) error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create cookie dir: %w", err)
		}
	}
	if err := os.WriteFile(c.path, []byte(cookie.String()+"\n"), 0o600); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	return nil
}
