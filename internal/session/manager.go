package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medibridge/patient-portal/pkg/logging"
)

// Manager owns the current session: the auth token and the signed-in
// patient's profile. It is the only component allowed to mutate either.
// Everything that cares about the token (most importantly the realtime
// connection) subscribes to changes instead of reading shared globals.
type Manager struct {
	store  *Store
	logger *logging.Logger

	mu    sync.RWMutex
	token string
	user  Profile

	subsMu sync.Mutex
	subs   []func(token string)
}

// NewManager builds a Manager seeded from the persisted store, so a token
// saved in a previous run survives into this one.
func NewManager(store *Store, logger *logging.Logger) (*Manager, error) {
	if logger == nil {
		logger = logging.Default()
	}
	m := &Manager{store: store, logger: logger}
	if store != nil {
		token, err := store.Token()
		if err != nil {
			return nil, err
		}
		m.token = token
		if image, err := store.ProfileImage(); err == nil {
			m.user.Image = image
		}
	}
	return m, nil
}

// Token returns the current auth token, or "" when signed out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Authenticated reports whether a token is present.
func (m *Manager) Authenticated() bool {
	return m.Token() != ""
}

// User returns the current profile snapshot.
func (m *Manager) User() Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// SetToken stores a freshly issued token and notifies subscribers.
func (m *Manager) SetToken(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	if m.store != nil {
		if err := m.store.SaveToken(token); err != nil {
			return err
		}
	}
	m.notify(token)
	return nil
}

// SetUser updates the profile snapshot and persists the image reference.
func (m *Manager) SetUser(user Profile) {
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	if m.store != nil && user.Image != "" {
		if err := m.store.SaveProfileImage(user.Image); err != nil {
			m.logger.Warn("session: persist profile image failed", "error", err)
		}
	}
}

// Logout clears all session state, durable and in-memory, and notifies
// subscribers with an empty token.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.token = ""
	m.user = Profile{}
	m.mu.Unlock()
	if m.store != nil {
		if err := m.store.Clear(); err != nil {
			return err
		}
	}
	m.notify("")
	return nil
}

// OnChange registers a subscriber invoked on every token change, including
// logout (empty token).
func (m *Manager) OnChange(fn func(token string)) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.subs = append(m.subs, fn)
}

// TokenExpired reports whether the current token carries an exp claim in the
// past. The signature is never verified here; expiry is the server's call,
// this just avoids sending requests with an obviously dead token.
func (m *Manager) TokenExpired() bool {
	token := m.Token()
	if token == "" {
		return false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

func (m *Manager) notify(token string) {
	m.subsMu.Lock()
	subs := make([]func(string), len(m.subs))
	copy(subs, m.subs)
	m.subsMu.Unlock()
	for _, fn := range subs {
		fn(token)
	}
}
