// Package session holds the process-wide view of who is signed in. It is
// built once in main and handed to whatever needs it.
package session

import (
	"log/slog"
	"sync"
	"time"

	"mpa-platform/models"
)

type Event string

const (
	EventSignedIn       Event = "signed_in"
	EventProfileUpdated Event = "profile_updated"
	EventSignedOut      Event = "signed_out"
)

// Identity is what a verified access token says about its bearer.
type Identity struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

type Session struct {
	Identity Identity
	Profile  *models.Profile
	SeenAt   time.Time
}

type Change struct {
	Event   Event
	UserID  string
	Session Session
}

type Listener func(Change)

type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	listeners map[int]Listener
	nextID    int
	now       func() time.Time
	log       *slog.Logger
}

func NewManager(log *slog.Logger) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		listeners: make(map[int]Listener),
		now:       time.Now,
		log:       log.With("component", "session"),
	}
}

// Subscribe registers l for every change and returns its unsubscribe func.
// Listeners run synchronously on the goroutine that caused the change.
func (m *Manager) Subscribe(l Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// SignIn records a verified identity with its bootstrapped profile. It
// reports true and emits signed_in only when the user was not signed in.
func (m *Manager) SignIn(id Identity, profile *models.Profile) bool {
	m.mu.Lock()
	s, existed := m.sessions[id.UserID]
	if !existed {
		s = &Session{}
		m.sessions[id.UserID] = s
	}
	s.Identity = id
	s.SeenAt = m.now()
	if profile != nil {
		s.Profile = profile
	}
	snapshot := *s
	m.mu.Unlock()

	if existed {
		return false
	}
	m.log.Info("signed in", "user_id", id.UserID)
	m.emit(Change{Event: EventSignedIn, UserID: id.UserID, Session: snapshot})
	return true
}

// UpdateProfile replaces the cached profile of a signed-in user.
func (m *Manager) UpdateProfile(profile *models.Profile) {
	if profile == nil {
		return
	}
	m.mu.Lock()
	s, ok := m.sessions[profile.ID]
	if ok {
		s.Profile = profile
	}
	var snapshot Session
	if ok {
		snapshot = *s
	}
	m.mu.Unlock()

	if ok {
		m.emit(Change{Event: EventProfileUpdated, UserID: profile.ID, Session: snapshot})
	}
}

func (m *Manager) SignOut(userID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if !ok {
		return false
	}
	m.log.Info("signed out", "user_id", userID)
	m.emit(Change{Event: EventSignedOut, UserID: userID, Session: *s})
	return true
}

func (m *Manager) Current(userID string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

func (m *Manager) Active() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Expire signs out every session whose token expired or that has been idle
// longer than idle, and returns how many went.
func (m *Manager) Expire(idle time.Duration) int {
	now := m.now()
	var gone []string

	m.mu.RLock()
	for id, s := range m.sessions {
		expired := !s.Identity.ExpiresAt.IsZero() && now.After(s.Identity.ExpiresAt)
		if expired || (idle > 0 && now.Sub(s.SeenAt) > idle) {
			gone = append(gone, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range gone {
		m.SignOut(id)
	}
	return len(gone)
}

func (m *Manager) emit(c Change) {
	m.mu.RLock()
	ls := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		ls = append(ls, l)
	}
	m.mu.RUnlock()

	for _, l := range ls {
		l(c)
	}
}
