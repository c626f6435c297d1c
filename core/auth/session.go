package auth

import (
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"safeflow/config"
	"safeflow/core/rbac"
	"safeflow/core/store"
	"safeflow/core/utils"
)

type contextKey string

// SessionContextKey carries the *Session through request contexts.
const SessionContextKey contextKey = "safeflow.session"

// User is the session-scoped identity created at login and destroyed at
// logout. There is no credential verification; login is a role selection.
type User struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Role  rbac.Role `json:"role"`
	Email string    `json:"email"`
}

func (u User) Actor() store.Actor {
	return store.Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}

type Session struct {
	ID         string    `json:"id"`
	User       User      `json:"user"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// demoUser maps a selected role onto the fixed demo directory: the field
// worker persona is Efe Okoro, every office role logs in as Manager Tunde.
func demoUser(role rbac.Role) User {
	u := User{ID: "USR-001", Name: "Manager Tunde", Email: "user@safeflow.com", Role: role}
	if role == rbac.RoleFieldWorker {
		u.ID = "USR-999"
		u.Name = "Efe Okoro"
	}
	return u
}

// SessionManager owns the live sessions and the shared management
// notification feed. All state is in memory; nothing survives a restart.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	feed     *store.Feed
	cfg      *config.AppConfig
	logger   *utils.Logger
}

func NewSessionManager(cfg *config.AppConfig, feed *store.Feed, logger *utils.Logger) *SessionManager {
	return &SessionManager{
		sessions: map[string]*Session{},
		feed:     feed,
		cfg:      cfg,
		logger:   logger,
	}
}

func (m *SessionManager) Feed() *store.Feed {
	return m.feed
}

// Login creates a session for the selected role.
func (m *SessionManager) Login(role rbac.Role) (*Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := utils.NowUTC()
	sess := &Session{
		ID:         id.String(),
		User:       demoUser(role),
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(m.cfg.EffectiveSessionTTL()),
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	m.logger.Printf("SESSION create id=%s user=%s role=%s", sess.ID, sess.User.Name, sess.User.Role)
	return sess, nil
}

func (m *SessionManager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if utils.NowUTC().After(sess.ExpiresAt) {
		delete(m.sessions, id)
		return nil
	}
	out := *sess
	return &out
}

func (m *SessionManager) Touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return
	}
	now := utils.NowUTC()
	sess.LastSeenAt = now
	sess.ExpiresAt = now.Add(m.cfg.EffectiveSessionTTL())
}

// Logout tears the session down and clears pending notifications, the
// teardown boundary of the session-scoped state.
func (m *SessionManager) Logout(id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if ok {
		m.feed.Clear()
		m.logger.Printf("SESSION delete id=%s user=%s", id, sess.User.Name)
	}
}

// PurgeExpired drops expired sessions; run periodically by the janitor.
func (m *SessionManager) PurgeExpired() int {
	now := utils.NowUTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	purged := 0
	for id, sess := range m.sessions {
		if now.After(sess.ExpiresAt) {
			delete(m.sessions, id)
			purged++
		}
	}
	return purged
}

func (m *SessionManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
