// Package session owns the till's signed-in identity. A Manager is created
// once per process, restored with Init and cleared with Teardown.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tillpos-backend/internal/api"
	"tillpos-backend/internal/apperr"
	"tillpos-backend/internal/domain"
)

var (
	ErrInvalidCredentials = domain.ErrInvalidCredentials
	ErrConnection         = errors.New("connection error")
	ErrLoginFailed        = errors.New("login failed")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrNotAuthenticated   = errors.New("not signed in")
)

type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Authenticator exchanges credentials for a token and carries it on later calls.
type Authenticator interface {
	AuthenticateUser(ctx context.Context, req api.AuthenticateUserRequest) (*api.AuthenticateUserResponse, error)
	SetToken(token string)
}

// ShiftTracker looks up the signed-in user's shift.
type ShiftTracker interface {
	Load(ctx context.Context, userID string) error
	Reset()
	Current() (domain.Shift, bool)
}

type Manager struct {
	auth   Authenticator
	store  TokenStore
	shifts ShiftTracker
	logger *slog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	token *Token
}

func NewManager(auth Authenticator, store TokenStore, shifts ShiftTracker, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{auth: auth, store: store, shifts: shifts, logger: logger, now: time.Now}
}

// Init restores a persisted session. A missing, expired or unreadable token
// leaves the manager Anonymous; the latter two are removed from the store.
// An error is returned only when the restored user's shift lookup fails.
func (m *Manager) Init(ctx context.Context) error {
	t, err := m.store.Load()
	switch {
	case errors.Is(err, ErrNoToken):
		return nil
	case err != nil:
		m.logger.Warn("discarding unreadable session", "err", err)
		m.clearStore()
		return nil
	case t.Expired(m.now()):
		m.logger.Info("persisted session expired", "user", t.User.Username)
		m.clearStore()
		return nil
	}

	m.set(&t)
	m.logger.Info("session restored", "user", t.User.Username)
	return m.loadShift(ctx, "session.Init", t.User.ID)
}

// Login authenticates and persists the session. Failures are reported as
// ErrInvalidCredentials, ErrConnection or ErrLoginFailed. When login succeeds
// but the shift lookup fails the manager is Authenticated and that lookup
// error is returned.
func (m *Manager) Login(ctx context.Context, username, password string) (domain.User, error) {
	const op = "session.Login"
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, apperr.Invalid(op, ErrMissingCredentials, "")
	}

	resp, err := m.auth.AuthenticateUser(ctx, api.AuthenticateUserRequest{
		LoginData: api.LoginData{Username: username, Password: password},
	})
	if err != nil {
		return domain.User{}, loginError(op, err)
	}
	if resp == nil || resp.Token == "" || resp.User.ID == "" {
		return domain.User{}, &apperr.Error{Kind: apperr.Backend, Op: op, Err: ErrInvalidCredentials}
	}

	t := &Token{Token: resp.Token, User: resp.User, ExpiresAt: resp.ExpiresAt}
	m.set(t)
	if err := m.store.Save(*t); err != nil {
		m.logger.Warn("persist session", "err", err)
	}
	m.logger.Info("signed in", "user", t.User.Username, "role", t.User.Role)
	return t.User, m.loadShift(ctx, op, t.User.ID)
}

func loginError(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return &apperr.Error{Kind: apperr.Backend, Op: op, Err: errors.Join(ErrInvalidCredentials, err)}
	case apperr.KindOf(err) == apperr.Connection:
		return &apperr.Error{Kind: apperr.Connection, Op: op, Err: errors.Join(ErrConnection, err)}
	case apperr.KindOf(err) == apperr.Validation:
		return err
	default:
		return &apperr.Error{Kind: apperr.Unexpected, Op: op, Err: errors.Join(ErrLoginFailed, err)}
	}
}

// Teardown returns to Anonymous and discards the in-memory shift and the
// persisted token without any checks.
func (m *Manager) Teardown() {
	m.mu.Lock()
	user := ""
	if m.token != nil {
		user = m.token.User.Username
	}
	m.token = nil
	m.mu.Unlock()

	m.auth.SetToken("")
	if m.shifts != nil {
		m.shifts.Reset()
	}
	m.clearStore()
	if user != "" {
		m.logger.Info("signed out", "user", user)
	}
}

// Logout is Teardown under the name the till's menu uses.
func (m *Manager) Logout() { m.Teardown() }

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == nil {
		return Anonymous
	}
	return Authenticated
}

func (m *Manager) User() (domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == nil {
		return domain.User{}, false
	}
	return m.token.User, true
}

func (m *Manager) Shift() (domain.Shift, bool) {
	if m.shifts == nil || m.State() != Authenticated {
		return domain.Shift{}, false
	}
	return m.shifts.Current()
}

func (m *Manager) IsAdmin() bool   { return m.hasRole(domain.RoleAdmin) }
func (m *Manager) IsCashier() bool { return m.hasRole(domain.RoleCashier) }

// RequireAuthenticated returns the signed-in user or a validation error.
func (m *Manager) RequireAuthenticated() (domain.User, error) {
	u, ok := m.User()
	if !ok {
		return domain.User{}, apperr.Invalid("session.RequireAuthenticated", ErrNotAuthenticated, "")
	}
	return u, nil
}

func (m *Manager) hasRole(role domain.UserRole) bool {
	u, ok := m.User()
	return ok && u.Role == role
}

func (m *Manager) set(t *Token) {
	m.mu.Lock()
	m.token = t
	m.mu.Unlock()
	m.auth.SetToken(t.Token)
}

func (m *Manager) loadShift(ctx context.Context, op, userID string) error {
	if m.shifts == nil {
		return nil
	}
	if err := m.shifts.Load(ctx, userID); err != nil {
		return apperr.Wrap(op, apperr.Backend, err)
	}
	return nil
}

func (m *Manager) clearStore() {
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("clear persisted session", "err", err)
	}
}
