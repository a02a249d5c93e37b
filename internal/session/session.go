// Package session tracks the client-side authentication state: which
// user, if any, the stored token belongs to and what role they carry.
package session

import (
	"context"
	"sync"

	"github.com/bissquit/stockroom/internal/domain"
)

// State is the session lifecycle phase.
type State int

const (
	// StateUnknown means a token exists but has not been confirmed yet.
	StateUnknown State = iota
	// StateUnauthenticated means no valid token is held.
	StateUnauthenticated
	// StateAuthenticated means the server confirmed the token and role.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "invalid"
	}
}

// Snapshot is an immutable view of the session at one instant.
type Snapshot struct {
	State State
	Token string
	Role  domain.Role
}

// RoleChecker confirms a token with the server and returns the role it
// carries. The role must always come from the server, never from
// locally cached state.
type RoleChecker interface {
	CheckRole(ctx context.Context, token string) (domain.Role, error)
}

// Manager owns the session state machine. All transitions are
// serialized; a logout invalidates any confirmation still in flight.
type Manager struct {
	mu    sync.Mutex
	store TokenStore
	check RoleChecker

	state State
	token string
	role  domain.Role

	// generation increments on every logout so a stale Confirm result
	// cannot resurrect a session the user already left.
	generation uint64
}

// NewManager restores the session from the token store. A stored token
// puts the session in StateUnknown until Confirm succeeds.
func NewManager(store TokenStore, check RoleChecker) (*Manager, error) {
	m := &Manager{
		store: store,
		check: check,
		state: StateUnauthenticated,
	}

	token, err := store.Load()
	if err != nil {
		return nil, err
	}
	if token != "" {
		m.state = StateUnknown
		m.token = token
	}
	return m, nil
}

// Current returns a snapshot of the session.
func (m *Manager) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{State: m.state, Token: m.token, Role: m.role}
}

// Login stores the freshly issued token and moves straight to
// StateAuthenticated; the role was just confirmed by the login call.
func (m *Manager) Login(token string, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(token); err != nil {
		return err
	}
	m.state = StateAuthenticated
	m.token = token
	m.role = role
	return nil
}

// Logout clears the stored token and returns to StateUnauthenticated.
// Any in-flight Confirm becomes a no-op.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	m.state = StateUnauthenticated
	m.token = ""
	m.role = ""
	return m.store.Clear()
}

// Confirm resolves a StateUnknown session by asking the server for the
// token's role. On failure the token is discarded. If the user logged
// out while the check was in flight, the result is dropped.
func (m *Manager) Confirm(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	if m.state != StateUnknown {
		snap := Snapshot{State: m.state, Token: m.token, Role: m.role}
		m.mu.Unlock()
		return snap, nil
	}
	token := m.token
	gen := m.generation
	m.mu.Unlock()

	role, err := m.check.CheckRole(ctx, token)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		return Snapshot{State: m.state, Token: m.token, Role: m.role}, nil
	}

	if err != nil {
		m.state = StateUnauthenticated
		m.token = ""
		m.role = ""
		if clearErr := m.store.Clear(); clearErr != nil {
			return Snapshot{}, clearErr
		}
		return Snapshot{State: m.state}, nil
	}

	m.state = StateAuthenticated
	m.role = role
	return Snapshot{State: m.state, Token: m.token, Role: m.role}, nil
}

// AllowedActions returns the actions the session's role may perform,
// derived from the same policy table the server enforces. An
// unconfirmed or logged-out session gets none.
func (m *Manager) AllowedActions() []domain.Action {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAuthenticated {
		return nil
	}
	return domain.ActionsFor(m.role)
}

// CanPerform reports whether the session's role may perform the action.
// This mirrors the server-side gate; the server remains authoritative.
func (m *Manager) CanPerform(action domain.Action) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state == StateAuthenticated && domain.Allowed(m.role, action)
}
