// Package gate owns the "who is logged in" state and the redirect policy
// for role-restricted screens. It is the single writer of the session
// identity; every guarded view reads through it.
package gate

import (
	"context"
	"sync"

	"github.com/neuromat/amparo/internal/model"
)

// Backend is the slice of the auth API the gate drives.
type Backend interface {
	// Me returns the identity bound to the current session cookie.
	// Any error, of any shape, means anonymous.
	Me(ctx context.Context) (*model.Identity, error)
	// Login exchanges credentials for an identity. On failure the
	// returned error carries the backend-provided message.
	Login(ctx context.Context, username, password string) (*model.Identity, error)
	// Logout invalidates the backend session. Best-effort.
	Logout(ctx context.Context) error
}

// State of the gate. Loading lasts from construction until the one-time
// identity check resolves.
type State int

const (
	StateLoading State = iota
	StateReady
)

// Decision is the route-guard outcome for a protected view.
type Decision int

const (
	ShowLoading Decision = iota
	RedirectLogin
	RedirectHome
	Render
)

// Requirement declares the roles a protected view demands. Zero values
// mean the view only requires an authenticated session.
type Requirement struct {
	Admin  bool
	Editor bool
}

// Gate tracks the current authenticated identity. Construct with New,
// then call Init exactly once at application start.
type Gate struct {
	backend Backend

	initOnce sync.Once

	mu       sync.RWMutex
	state    State
	identity *model.Identity
}

// New returns a gate in the Loading state.
func New(backend Backend) *Gate {
	return &Gate{backend: backend, state: StateLoading}
}

// Init performs the one-time identity check and moves the gate to Ready.
// A failed check is not fatal: the gate becomes Ready with no identity
// and the application degrades to anonymous browsing. Subsequent calls
// are no-ops.
func (g *Gate) Init(ctx context.Context) {
	g.initOnce.Do(func() {
		identity, err := g.backend.Me(ctx)
		g.mu.Lock()
		defer g.mu.Unlock()
		g.state = StateReady
		if err == nil {
			g.identity = identity
		}
	})
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Identity returns the current identity, or nil when anonymous.
func (g *Gate) Identity() *model.Identity {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.identity == nil {
		return nil
	}
	id := *g.identity
	return &id
}

// Login authenticates against the backend. On success the identity is
// stored and the gate is Ready. On failure the gate state is unchanged
// and the backend's error is returned for the login form to display.
func (g *Gate) Login(ctx context.Context, username, password string) error {
	identity, err := g.backend.Login(ctx, username, password)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = StateReady
	g.identity = identity
	return nil
}

// Logout notifies the backend and clears the local identity. Clearing is
// unconditional: a failed invalidation call must never leave the UI in a
// logged-in state. The backend error, if any, is returned for logging.
func (g *Gate) Logout(ctx context.Context) error {
	err := g.backend.Logout(ctx)
	g.mu.Lock()
	g.identity = nil
	g.mu.Unlock()
	return err
}

// IsAdmin reports whether the current identity holds the admin role.
func (g *Gate) IsAdmin() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.identity != nil && g.identity.Role == model.RoleAdmin
}

// IsEditor reports whether the current identity may use the editor
// console. Admins pass every editor check.
func (g *Gate) IsEditor() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.identity != nil &&
		(g.identity.Role == model.RoleEditor || g.identity.Role == model.RoleAdmin)
}

// Evaluate applies the redirect policy for a protected view:
// loading placeholder while the identity check is pending, login screen
// for anonymous sessions, home for missing roles, otherwise render.
// The pending role never satisfies a requirement.
func (g *Gate) Evaluate(req Requirement) Decision {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.state == StateLoading {
		return ShowLoading
	}
	if g.identity == nil {
		return RedirectLogin
	}
	if req.Admin && g.identity.Role != model.RoleAdmin {
		return RedirectHome
	}
	if req.Editor && g.identity.Role != model.RoleEditor && g.identity.Role != model.RoleAdmin {
		return RedirectHome
	}
	return Render
}
