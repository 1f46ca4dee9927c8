package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/parent-portal/parent_portal/internal/auth"
	"github.com/parent-portal/parent_portal/internal/storage"
)

// Machine owns the session value and onboarding flag, gates which top-level
// area is reachable, and issues redirects. All mutations recompute the
// gating decision synchronously before returning.
type Machine struct {
	store  storage.Store
	auth   *auth.Service
	logger *slog.Logger
	nav    Navigator

	mu             sync.Mutex
	loading        bool
	seenOnboarding bool
	session        *UserSession
	area           Area
	state          State

	// pendingPhone pairs a login with its subsequent verification. In-memory
	// only: a process restart before verification loses it.
	pendingPhone string
}

// New builds a machine in the bootstrapping state.
func New(store storage.Store, authSvc *auth.Service, logger *slog.Logger, nav Navigator) *Machine {
	return &Machine{
		store:   store,
		auth:    authSvc,
		logger:  logger,
		nav:     nav,
		loading: true,
		state:   StateBootstrapping,
	}
}

// Bootstrap restores the persisted session and onboarding flag, then marks
// the machine live. Storage failures are treated as absence (fail-open): a
// broken store behaves like a fresh install. A restored session is adopted
// without re-validating the token.
func (m *Machine) Bootstrap(ctx context.Context) {
	var (
		wg      sync.WaitGroup
		sess    UserSession
		sessOK  bool
		seen    bool
		seenOK  bool
		sessErr error
		flagErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		sessOK, sessErr = m.store.Load(ctx, storage.KeyUserSession, &sess)
	}()
	go func() {
		defer wg.Done()
		seenOK, flagErr = m.store.Load(ctx, storage.KeySeenOnboarding, &seen)
	}()
	wg.Wait()

	if sessErr != nil {
		m.logger.Warn("bootstrap: load session", "error", sessErr)
	}
	if flagErr != nil {
		m.logger.Warn("bootstrap: load onboarding flag", "error", flagErr)
	}

	m.mu.Lock()
	if sessOK && sessErr == nil {
		m.session = &sess
		m.auth.Restore(sess.User, sess.Token)
	}
	if seenOK && flagErr == nil && seen {
		m.seenOnboarding = true
	}
	m.loading = false
	redirect := m.recomputeLocked()
	m.mu.Unlock()

	m.emit(redirect)
}

// SignIn stores phone as the pending credential and asks the backend to
// send a code. A remote rejection is returned for display; no session
// state changes.
func (m *Machine) SignIn(ctx context.Context, phone string) error {
	m.mu.Lock()
	m.pendingPhone = phone
	m.mu.Unlock()

	return m.auth.Login(ctx, phone)
}

// VerifyOTP verifies code against the pending phone. On success the session
// is adopted and persisted. On failure nothing changes — the pending phone
// is kept so the user can retry with a fresh code.
func (m *Machine) VerifyOTP(ctx context.Context, code string) error {
	m.mu.Lock()
	phone := m.pendingPhone
	m.mu.Unlock()

	profile, token, err := m.auth.VerifyOTP(ctx, phone, code)
	if err != nil {
		return err
	}

	sess := UserSession{User: profile, Token: token}
	if err := m.store.Save(ctx, storage.KeyUserSession, sess); err != nil {
		m.logger.Warn("persist session", "error", err)
	}

	m.mu.Lock()
	m.session = &sess
	redirect := m.recomputeLocked()
	m.mu.Unlock()

	m.emit(redirect)
	return nil
}

// SignOut clears the session unconditionally. The remote logout is
// best-effort: a network failure must never leave the user stuck signed in.
func (m *Machine) SignOut(ctx context.Context) {
	if err := m.auth.Logout(ctx); err != nil {
		m.logger.Warn("remote sign-out", "error", err)
	}

	if err := m.store.Remove(ctx, storage.KeyUserSession); err != nil {
		m.logger.Warn("remove persisted session", "error", err)
	}

	m.mu.Lock()
	m.session = nil
	redirect := m.recomputeLocked()
	m.mu.Unlock()

	m.emit(redirect)
}

// UpdateUser applies a profile patch remotely and merges the result into
// the current session. On failure the stored session is left untouched.
func (m *Machine) UpdateUser(ctx context.Context, patch auth.ProfilePatch) error {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return auth.ErrNoActiveSession
	}
	token := m.session.Token
	m.mu.Unlock()

	updated, err := m.auth.UpdateProfile(ctx, patch)
	if err != nil {
		return err
	}

	sess := UserSession{User: updated, Token: token}
	if err := m.store.Save(ctx, storage.KeyUserSession, sess); err != nil {
		m.logger.Warn("persist session", "error", err)
	}

	m.mu.Lock()
	m.session = &sess
	redirect := m.recomputeLocked()
	m.mu.Unlock()

	m.emit(redirect)
	return nil
}

// CompleteOnboarding marks the introductory slides as seen. The flag is
// persisted independently of the session so it outlives sign-out.
func (m *Machine) CompleteOnboarding(ctx context.Context) {
	if err := m.store.Save(ctx, storage.KeySeenOnboarding, true); err != nil {
		m.logger.Warn("persist onboarding flag", "error", err)
	}

	m.mu.Lock()
	m.seenOnboarding = true
	redirect := m.recomputeLocked()
	m.mu.Unlock()

	m.emit(redirect)
}

// SetArea reports the navigation area the UI has settled in.
func (m *Machine) SetArea(area Area) {
	m.mu.Lock()
	m.area = area
	redirect := m.recomputeLocked()
	m.mu.Unlock()

	m.emit(redirect)
}

// HandleUnauthorized drops the local session after the backend rejected its
// token. Wired to the HTTP client's 401 hook.
func (m *Machine) HandleUnauthorized() {
	if err := m.store.Remove(context.Background(), storage.KeyUserSession); err != nil {
		m.logger.Warn("remove persisted session", "error", err)
	}

	m.mu.Lock()
	m.session = nil
	redirect := m.recomputeLocked()
	m.mu.Unlock()

	m.emit(redirect)
}

// State returns the active top-level state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentUser returns a copy of the signed-in session, or nil.
func (m *Machine) CurrentUser() *UserSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	sess := *m.session
	return &sess
}

func (m *Machine) recomputeLocked() *Redirect {
	state, redirect := resolve(snapshot{
		loading:        m.loading,
		seenOnboarding: m.seenOnboarding,
		session:        m.session,
		area:           m.area,
	})
	m.state = state
	return redirect
}

// emit delivers a redirect outside the lock so the navigator may call back
// into the machine.
func (m *Machine) emit(redirect *Redirect) {
	if redirect == nil || m.nav == nil {
		return
	}
	m.logger.Debug("redirect", "target", redirect.Target)
	m.nav(*redirect)
}
