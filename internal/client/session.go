package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tinselhq/tinsel/internal/model"
)

// ErrLoginInFlight is returned when Login is called while another login is
// still running. The caller should wait for the first attempt instead of
// stacking requests against the strict login limiter.
var ErrLoginInFlight = errors.New("login already in progress")

// ErrNotAuthenticated is returned by protected calls when no valid session
// is held.
var ErrNotAuthenticated = errors.New("not authenticated")

// SessionManager owns the client-side session: the token, its expiry, the
// auto-logout timer and the persisted copy. All methods are safe for
// concurrent use.
type SessionManager struct {
	api   *Client
	store TokenStore

	mu            sync.Mutex
	token         string
	expiry        time.Time
	timer         *time.Timer
	loginInFlight bool
	lastErr       string

	// onLogout fires once whenever the session ends for any reason other
	// than an explicit Logout call.
	onLogout func(reason string)
}

// NewSessionManager creates a SessionManager. Call Restore to pick up a
// previously persisted session.
func NewSessionManager(api *Client, store TokenStore) *SessionManager {
	return &SessionManager{api: api, store: store}
}

// SetLogoutHandler registers a callback invoked when the session expires or
// is purged after a server rejection. Must be called before Restore or Login.
func (m *SessionManager) SetLogoutHandler(fn func(reason string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLogout = fn
}

// Restore loads the persisted session. A missing or already-expired session
// is discarded locally; no request is made to the server either way. Returns
// true when a live session was restored.
func (m *SessionManager) Restore() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, expiry, ok, err := m.store.Load()
	if err != nil {
		return false, err
	}
	if !ok || !expiry.After(time.Now()) {
		m.store.Clear()
		return false, nil
	}

	m.token = token
	m.expiry = expiry
	m.scheduleLogoutLocked()
	return true, nil
}

// Login exchanges the password for a token and persists the session. At most
// one login runs at a time; a concurrent call fails fast with
// ErrLoginInFlight.
func (m *SessionManager) Login(ctx context.Context, password string) error {
	m.mu.Lock()
	if m.loginInFlight {
		m.mu.Unlock()
		return ErrLoginInFlight
	}
	m.loginInFlight = true
	m.mu.Unlock()

	resp, err := m.api.Login(ctx, password)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginInFlight = false

	if err != nil {
		m.lastErr = err.Error()
		return err
	}

	m.lastErr = ""
	m.token = resp.Token
	m.expiry = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	m.scheduleLogoutLocked()
	if err := m.store.Save(m.token, m.expiry); err != nil {
		// The in-memory session still works for this process.
		m.lastErr = err.Error()
	}
	return nil
}

// Logout ends the session and clears the persisted copy.
func (m *SessionManager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked()
	return m.store.Clear()
}

// Authenticated reports whether a live session is held.
func (m *SessionManager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != "" && m.expiry.After(time.Now())
}

// Expiry returns the expiry of the current session, zero when there is none.
func (m *SessionManager) Expiry() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiry
}

// LastError returns the most recent session error message, empty when the
// last operation succeeded.
func (m *SessionManager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// ClearError resets the stored error message.
func (m *SessionManager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = ""
}

// Send submits a holiday email batch using the current session.
func (m *SessionManager) Send(ctx context.Context, req SendParams) (*model.SendResponse, error) {
	token, err := m.currentToken()
	if err != nil {
		return nil, err
	}
	resp, err := m.api.Send(ctx, token, req)
	return resp, m.checkAuthErr(err)
}

// ListLogs fetches one page of the batch log using the current session.
func (m *SessionManager) ListLogs(ctx context.Context, limit, offset int, status string) (*model.ListBatchesResponse, error) {
	token, err := m.currentToken()
	if err != nil {
		return nil, err
	}
	resp, err := m.api.ListLogs(ctx, token, limit, offset, status)
	return resp, m.checkAuthErr(err)
}

// GetLog fetches one batch using the current session.
func (m *SessionManager) GetLog(ctx context.Context, batchID string) (*model.GetBatchResponse, error) {
	token, err := m.currentToken()
	if err != nil {
		return nil, err
	}
	resp, err := m.api.GetLog(ctx, token, batchID)
	return resp, m.checkAuthErr(err)
}

func (m *SessionManager) currentToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" || !m.expiry.After(time.Now()) {
		return "", ErrNotAuthenticated
	}
	return m.token, nil
}

// checkAuthErr purges the session when the server answered 401 or 403. The
// stored credentials are proven unusable at that point; keeping them would
// only repeat the rejection.
func (m *SessionManager) checkAuthErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Status == 401 || apiErr.Status == 403) {
		m.mu.Lock()
		m.lastErr = apiErr.Message
		m.purgeLocked()
		m.store.Clear()
		fn := m.onLogout
		m.mu.Unlock()
		if fn != nil {
			fn("rejected")
		}
	}
	return err
}

// scheduleLogoutLocked arms the one-shot auto-logout timer for the current
// expiry, replacing any previous timer. Caller holds mu.
func (m *SessionManager) scheduleLogoutLocked() {
	if m.timer != nil {
		m.timer.Stop()
	}
	expiry := m.expiry
	m.timer = time.AfterFunc(time.Until(expiry), func() {
		m.mu.Lock()
		// A newer login may have replaced the session this timer was armed
		// for.
		if !m.expiry.Equal(expiry) {
			m.mu.Unlock()
			return
		}
		m.purgeLocked()
		m.store.Clear()
		fn := m.onLogout
		m.mu.Unlock()
		if fn != nil {
			fn("expired")
		}
	})
}

// purgeLocked drops the in-memory session and stops the timer. Caller holds
// mu and handles the persisted copy.
func (m *SessionManager) purgeLocked() {
	m.token = ""
	m.expiry = time.Time{}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
