package session

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"reelfeed/internal/api"
	"reelfeed/internal/config"
	"reelfeed/internal/services"
)

const stateFileName = "session.json"

// Session is the in-memory view of the current viewer.
type Session struct {
	UserID         string
	Email          string
	Token          string
	TokenExpiresAt time.Time
	Balance        int
	Guest          bool
	Authenticated  bool
}

// Expired reports whether the session token is past its expiry. A zero
// expiry means the backend issued no expiry and the token is trusted until
// the server rejects it.
func (s Session) Expired(now time.Time) bool {
	return !s.TokenExpiresAt.IsZero() && now.After(s.TokenExpiresAt)
}

// AuthClient captures the authentication endpoints the manager drives.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (api.Credentials, error)
	Register(ctx context.Context, email, password string) (api.Credentials, error)
	Guest(ctx context.Context, deviceID string) (api.Credentials, error)
	WalletNonce(ctx context.Context, publicKey string) (string, error)
	WalletVerify(ctx context.Context, publicKey, signature, nonce string) (api.Credentials, error)
}

// WalletAuthSigner is implemented by an external wallet capable of signing
// an authentication nonce.
type WalletAuthSigner interface {
	PublicKey() string
	SignMessage(ctx context.Context, message string) (string, error)
}

// ManagerOption customises Manager construction.
type ManagerOption func(*Manager)

// WithStore injects a custom persistence layer.
func WithStore(store Store) ManagerOption {
	return func(m *Manager) {
		m.store = store
	}
}

// WithNow overrides the clock (used in tests).
func WithNow(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager owns the persisted viewer session: rehydration on start, guest
// bootstrap, credential logins, logout, and the eventually-consistent coin
// balance refetched after mutations.
type Manager struct {
	auth  AuthClient
	store Store
	now   func() time.Time

	mu    sync.RWMutex
	state sessionState
}

// NewManager builds a Manager persisting under the configured state directory.
func NewManager(cfg *config.Config, auth AuthClient, opts ...ManagerOption) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	mgr := &Manager{
		auth:  auth,
		store: NewFileStore(filepath.Join(cfg.Paths.StateDir, stateFileName)),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(mgr)
	}
	if err := mgr.loadInitialState(); err != nil {
		return nil, err
	}
	return mgr, nil
}

func (m *Manager) loadInitialState() error {
	state, err := m.store.Load()
	if err != nil {
		return err
	}

	dirty := false
	if state.DeviceID == "" {
		state.DeviceID = strings.ReplaceAll(uuid.New().String(), "-", "")
		dirty = true
	}

	// A stored session claiming authentication but carrying no email is a
	// stale guest record from an earlier run; discard it and start fresh.
	if state.Token != "" && state.Authenticated && state.Email == "" {
		state = sessionState{DeviceID: state.DeviceID}
		dirty = true
	}

	m.state = state
	if dirty {
		return m.store.Save(m.state)
	}
	return nil
}

// Current returns the active session, reporting false when no token is held.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state.Token == "" {
		return Session{}, false
	}
	return m.sessionLocked(), true
}

func (m *Manager) sessionLocked() Session {
	return Session{
		UserID:         m.state.UserID,
		Email:          m.state.Email,
		Token:          m.state.Token,
		TokenExpiresAt: m.state.TokenExpiresAt,
		Balance:        m.state.Balance,
		Guest:          m.state.Guest,
		Authenticated:  m.state.Authenticated,
	}
}

// Token implements api.TokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Token
}

// DeviceID returns the stable per-install identifier.
func (m *Manager) DeviceID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.DeviceID
}

// EnsureSession returns the current session, creating a guest session when
// none exists or the held token has expired.
func (m *Manager) EnsureSession(ctx context.Context) (Session, error) {
	m.mu.RLock()
	token := m.state.Token
	expired := m.sessionLocked().Expired(m.now())
	m.mu.RUnlock()

	if token != "" && !expired {
		session, _ := m.Current()
		return session, nil
	}
	return m.beginGuest(ctx)
}

// Refresh re-establishes the session after the backend rejected its token.
// Guest sessions are recreated transparently; an authenticated viewer must
// sign in again.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.RLock()
	guest := m.state.Guest || !m.state.Authenticated
	m.mu.RUnlock()

	if !guest {
		if err := m.Logout(); err != nil {
			return err
		}
		return services.Wrap(services.ErrUnauthorized, "session", "refresh", "sign in required", nil)
	}
	_, err := m.beginGuest(ctx)
	return err
}

func (m *Manager) beginGuest(ctx context.Context) (Session, error) {
	if m.auth == nil {
		return Session{}, services.Wrap(services.ErrConfiguration, "session", "guest", "auth client not configured", nil)
	}
	creds, err := m.auth.Guest(ctx, m.DeviceID())
	if err != nil {
		return Session{}, err
	}
	return m.adopt(creds, "", false, true)
}

// Login authenticates with email and password and persists the session.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	creds, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return m.adopt(creds, email, true, false)
}

// Register creates an account and persists the resulting session.
func (m *Manager) Register(ctx context.Context, email, password string) (Session, error) {
	creds, err := m.auth.Register(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return m.adopt(creds, email, true, false)
}

// WalletLogin performs the nonce/sign/verify exchange with an external wallet.
func (m *Manager) WalletLogin(ctx context.Context, signer WalletAuthSigner) (Session, error) {
	if signer == nil {
		return Session{}, errors.New("wallet signer is nil")
	}
	publicKey := signer.PublicKey()
	nonce, err := m.auth.WalletNonce(ctx, publicKey)
	if err != nil {
		return Session{}, err
	}
	signature, err := signer.SignMessage(ctx, nonce)
	if err != nil {
		return Session{}, services.Wrap(services.ErrPayment, "session", "wallet login", "sign nonce", err)
	}
	creds, err := m.auth.WalletVerify(ctx, publicKey, signature, nonce)
	if err != nil {
		return Session{}, err
	}
	return m.adopt(creds, publicKey, true, false)
}

func (m *Manager) adopt(creds api.Credentials, email string, authenticated, guest bool) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.UserID = creds.UserID
	m.state.Email = email
	m.state.Token = creds.Token
	m.state.TokenExpiresAt = tokenExpiry(creds)
	m.state.Guest = guest
	m.state.Authenticated = authenticated

	if err := m.store.Save(m.state); err != nil {
		return Session{}, err
	}
	return m.sessionLocked(), nil
}

// SetBalance records a server-reported coin balance and persists it.
func (m *Manager) SetBalance(balance int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Balance = balance
	return m.store.Save(m.state)
}

// Logout clears the session, keeping only the device identifier.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = sessionState{DeviceID: m.state.DeviceID}
	return m.store.Save(m.state)
}

// tokenExpiry prefers the exp claim embedded in the bearer token, falling
// back to the expiry the server reported alongside it. The token is decoded
// without verification; the server remains the authority on validity.
func tokenExpiry(creds api.Credentials) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(creds.Token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return creds.ExpiresAt
}
