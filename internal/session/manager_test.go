package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"reelfeed/internal/api"
	"reelfeed/internal/config"
	"reelfeed/internal/services"
)

type fakeAuth struct {
	guestCalls int
	loginErr   error
	creds      api.Credentials
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (api.Credentials, error) {
	if f.loginErr != nil {
		return api.Credentials{}, f.loginErr
	}
	return f.creds, nil
}

func (f *fakeAuth) Register(ctx context.Context, email, password string) (api.Credentials, error) {
	return f.creds, nil
}

func (f *fakeAuth) Guest(ctx context.Context, deviceID string) (api.Credentials, error) {
	f.guestCalls++
	if deviceID == "" {
		return api.Credentials{}, errors.New("missing device id")
	}
	return api.Credentials{Token: "guest-token", UserID: "guest-1"}, nil
}

func (f *fakeAuth) WalletNonce(ctx context.Context, publicKey string) (string, error) {
	return "nonce-1", nil
}

func (f *fakeAuth) WalletVerify(ctx context.Context, publicKey, signature, nonce string) (api.Credentials, error) {
	if signature != "signed:nonce-1" {
		return api.Credentials{}, errors.New("bad signature")
	}
	return api.Credentials{Token: "wallet-token", UserID: "wallet-1"}, nil
}

type fakeSigner struct{}

func (fakeSigner) PublicKey() string { return "pubkey" }

func (fakeSigner) SignMessage(ctx context.Context, message string) (string, error) {
	return "signed:" + message, nil
}

func newTestManager(t *testing.T, auth AuthClient, opts ...ManagerOption) *Manager {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	mgr, err := NewManager(&cfg, auth, opts...)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	return mgr
}

func TestManagerAssignsDeviceID(t *testing.T) {
	mgr := newTestManager(t, &fakeAuth{})
	if mgr.DeviceID() == "" {
		t.Fatal("expected device id to be assigned")
	}
	if _, ok := mgr.Current(); ok {
		t.Fatal("expected no session initially")
	}
}

func TestManagerDiscardsStaleGuestSession(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "session.json"))
	stale := sessionState{
		DeviceID:      "device-1",
		UserID:        "u1",
		Token:         "old-token",
		Authenticated: true,
		// No email: this is the stale-guest shape that must be discarded.
	}
	if err := store.Save(stale); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	cfg := config.Default()
	cfg.Paths.StateDir = dir
	mgr, err := NewManager(&cfg, &fakeAuth{}, WithStore(store))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	if _, ok := mgr.Current(); ok {
		t.Fatal("stale guest session should have been discarded")
	}
	if mgr.DeviceID() != "device-1" {
		t.Fatalf("device id should survive, got %q", mgr.DeviceID())
	}
}

func TestEnsureSessionCreatesGuestOnce(t *testing.T) {
	auth := &fakeAuth{}
	mgr := newTestManager(t, auth)

	session, err := mgr.EnsureSession(context.Background())
	if err != nil {
		t.Fatalf("EnsureSession returned error: %v", err)
	}
	if !session.Guest || session.Token != "guest-token" {
		t.Fatalf("unexpected session: %+v", session)
	}

	if _, err := mgr.EnsureSession(context.Background()); err != nil {
		t.Fatalf("EnsureSession returned error: %v", err)
	}
	if auth.guestCalls != 1 {
		t.Fatalf("expected a single guest bootstrap, got %d", auth.guestCalls)
	}
}

func TestEnsureSessionReplacesExpiredToken(t *testing.T) {
	auth := &fakeAuth{creds: api.Credentials{
		Token:     "user-token",
		UserID:    "u1",
		ExpiresAt: time.Now().Add(-time.Hour),
	}}
	mgr := newTestManager(t, auth)

	if _, err := mgr.Login(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	session, err := mgr.EnsureSession(context.Background())
	if err != nil {
		t.Fatalf("EnsureSession returned error: %v", err)
	}
	if !session.Guest {
		t.Fatalf("expected expired session replaced by guest, got %+v", session)
	}
}

func TestLoginAdoptsCredentialsAndPersists(t *testing.T) {
	auth := &fakeAuth{creds: api.Credentials{Token: "user-token", UserID: "u1"}}
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "session.json"))
	cfg := config.Default()
	cfg.Paths.StateDir = dir
	mgr, err := NewManager(&cfg, auth, WithStore(store))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	session, err := mgr.Login(context.Background(), "a@example.com", "pw")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if !session.Authenticated || session.Guest || session.Email != "a@example.com" {
		t.Fatalf("unexpected session: %+v", session)
	}

	if err := mgr.SetBalance(55); err != nil {
		t.Fatalf("SetBalance returned error: %v", err)
	}

	// A second manager over the same store must rehydrate the session.
	again, err := NewManager(&cfg, auth, WithStore(store))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	restored, ok := again.Current()
	if !ok {
		t.Fatal("expected persisted session to rehydrate")
	}
	if restored.Balance != 55 || restored.Email != "a@example.com" {
		t.Fatalf("unexpected restored session: %+v", restored)
	}
}

func TestLogoutKeepsDeviceID(t *testing.T) {
	auth := &fakeAuth{creds: api.Credentials{Token: "t", UserID: "u"}}
	mgr := newTestManager(t, auth)
	if _, err := mgr.Login(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	device := mgr.DeviceID()

	if err := mgr.Logout(); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if _, ok := mgr.Current(); ok {
		t.Fatal("expected session cleared")
	}
	if mgr.DeviceID() != device {
		t.Fatal("device id must survive logout")
	}
}

func TestRefreshGuestRecreatesSession(t *testing.T) {
	auth := &fakeAuth{}
	mgr := newTestManager(t, auth)
	if _, err := mgr.EnsureSession(context.Background()); err != nil {
		t.Fatalf("EnsureSession returned error: %v", err)
	}

	if err := mgr.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if auth.guestCalls != 2 {
		t.Fatalf("expected guest recreation, got %d calls", auth.guestCalls)
	}
}

func TestRefreshAuthenticatedRequiresSignIn(t *testing.T) {
	auth := &fakeAuth{creds: api.Credentials{Token: "t", UserID: "u"}}
	mgr := newTestManager(t, auth)
	if _, err := mgr.Login(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	err := mgr.Refresh(context.Background())
	if !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, ok := mgr.Current(); ok {
		t.Fatal("expected session cleared after failed refresh")
	}
}

func TestWalletLogin(t *testing.T) {
	mgr := newTestManager(t, &fakeAuth{})
	session, err := mgr.WalletLogin(context.Background(), fakeSigner{})
	if err != nil {
		t.Fatalf("WalletLogin returned error: %v", err)
	}
	if session.Token != "wallet-token" || !session.Authenticated {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestTokenExpiryPrefersJWTClaim(t *testing.T) {
	claimExp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": claimExp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	got := tokenExpiry(api.Credentials{Token: signed, ExpiresAt: claimExp.Add(24 * time.Hour)})
	if !got.Equal(claimExp) {
		t.Fatalf("expected claim expiry %v, got %v", claimExp, got)
	}

	fallback := time.Now().Add(time.Hour)
	got = tokenExpiry(api.Credentials{Token: "not-a-jwt", ExpiresAt: fallback})
	if !got.Equal(fallback) {
		t.Fatalf("expected fallback expiry %v, got %v", fallback, got)
	}
}
