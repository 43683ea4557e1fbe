package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Credentials is the backend's response to a successful authentication.
type Credentials struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (Credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Credentials{}, errors.New("email must not be empty")
	}
	body := map[string]string{"email": email, "password": password}
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// Register creates a new account and returns its credentials.
func (c *Client) Register(ctx context.Context, email, password string) (Credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Credentials{}, errors.New("email must not be empty")
	}
	body := map[string]string{"email": email, "password": password}
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, body, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// Guest creates an anonymous session bound to a device identifier.
func (c *Client) Guest(ctx context.Context, deviceID string) (Credentials, error) {
	body := map[string]string{"deviceId": deviceID}
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/guest", nil, body, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// WalletNonce requests a one-time message for the wallet to sign.
func (c *Client) WalletNonce(ctx context.Context, publicKey string) (string, error) {
	publicKey = strings.TrimSpace(publicKey)
	if publicKey == "" {
		return "", errors.New("public key must not be empty")
	}
	body := map[string]string{"publicKey": publicKey}
	var resp struct {
		Nonce string `json:"nonce"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/wallet/nonce", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.Nonce, nil
}

// WalletVerify exchanges a signed nonce for session credentials.
func (c *Client) WalletVerify(ctx context.Context, publicKey, signature, nonce string) (Credentials, error) {
	body := map[string]string{
		"publicKey": publicKey,
		"signature": signature,
		"nonce":     nonce,
	}
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/wallet/verify", nil, body, &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}
