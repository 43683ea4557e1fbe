package api

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// PaymentIntent is a server-issued instruction for a Solana transfer.
type PaymentIntent struct {
	IntentID    string `json:"intentId"`
	Destination string `json:"destination"`
	Lamports    uint64 `json:"lamports"`
	Memo        string `json:"memo"`
	Coins       int    `json:"coins"`
}

// SolanaIntent requests a payment intent for the named coin pack.
func (c *Client) SolanaIntent(ctx context.Context, packID string) (PaymentIntent, error) {
	if packID == "" {
		return PaymentIntent{}, errors.New("pack id must not be empty")
	}
	body := map[string]string{"packId": packID}
	var intent PaymentIntent
	if err := c.do(ctx, http.MethodPost, "/payments/solana/intent", nil, body, &intent); err != nil {
		return PaymentIntent{}, err
	}
	return intent, nil
}

// Confirmation statuses reported by the payment confirm endpoint.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusFailed    = "failed"
)

// PaymentConfirmation is the server's view of a submitted transaction.
type PaymentConfirmation struct {
	Status  string `json:"status"`
	Balance int    `json:"balance"`
}

// SolanaConfirm reports an observed transaction signature for settlement.
func (c *Client) SolanaConfirm(ctx context.Context, intentID, signature string) (PaymentConfirmation, error) {
	body := map[string]string{"intentId": intentID, "signature": signature}
	var conf PaymentConfirmation
	if err := c.do(ctx, http.MethodPost, "/payments/solana/confirm", nil, body, &conf); err != nil {
		return PaymentConfirmation{}, err
	}
	return conf, nil
}

// StripeCheckout creates a hosted checkout session and returns its URL.
// Completion is handled entirely by the redirect target; there is no
// in-session confirmation step for this rail.
func (c *Client) StripeCheckout(ctx context.Context, packID string) (string, error) {
	if packID == "" {
		return "", errors.New("pack id must not be empty")
	}
	body := map[string]string{"packId": packID}
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/payments/stripe/checkout", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// Event is a single telemetry record queued by the client.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// SendTelemetry ships a batch of telemetry events.
func (c *Client) SendTelemetry(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	body := map[string]any{"events": events}
	return c.do(ctx, http.MethodPost, "/telemetry", nil, body, nil)
}
