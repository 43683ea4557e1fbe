package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reelfeed/internal/api"
	"reelfeed/internal/config"
	"reelfeed/internal/logging"
	"reelfeed/internal/services"
)

// ErrConfirmTimeout is returned when the backend never reports settlement
// within the polling window. The transfer may still settle later; the next
// balance fetch reflects it.
var ErrConfirmTimeout = errors.New("payment confirmation timed out")

// Gateway is the backend payment surface. *api.Client satisfies it.
type Gateway interface {
	SolanaIntent(ctx context.Context, packID string) (api.PaymentIntent, error)
	SolanaConfirm(ctx context.Context, intentID, signature string) (api.PaymentConfirmation, error)
	StripeCheckout(ctx context.Context, packID string) (string, error)
}

// WalletSigner signs and submits the Solana transfer on the user's behalf.
// The CLI backs it with an external wallet; tests use a fake.
type WalletSigner interface {
	PublicKey() string
	Transfer(ctx context.Context, destination string, lamports uint64, memo string) (signature string, err error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Service.
type Option func(*Service)

// WithPolling overrides the confirmation poll interval and timeout.
func WithPolling(interval, timeout time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.pollInterval = interval
		}
		if timeout > 0 {
			s.pollTimeout = timeout
		}
	}
}

// WithSleepFunc overrides the inter-poll wait (used in tests).
func WithSleepFunc(sleep SleepFunc) Option {
	return func(s *Service) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// WithNow overrides the clock (used in tests).
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.log = logger.With(logging.FieldComponent, "payments")
		}
	}
}

// Service drives coin purchases over both rails.
type Service struct {
	gateway      Gateway
	pollInterval time.Duration
	pollTimeout  time.Duration
	sleep        SleepFunc
	now          func() time.Time
	log          *slog.Logger
}

// New builds a payment service with default polling cadence.
func New(gateway Gateway, opts ...Option) *Service {
	s := &Service{
		gateway:      gateway,
		pollInterval: 2 * time.Second,
		pollTimeout:  90 * time.Second,
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		},
		now: time.Now,
		log: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig builds a service with polling cadence from configuration.
func NewFromConfig(gateway Gateway, cfg *config.Config, opts ...Option) *Service {
	base := []Option{WithPolling(
		time.Duration(cfg.Payments.SolanaConfirmPollMS)*time.Millisecond,
		time.Duration(cfg.Payments.SolanaConfirmTimeoutMS)*time.Millisecond,
	)}
	return New(gateway, append(base, opts...)...)
}

// CheckoutURL creates a Stripe hosted checkout for the pack and returns the
// URL to open in a browser. Settlement is entirely off-app.
func (s *Service) CheckoutURL(ctx context.Context, packID string) (string, error) {
	if _, ok := FindPack(packID); !ok {
		return "", services.Wrap(services.ErrValidation, "payments", "checkout", fmt.Sprintf("unknown pack %q", packID), nil)
	}
	url, err := s.gateway.StripeCheckout(ctx, packID)
	if err != nil {
		return "", services.Wrap(services.ErrPayment, "payments", "checkout", "create stripe checkout", err)
	}
	s.log.Info("stripe checkout created", "pack", packID)
	return url, nil
}

// TopUpSolana runs the full Solana rail: request an intent, have the wallet
// sign and submit the transfer, then poll the backend until it reports
// settlement. It returns the updated coin balance.
func (s *Service) TopUpSolana(ctx context.Context, packID string, signer WalletSigner) (int, error) {
	if _, ok := FindPack(packID); !ok {
		return 0, services.Wrap(services.ErrValidation, "payments", "topup", fmt.Sprintf("unknown pack %q", packID), nil)
	}

	intent, err := s.gateway.SolanaIntent(ctx, packID)
	if err != nil {
		return 0, services.Wrap(services.ErrPayment, "payments", "topup", "create payment intent", err)
	}
	s.log.Info("payment intent created", "pack", packID, "lamports", intent.Lamports)

	signature, err := signer.Transfer(ctx, intent.Destination, intent.Lamports, intent.Memo)
	if err != nil {
		return 0, services.Wrap(services.ErrPayment, "payments", "topup", "wallet transfer", err)
	}

	deadline := s.now().Add(s.pollTimeout)
	for {
		conf, err := s.gateway.SolanaConfirm(ctx, intent.IntentID, signature)
		if err != nil {
			return 0, services.Wrap(services.ErrPayment, "payments", "topup", "confirm payment", err)
		}
		switch conf.Status {
		case api.PaymentStatusConfirmed:
			s.log.Info("payment confirmed", "pack", packID, "balance", conf.Balance)
			return conf.Balance, nil
		case api.PaymentStatusFailed:
			return 0, services.Wrap(services.ErrPayment, "payments", "topup", "payment failed on chain", nil)
		}
		if !s.now().Before(deadline) {
			return 0, services.Wrap(services.ErrPayment, "payments", "topup", "await settlement", ErrConfirmTimeout)
		}
		if err := s.sleep(ctx, s.pollInterval); err != nil {
			return 0, err
		}
	}
}
