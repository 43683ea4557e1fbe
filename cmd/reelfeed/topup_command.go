package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"reelfeed/internal/app"
	"reelfeed/internal/payments"
	"reelfeed/internal/telemetry"
)

func newTopupCommand(ctx *commandContext) *cobra.Command {
	var packID string
	var method string
	var listPacks bool

	cmd := &cobra.Command{
		Use:   "topup",
		Short: "Buy coins with Stripe or Solana",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listPacks {
				return printPacks(cmd)
			}
			return ctx.withEngine(cmd, func(cctx context.Context, engine *app.Engine) error {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				if packID == "" {
					packID = cfg.Payments.DefaultPack
				}
				pack, ok := payments.FindPack(packID)
				if !ok {
					return fmt.Errorf("unknown pack %q (see reelfeed topup --list)", packID)
				}

				out := cmd.OutOrStdout()
				switch strings.ToLower(method) {
				case "stripe":
					url, err := engine.Payments().CheckoutURL(cctx, pack.ID)
					if err != nil {
						return err
					}
					recordPurchaseInitiated(cctx, engine, pack.ID, "stripe")
					fmt.Fprintf(out, "Open this checkout link to buy %s:\n%s\n", formatCoins(pack.Coins), url)
					fmt.Fprintln(out, "Coins are credited once the payment completes.")
					return nil
				case "solana":
					balance, err := runSolanaTopup(cctx, engine, pack.ID, cmd.InOrStdin(), out)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Payment confirmed. Balance: %s\n", formatCoins(balance))
					return nil
				default:
					return fmt.Errorf("unknown payment method %q (stripe or solana)", method)
				}
			})
		},
	}

	cmd.Flags().StringVar(&packID, "pack", "", "Coin pack id (defaults to the configured pack)")
	cmd.Flags().StringVar(&method, "method", "stripe", "Payment method: stripe or solana")
	cmd.Flags().BoolVar(&listPacks, "list", false, "List available coin packs")
	return cmd
}

func printPacks(cmd *cobra.Command) error {
	rows := make([][]string, 0)
	for _, pack := range payments.Packs() {
		rows = append(rows, []string{
			pack.ID,
			formatCoins(pack.Coins),
			fmt.Sprintf("$%d.%02d", pack.USDCents/100, pack.USDCents%100),
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"PACK", "COINS", "PRICE"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
		isTerminal(out),
	))
	return nil
}

// runSolanaTopup walks the wallet transfer for one pack and persists the
// credited balance. Both topup and the unlock detour use it.
func runSolanaTopup(ctx context.Context, engine *app.Engine, packID string, in io.Reader, out io.Writer) (int, error) {
	signer := newPromptSigner(in, out)
	recordPurchaseInitiated(ctx, engine, packID, "solana")
	balance, err := engine.Payments().TopUpSolana(ctx, packID, signer)
	if err != nil {
		return 0, err
	}
	if err := engine.Sessions().SetBalance(balance); err != nil {
		return 0, fmt.Errorf("persist balance: %w", err)
	}
	return balance, nil
}

func recordPurchaseInitiated(ctx context.Context, engine *app.Engine, packID, method string) {
	_ = engine.Telemetry().Record(ctx, telemetry.EventPurchaseInitiated, map[string]any{
		"packId": packID,
		"method": method,
	})
}

// promptSigner walks the user through an external wallet transfer and reads
// back the transaction signature. The client never touches key material.
type promptSigner struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptSigner(in io.Reader, out io.Writer) *promptSigner {
	return &promptSigner{in: bufio.NewReader(in), out: out}
}

func (s *promptSigner) PublicKey() string { return "" }

func (s *promptSigner) Transfer(_ context.Context, destination string, lamports uint64, memo string) (string, error) {
	fmt.Fprintln(s.out, "Send the following transfer from your wallet:")
	fmt.Fprintf(s.out, "  Destination: %s\n", destination)
	fmt.Fprintf(s.out, "  Lamports:    %d\n", lamports)
	if memo != "" {
		fmt.Fprintf(s.out, "  Memo:        %s\n", memo)
	}
	fmt.Fprint(s.out, "Transaction signature: ")
	line, err := s.in.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read signature: %w", err)
	}
	signature := strings.TrimSpace(line)
	if signature == "" {
		return "", fmt.Errorf("transaction signature is required")
	}
	return signature, nil
}
