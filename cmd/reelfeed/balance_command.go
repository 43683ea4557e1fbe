package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"reelfeed/internal/app"
)

func newBalanceCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the coin balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(cctx context.Context, engine *app.Engine) error {
				info, err := engine.API().Balance(cctx)
				if err != nil {
					return fmt.Errorf("fetch balance: %w", err)
				}
				if err := engine.Sessions().SetBalance(info.Balance); err != nil {
					return fmt.Errorf("persist balance: %w", err)
				}
				if jsonOutput {
					return writeJSON(cmd, info)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Balance: %s\n", formatCoins(info.Balance))
				if info.DailyEarned > 0 || info.DailySpent > 0 {
					fmt.Fprintf(out, "Today: +%d earned, -%d spent\n", info.DailyEarned, info.DailySpent)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}
