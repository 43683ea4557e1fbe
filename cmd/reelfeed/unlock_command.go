package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelfeed/internal/app"
	"reelfeed/internal/catalog"
	"reelfeed/internal/payments"
	"reelfeed/internal/unlock"
)

func newUnlockCommand(ctx *commandContext) *cobra.Command {
	var topup bool
	var packID string

	cmd := &cobra.Command{
		Use:   "unlock <story-id> <episode>",
		Short: "Unlock a paywalled episode with coins",
		Long: "Unlock a paywalled episode. The episode may be given by sequence number or id.\n" +
			"With --topup, a Solana coin purchase runs in place when the balance is short\n" +
			"and the unlock is retried right after it confirms.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(cctx context.Context, engine *app.Engine) error {
				view, err := engine.LoadStory(cctx, args[0])
				if err != nil {
					return fmt.Errorf("load story: %w", err)
				}
				episode, err := findEpisode(view.Episodes, args[1])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !catalog.Locked(episode, view.Story.FreeEpisodes, view.Unlocked) {
					fmt.Fprintf(out, "Episode %d is already watchable\n", episode.Sequence)
					return nil
				}

				status, err := engine.UnlockEpisode(cctx, view, episode)
				if errors.Is(err, unlock.ErrSignInRequired) {
					return errors.New("sign in before unlocking: reelfeed login --email <email>")
				}
				if err != nil {
					return fmt.Errorf("unlock: %w", err)
				}
				switch status {
				case unlock.StatusUnlocked:
					sess, _ := engine.Sessions().Current()
					fmt.Fprintf(out, "Unlocked episode %d (%s left)\n", episode.Sequence, formatCoins(sess.Balance))
				case unlock.StatusPurchaseRequired:
					sess, _ := engine.Sessions().Current()
					fmt.Fprintf(out, "Not enough coins: need %s, have %s\n",
						formatCoins(episode.UnlockCost()), formatCoins(sess.Balance))
					if !topup {
						fmt.Fprintln(out, "Top up with: reelfeed topup, or rerun with --topup to pay now")
						return nil
					}
					return runUnlockTopup(cctx, cmd, ctx, engine, view, packID)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&topup, "topup", false, "Buy coins via Solana when the balance is short, then retry the unlock")
	cmd.Flags().StringVar(&packID, "pack", "", "Coin pack id for --topup (defaults to the configured pack)")
	return cmd
}

// runUnlockTopup runs the in-session purchase detour: buy a coin pack, then
// retry the unlock that was left pending.
func runUnlockTopup(cctx context.Context, cmd *cobra.Command, cmdCtx *commandContext, engine *app.Engine, view *app.StoryView, packID string) error {
	cfg, err := cmdCtx.ensureConfig()
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
	balance, err := runSolanaTopup(cctx, engine, pack.ID, cmd.InOrStdin(), out)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Payment confirmed. Balance: %s\n", formatCoins(balance))

	status, retried, err := engine.ResumePendingUnlock(cctx, view)
	if err != nil {
		return fmt.Errorf("unlock after top-up: %w", err)
	}
	if !retried {
		return nil
	}
	switch status {
	case unlock.StatusUnlocked:
		sess, _ := engine.Sessions().Current()
		fmt.Fprintf(out, "Unlocked (%s left)\n", formatCoins(sess.Balance))
	case unlock.StatusPurchaseRequired:
		sess, _ := engine.Sessions().Current()
		fmt.Fprintf(out, "Still not enough coins after the purchase (have %s)\n", formatCoins(sess.Balance))
	}
	return nil
}

func findEpisode(episodes []catalog.Episode, ref string) (catalog.Episode, error) {
	if seq, err := strconv.Atoi(ref); err == nil {
		for _, ep := range episodes {
			if ep.Sequence == seq {
				return ep, nil
			}
		}
		return catalog.Episode{}, fmt.Errorf("episode %d not found (story has %d episodes)", seq, len(episodes))
	}
	for _, ep := range episodes {
		if ep.ID == ref {
			return ep, nil
		}
	}
	return catalog.Episode{}, fmt.Errorf("episode %q not found", ref)
}
