package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelfeed/internal/app"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var email string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(cctx context.Context, engine *app.Engine) error {
				resolvedEmail, resolvedPassword, err := resolveCredentials(cmd, email, password)
				if err != nil {
					return err
				}
				sess, err := engine.Sessions().Login(cctx, resolvedEmail, resolvedPassword)
				if err != nil {
					return fmt.Errorf("login: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", sess.Email, formatCoins(sess.Balance))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	return cmd
}

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var email string
	var password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(cctx context.Context, engine *app.Engine) error {
				resolvedEmail, resolvedPassword, err := resolveCredentials(cmd, email, password)
				if err != nil {
					return err
				}
				sess, err := engine.Sessions().Register(cctx, resolvedEmail, resolvedPassword)
				if err != nil {
					return fmt.Errorf("register: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s\n", sess.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	return cmd
}

func resolveCredentials(cmd *cobra.Command, email, password string) (string, string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", "", errors.New("--email is required")
	}
	if password == "" {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return "", "", errors.New("password must not be empty")
	}
	return email, password, nil
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(cctx context.Context, engine *app.Engine) error {
				if err := engine.Sessions().Logout(); err != nil {
					return fmt.Errorf("logout: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(cctx context.Context, engine *app.Engine) error {
				sess, ok := engine.Sessions().Current()
				if jsonOutput {
					return writeJSON(cmd, map[string]any{
						"signedIn":      ok,
						"userId":        sess.UserID,
						"email":         sess.Email,
						"guest":         sess.Guest,
						"authenticated": sess.Authenticated,
						"balance":       sess.Balance,
					})
				}
				out := cmd.OutOrStdout()
				if !ok {
					fmt.Fprintln(out, "No active session")
					return nil
				}
				if sess.Guest {
					fmt.Fprintf(out, "Guest session (user %s)\n", sess.UserID)
					return nil
				}
				fmt.Fprintf(out, "Signed in as %s\n", sess.Email)
				fmt.Fprintf(out, "Balance: %s\n", formatCoins(sess.Balance))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}
