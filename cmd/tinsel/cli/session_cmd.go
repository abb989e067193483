package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to a Tinsel server",
		Long:  "Exchange the access password for a session token and persist it for later commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, password)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Access password (prompted when omitted)")

	return cmd
}

func runLogin(cmd *cobra.Command, password string) error {
	if password == "" {
		fmt.Print("Access password: ")
		pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Println()
		password = string(pwBytes)
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	sm, err := newSession()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	if err := sm.Login(ctx, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Signed in. Session valid until %s.\n",
		sm.Expiry().Format(time.RFC1123))
	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, err := newSession()
			if err != nil {
				return err
			}
			if err := sm.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, err := newSession()
			if err != nil {
				return err
			}
			if !sm.Authenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in. Run: tinsel login")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in. Session valid until %s (%s left).\n",
				sm.Expiry().Format(time.RFC1123),
				time.Until(sm.Expiry()).Round(time.Minute))
			return nil
		},
	}
}
