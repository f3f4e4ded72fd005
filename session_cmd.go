package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// newSessionCmd builds the session command, which establishes the browser
// session used for token renewal and persists its cookies.
func newSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Establish a renewal session from the stored tokens",
		Long: "Exchange the stored auth tokens for portal session cookies and persist them.\n" +
			"With a session on file, expired tokens renew automatically.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger()

			a, err := buildApp(logger, false)
			if err != nil {
				return err
			}
			defer a.close()

			handle, err := a.registry.Establish(cmd.Context(), a.store.Current())
			if err != nil {
				return err
			}

			statusf("Session established and saved to %s\n", a.store.Path())
			if !handle.ExpiresAt.IsZero() {
				statusf("Session expires %s\n", handle.ExpiresAt.Local().Format(time.RFC1123))
			}

			return nil
		},
	}
}

// newRefreshCmd builds the refresh command, which forces one credential
// renewal through the stored session.
func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Renew the stored tokens now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger()

			a, err := buildApp(logger, false)
			if err != nil {
				return err
			}
			defer a.close()

			if _, err := a.coordinator.Refresh(cmd.Context()); err != nil {
				return err
			}

			statusf("Tokens renewed and saved to %s\n", a.store.Path())

			return nil
		},
	}
}

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
