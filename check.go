package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// ANSI colors for check output, applied only on a terminal.
const (
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

// colorize wraps s in the given color when stdout is a terminal.
func colorize(color, s string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return s
	}

	return color + s + colorReset
}

// newCheckCmd builds the check command, which probes the gateway with the
// stored credentials and reports their health.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the stored credentials work",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := buildLogger()

			a, err := buildApp(logger, false)
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.client.CheckCredentials(cmd.Context())
			if err != nil {
				return err
			}

			if !report.OK {
				fmt.Printf("%s %s\n", colorize(colorRed, "FAIL"), report.Detail)
				os.Exit(1)
			}

			fmt.Printf("%s %s\n", colorize(colorGreen, "OK"), report.Detail)

			if _, ok := a.store.Session(); ok {
				fmt.Println("Renewal session: present")
			} else {
				fmt.Println("Renewal session: absent (run 'halomcp session' to enable auto-renewal)")
			}

			return nil
		},
	}
}
