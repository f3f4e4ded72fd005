package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"halomcp/internal/auth"
	"halomcp/internal/mcptools"
)

// newServeCmd builds the serve command, which runs the MCP server until the
// client disconnects or the process is signalled.
func newServeCmd() *cobra.Command {
	var flagTransport string
	var flagListen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long:  "Run the MCP server over stdio (for assistant integration) or streamable HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flagTransport != "" {
				resolvedCfg.Server.Transport = flagTransport
			}

			if flagListen != "" {
				resolvedCfg.Server.Listen = flagListen
			}

			return runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&flagTransport, "transport", "", "MCP transport: stdio or http (default from config)")
	cmd.Flags().StringVar(&flagListen, "listen", "", "host:port for the http transport (default from config)")

	return cmd
}

func runServe(parent context.Context) error {
	logger := buildLogger()

	a, err := buildApp(logger, true)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Establish a browser session up front so expired tokens renew without
	// operator action. Failure is not fatal: environment-only setups still
	// work until the token expires.
	if resolvedCfg.Session.AutoEstablish {
		establishStartupSession(ctx, a)
	}

	if resolvedCfg.Session.WatchCredentials {
		go func() {
			if err := auth.WatchRecord(ctx, a.store, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("credential file watcher stopped", "error", err)
			}
		}()
	}

	// SIGHUP forces a credential reload, for setups where the watcher is
	// disabled or the file lives on a filesystem without change events.
	go reloadOnHUP(ctx, a)

	srv := mcptools.New(mcptools.Deps{
		API:       a.client,
		Uploader:  a.submitter,
		Store:     a.store,
		Refresher: a.coordinator,
		Sessions:  a.registry,
		Cache:     a.cache,
		Logger:    logger,
	})

	if resolvedCfg.Server.Transport == "http" {
		return srv.ServeHTTP(ctx, resolvedCfg.Server.Listen)
	}

	return srv.ServeStdio()
}

// reloadOnHUP re-reads the credential file whenever the process receives
// SIGHUP.
func reloadOnHUP(ctx context.Context, a *app) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if _, err := a.store.Reload(); err != nil {
				a.logger.Warn("credential reload on SIGHUP failed", "error", err)
				continue
			}
			a.logger.Info("credentials reloaded on SIGHUP")
		}
	}
}

// establishStartupSession creates the renewal session from the stored tokens.
// An already-usable persisted session is kept as is.
func establishStartupSession(ctx context.Context, a *app) {
	if _, ok := a.store.Session(); ok {
		a.logger.Debug("reusing persisted session cookies")
		return
	}

	if _, err := a.registry.Establish(ctx, a.store.Current()); err != nil {
		a.logger.Warn("could not establish renewal session, tokens will not self-renew",
			"error", err)
		return
	}

	a.logger.Info("renewal session established")
}
