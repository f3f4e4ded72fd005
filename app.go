package main

import (
	"fmt"
	"log/slog"

	"halomcp/internal/auth"
	"halomcp/internal/classcache"
	"halomcp/internal/halo"
)

// app holds the wired-up components shared by the subcommands.
type app struct {
	logger      *slog.Logger
	store       *auth.Store
	registry    *auth.Registry
	coordinator *auth.Coordinator
	client      *halo.Client
	submitter   *halo.Submitter
	cache       *classcache.Cache
}

// buildApp resolves credentials and constructs the full component graph.
// withCache controls whether the class cache database is opened; one-shot
// credential commands don't need it.
func buildApp(logger *slog.Logger, withCache bool) (*app, error) {
	httpClient, err := defaultHTTPClient()
	if err != nil {
		return nil, err
	}

	credsPath := resolvedCfg.CredentialsPath()

	creds, session, err := auth.ResolveRecord(credsPath)
	if err != nil {
		return nil, err
	}

	store := auth.NewStore(credsPath, creds, session, logger)
	registry := auth.NewRegistry(resolvedCfg.Portal.BaseURL, httpClient, store, logger)
	coordinator := auth.NewCoordinator(registry, store, logger)
	client := halo.NewClient(resolvedCfg.Portal.GatewayURL, resolvedCfg.Portal.BaseURL,
		httpClient, store, coordinator, logger)

	a := &app{
		logger:      logger,
		store:       store,
		registry:    registry,
		coordinator: coordinator,
		client:      client,
		submitter:   halo.NewSubmitter(client),
	}

	if withCache {
		cache, err := classcache.New(resolvedCfg.ClassCachePath(), logger)
		if err != nil {
			return nil, fmt.Errorf("opening class cache: %w", err)
		}
		a.cache = cache
	}

	return a, nil
}

// close releases resources held by the app.
func (a *app) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("closing class cache", "error", err)
		}
	}
}
