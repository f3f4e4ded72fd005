package auth

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// renewKey is the single-flight key — there is exactly one credential set
// per process, so all renewals collapse onto one key.
const renewKey = "renew"

// Coordinator guarantees at most one renewal cycle executes concurrently
// system-wide. Renewal is not idempotent-safe to run twice at once (each
// renewal may invalidate the token the cookie issued), so serialization is
// mandatory rather than an optimization. Callers that hit an expired token
// while a renewal is already in flight block on the shared result instead of
// starting their own.
type Coordinator struct {
	registry *Registry
	store    *Store
	logger   *slog.Logger
	group    singleflight.Group
}

// NewCoordinator creates the refresh coordinator.
func NewCoordinator(registry *Registry, store *Store, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		registry: registry,
		store:    store,
		logger:   logger,
	}
}

// Refresh performs (or joins) a single-flight token renewal and returns the
// resulting CredentialSet. With no session on record it short-circuits with
// ErrNoSession before any network call. All callers that joined an in-flight
// renewal receive the same outcome.
func (c *Coordinator) Refresh(ctx context.Context) (CredentialSet, error) {
	// Short-circuit before touching the group: without a session the renewal
	// endpoint must never be contacted.
	if _, ok := c.store.Session(); !ok {
		return CredentialSet{}, newError("refresh", ErrNoSession)
	}

	v, err, shared := c.group.Do(renewKey, func() (any, error) {
		handle, ok := c.store.Session()
		if !ok {
			return nil, newError("refresh", ErrNoSession)
		}

		return c.registry.Renew(ctx, handle)
	})

	if shared {
		c.logger.Debug("joined in-flight token renewal")
	}

	if err != nil {
		return CredentialSet{}, err
	}

	return v.(CredentialSet), nil
}
