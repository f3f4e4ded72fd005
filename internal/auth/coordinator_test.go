package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCoordinatorFixture(t *testing.T, handler http.Handler, withSession bool) (*Coordinator, *Store) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var session *SessionHandle
	if withSession {
		session = &SessionHandle{
			Cookies: map[string]string{"__Secure-next-auth.session-token": "cookie"},
		}
	}

	store := NewStore(filepath.Join(t.TempDir(), "credentials.json"), CredentialSet{
		AccessToken:  "stale-access",
		ContextToken: "stale-context",
	}, session, testLogger())

	registry := NewRegistry(srv.URL, srv.Client(), store, testLogger())

	return NewCoordinator(registry, store, testLogger()), store
}

func renewHandler(calls *atomic.Int32, release <-chan struct{}) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/session", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)

		if release != nil {
			<-release
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"userId":       "user-1",
			"authToken":    "renewed-access",
			"contextToken": "renewed-context",
		})
	})

	return mux
}

func TestRefresh_NoSessionShortCircuits(t *testing.T) {
	var calls atomic.Int32

	coord, _ := newCoordinatorFixture(t, renewHandler(&calls, nil), false)

	_, err := coord.Refresh(t.Context())
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NotEmpty(t, RemediationFor(err))

	// No network call reached the renewal endpoint.
	assert.Equal(t, int32(0), calls.Load())
}

func TestRefresh_RenewsAndPersists(t *testing.T) {
	var calls atomic.Int32

	coord, store := newCoordinatorFixture(t, renewHandler(&calls, nil), true)

	creds, err := coord.Refresh(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "renewed-access", creds.AccessToken)
	assert.Equal(t, "renewed-access", store.Current().AccessToken)
	assert.Equal(t, int32(1), calls.Load())
}

// The single-flight property: concurrent refreshes collapse onto one renewal
// request, and every caller receives the same outcome.
func TestRefresh_SingleFlight(t *testing.T) {
	var calls atomic.Int32

	release := make(chan struct{})
	coord, _ := newCoordinatorFixture(t, renewHandler(&calls, release), true)

	const callers = 10

	results := make([]CredentialSet, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup

	for i := range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i], errs[i] = coord.Refresh(t.Context())
		}()
	}

	// Let every caller reach the coordinator before the renewal completes.
	time.Sleep(300 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "renewal endpoint must be hit exactly once")

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "renewed-access", results[i].AccessToken)
	}
}

// After a completed renewal the coordinator is idle again: a later expiry
// starts a fresh cycle rather than reusing the previous result.
func TestRefresh_SequentialCyclesAreIndependent(t *testing.T) {
	var calls atomic.Int32

	coord, _ := newCoordinatorFixture(t, renewHandler(&calls, nil), true)

	_, err := coord.Refresh(t.Context())
	require.NoError(t, err)

	_, err = coord.Refresh(t.Context())
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestRefresh_SharedFailure(t *testing.T) {
	mux := http.NewServeMux()

	var calls atomic.Int32

	mux.HandleFunc("GET /api/auth/session", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"userId": ""})
	})

	coord, store := newCoordinatorFixture(t, mux, true)

	_, err := coord.Refresh(t.Context())
	assert.ErrorIs(t, err, ErrSessionExpired)

	// Store untouched by the failed renewal.
	assert.Equal(t, "stale-access", store.Current().AccessToken)
}
