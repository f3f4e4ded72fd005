package auth

import (
	"fmt"
	"log/slog"
	"sync"

	"halomcp/internal/credfile"
)

// Store provides thread-safe access to the current CredentialSet and the
// optional SessionHandle, mirrored to the durable credential record. Every
// successful replace persists before the in-memory value is updated, so
// store and memory never diverge: a failed disk write leaves the old
// credentials in effect everywhere.
type Store struct {
	path   string // immutable after construction
	logger *slog.Logger

	// saveMu serializes persist-then-commit cycles so two writers cannot
	// interleave their file writes and memory swaps.
	saveMu sync.Mutex

	// mu guards the snapshots. Readers only ever hold it for a copy, never
	// across a disk or network operation.
	mu      sync.RWMutex
	creds   CredentialSet
	session *SessionHandle
}

// NewStore creates a Store seeded with the initial values resolved at
// startup (credential file plus environment overrides).
func NewStore(path string, creds CredentialSet, session *SessionHandle, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		path:    path,
		logger:  logger,
		creds:   creds,
		session: session,
	}
}

// Path returns the durable record path. Thread-safe without locking because
// the path is immutable after construction.
func (s *Store) Path() string {
	return s.path
}

// Current returns the latest committed CredentialSet. Never blocks on I/O.
func (s *Store) Current() CredentialSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.creds
}

// Session returns a copy of the current SessionHandle and whether a usable
// one is on record.
func (s *Store) Session() (SessionHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil || !s.session.Usable() {
		return SessionHandle{}, false
	}

	cookies := make(map[string]string, len(s.session.Cookies))
	for k, v := range s.session.Cookies {
		cookies[k] = v
	}

	return SessionHandle{Cookies: cookies, ExpiresAt: s.session.ExpiresAt}, true
}

// Replace persists the new CredentialSet (keeping the current session) and
// then commits it in memory. On a persistence failure the in-memory value is
// NOT updated.
func (s *Store) Replace(creds CredentialSet) error {
	return s.commit(creds, nil, false)
}

// ReplaceSession persists a new SessionHandle together with the given
// CredentialSet (session establishment returns fresher tokens alongside the
// cookies) and commits both in memory.
func (s *Store) ReplaceSession(creds CredentialSet, session SessionHandle) error {
	return s.commit(creds, &session, true)
}

// commit writes the durable record first, then swaps the in-memory
// snapshots. withSession selects whether session replaces the stored handle
// or the current one is carried over.
func (s *Store) commit(creds CredentialSet, session *SessionHandle, withSession bool) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	next := session
	if !withSession {
		s.mu.RLock()
		next = s.session
		s.mu.RUnlock()
	}

	rec := &credfile.Record{
		AccessToken:   creds.AccessToken,
		ContextToken:  creds.ContextToken,
		TransactionID: creds.TransactionID,
	}
	if next != nil {
		rec.SessionCookies = next.Cookies
		rec.SessionExpires = next.ExpiresAt
	}

	if err := credfile.Save(s.path, rec); err != nil {
		s.logger.Warn("credential record write failed, keeping previous credentials",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)

		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.mu.Lock()
	s.creds = creds
	s.session = next
	s.mu.Unlock()

	s.logger.Debug("credential record committed",
		slog.String("path", s.path),
		slog.Bool("session_present", next != nil),
	)

	return nil
}

// Reload re-reads the durable record and environment overrides, replacing
// the in-memory values unconditionally. Used for manual hot-reload after the
// user edits the credential file.
func (s *Store) Reload() (CredentialSet, error) {
	// Hold saveMu across the read and the swap so a reload cannot land
	// between a commit's disk write and its memory swap, resurrecting the
	// snapshot the commit just replaced.
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	creds, session, err := ResolveRecord(s.path)
	if err != nil {
		return CredentialSet{}, err
	}

	s.mu.Lock()
	s.creds = creds
	s.session = session
	s.mu.Unlock()

	s.logger.Info("credentials reloaded from store",
		slog.String("path", s.path),
		slog.Bool("session_present", session != nil),
	)

	return creds, nil
}
