// Package credfile handles reading and writing the durable credential record.
// The record stores the short-lived Halo token pair alongside the optional
// long-lived session cookies used to mint fresh tokens. This is a leaf package
// imported by both config/ and auth/ to avoid duplication and break the
// config→auth import cycle.
package credfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FilePerms restricts credential files to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the credentials directory.
const DirPerms = 0o700

// Record is the on-disk format for the credential record. It combines the
// token pair with the optional session cookie set. The lifecycle manager is
// the sole writer; config loading only reads it for initial values.
type Record struct {
	AccessToken    string            `json:"accessToken"`
	ContextToken   string            `json:"contextToken"`
	TransactionID  string            `json:"transactionId,omitempty"`
	SessionCookies map[string]string `json:"sessionCookies,omitempty"`
	SessionExpires time.Time         `json:"sessionExpires,omitzero"`
}

// Load reads a saved credential record from disk. Returns (nil, nil) if the
// file does not exist — callers treat that as "not yet configured" rather
// than an error.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}

	if err != nil {
		return nil, fmt.Errorf("credfile: reading %s: %w", path, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("credfile: decoding %s: %w", path, err)
	}

	if rec.AccessToken == "" {
		return nil, fmt.Errorf("credfile: %s missing accessToken field", path)
	}

	return &rec, nil
}

// Save writes a credential record to disk atomically (write-to-temp + rename)
// with 0600 permissions. Never logs token values.
func Save(path string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("credfile: encoding: %w", err)
	}

	dir := filepath.Dir(path)
	if mkErr := os.MkdirAll(dir, DirPerms); mkErr != nil {
		return fmt.Errorf("credfile: creating directory %s: %w", dir, mkErr)
	}

	// Atomic write: temp file in the same directory, then rename.
	// Same directory guarantees same filesystem for rename(2).
	tmp, err := os.CreateTemp(dir, ".credentials-*.tmp")
	if err != nil {
		return fmt.Errorf("credfile: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	// Clean up temp file on any error path.
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("credfile: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("credfile: writing: %w", err)
	}

	// Flush to stable storage before rename so a power loss between close and
	// rename cannot leave an empty or partial record at the final path.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("credfile: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credfile: closing: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("credfile: renaming: %w", err)
	}

	success = true

	return nil
}
