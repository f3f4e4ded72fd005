package credfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileNotFound(t *testing.T) {
	rec, err := Load("/nonexistent/path/credentials.json")
	assert.Nil(t, rec)
	assert.NoError(t, err)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	expires := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	original := &Record{
		AccessToken:   "access-123",
		ContextToken:  "context-456",
		TransactionID: "tenant-user",
		SessionCookies: map[string]string{
			"__Secure-next-auth.session-token": "cookie-value",
			"__Host-next-auth.csrf-token":      "csrf-value",
		},
		SessionExpires: expires,
	}

	require.NoError(t, Save(path, original))

	rec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "access-123", rec.AccessToken)
	assert.Equal(t, "context-456", rec.ContextToken)
	assert.Equal(t, "tenant-user", rec.TransactionID)
	assert.Equal(t, "cookie-value", rec.SessionCookies["__Secure-next-auth.session-token"])
	assert.True(t, rec.SessionExpires.Equal(expires))
}

func TestLoad_MissingAccessToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	require.NoError(t, os.WriteFile(path, []byte(`{"contextToken":"c"}`), 0o600))

	rec, err := Load(path)
	assert.Nil(t, rec)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing accessToken")
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	require.NoError(t, os.WriteFile(path, []byte(`{not json}`), 0o600))

	rec, err := Load(path)
	assert.Nil(t, rec)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "decoding")
}

func TestSave_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	require.NoError(t, Save(path, &Record{AccessToken: "a", ContextToken: "c"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePerms), info.Mode().Perm())
}

func TestSave_CreatesParentDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "credentials.json")

	require.NoError(t, Save(path, &Record{AccessToken: "a", ContextToken: "c"}))

	rec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "a", rec.AccessToken)
}

func TestSave_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	require.NoError(t, Save(path, &Record{AccessToken: "a", ContextToken: "c"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "credentials.json", entries[0].Name())
}
