package auth

import (
	"fmt"
	"os"

	"halomcp/internal/credfile"
)

// Environment variable names for credential overrides. They take precedence
// over the credential file at load time only, never at runtime.
const (
	EnvAuthToken     = "HALO_AUTH_TOKEN"
	EnvContextToken  = "HALO_CONTEXT_TOKEN"
	EnvTransactionID = "HALO_TRANSACTION_ID"
)

// ResolveRecord loads the durable credential record and applies environment
// overrides, returning the initial CredentialSet and optional SessionHandle.
// A missing context token falls back to the auth token — some Halo tenants
// issue a single combined token.
func ResolveRecord(path string) (CredentialSet, *SessionHandle, error) {
	rec, err := credfile.Load(path)
	if err != nil {
		return CredentialSet{}, nil, err
	}

	creds := CredentialSet{}

	var session *SessionHandle

	if rec != nil {
		creds = CredentialSet{
			AccessToken:   rec.AccessToken,
			ContextToken:  rec.ContextToken,
			TransactionID: rec.TransactionID,
		}

		if len(rec.SessionCookies) > 0 {
			session = &SessionHandle{
				Cookies:   rec.SessionCookies,
				ExpiresAt: rec.SessionExpires,
			}
		}
	}

	if v := os.Getenv(EnvAuthToken); v != "" {
		creds.AccessToken = v
	}

	if v := os.Getenv(EnvContextToken); v != "" {
		creds.ContextToken = v
	}

	if v := os.Getenv(EnvTransactionID); v != "" {
		creds.TransactionID = v
	}

	if creds.AccessToken == "" {
		return CredentialSet{}, nil, fmt.Errorf(
			"auth: no auth token found: set %s or create %s", EnvAuthToken, path)
	}

	if creds.ContextToken == "" {
		creds.ContextToken = creds.AccessToken
	}

	return creds, session, nil
}
