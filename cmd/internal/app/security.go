package app

import (
	"errors"
	"fmt"

	"accountsd/cmd/security/token"
)

// LoadSigningSecret resolves the token signing secret and enforces the
// startup policy: the process refuses to start without one, and with
// ACCOUNTS_REQUIRE_STRONG_SECRET=true it must be at least 32 bytes.
func LoadSigningSecret(cfg Config) (token.Secret, error) {
	minBytes := 0
	if cfg.RequireStrongSecret {
		minBytes = token.StrongSecretMinBytes
	}

	secret, err := token.SecretFromEnv(minBytes)
	switch {
	case err == nil:
		return secret, nil
	case errors.Is(err, token.ErrSecretMissing):
		return nil, fmt.Errorf("security policy: %s must be set", token.SecretEnvKey)
	case errors.Is(err, token.ErrSecretTooShort):
		return nil, fmt.Errorf("security policy: ACCOUNTS_REQUIRE_STRONG_SECRET=true but %s is too short (min %d bytes)",
			token.SecretEnvKey, token.StrongSecretMinBytes)
	default:
		return nil, err
	}
}
