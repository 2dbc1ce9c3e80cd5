package session

import (
	"strings"
	"time"
)

// DefaultTokenTTL is the lifetime of an issued session token.
const DefaultTokenTTL = 24 * time.Hour

// Config defines the session subsystem's runtime configuration.
type Config struct {
	// Issuer is written to the "iss" claim. It is not required on verify,
	// so tokens minted without one remain valid.
	Issuer string

	// TokenTTL is added to the issue time to form "exp".
	TokenTTL time.Duration

	// Secret is the HMAC-SHA256 signing key. Required.
	Secret []byte
}

// DefaultConfig returns the defaults without a secret.
func DefaultConfig() Config {
	return Config{
		Issuer:   "accountsd",
		TokenTTL: DefaultTokenTTL,
	}
}

// Validate returns ErrConfig when the secret is empty or the TTL is not positive.
func (c Config) Validate() error {
	if len(strings.TrimSpace(string(c.Secret))) == 0 {
		return ErrConfig
	}
	if c.TokenTTL <= 0 {
		return ErrConfig
	}
	return nil
}
