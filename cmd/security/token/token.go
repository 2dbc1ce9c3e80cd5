package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

const (
	// SecretEnvKey is the primary env var holding the signing secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	SecretEnvKey = "ACCOUNTS_JWT_SECRET"

	// LegacySecretEnvKey is read when SecretEnvKey is unset.
	// #nosec G101 -- not a credential; it's an environment variable name.
	LegacySecretEnvKey = "JWT_SECRET"

	// StrongSecretMinBytes is the minimum enforced under the strong-secret policy.
	StrongSecretMinBytes = 32
)

// Secret is raw signing key material. Its String form never reveals the bytes.
type Secret []byte

func (s Secret) String() string { return "[redacted]" }

// KeyID is a short, stable, non-reversible identifier for logs: the first
// 8 bytes of HMAC-SHA256("key-id", secret), hex encoded.
func (s Secret) KeyID() string {
	m := hmac.New(sha256.New, s)
	_, _ = m.Write([]byte("key-id"))
	return hex.EncodeToString(m.Sum(nil)[:8])
}

// ParseSecret trims raw and enforces presence and a minimum byte length
// (minBytes <= 0 only checks presence). Bytes are measured, not runes.
func ParseSecret(raw string, minBytes int) (Secret, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrSecretMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrSecretTooShort
	}
	return Secret(b), nil
}

// SecretFromEnv resolves the secret from SecretEnvKey, then LegacySecretEnvKey.
func SecretFromEnv(minBytes int) (Secret, error) {
	raw := os.Getenv(SecretEnvKey)
	if strings.TrimSpace(raw) == "" {
		raw = os.Getenv(LegacySecretEnvKey)
	}
	return ParseSecret(raw, minBytes)
}
