package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken is returned when a token fails verification for any reason.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthenticated is the single outward-facing outcome of Guard.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// Internal reasons. They are safe to log and must never reach a client.
const (
	ReasonMissing   = "missing"
	ReasonRevoked   = "revoked"
	ReasonMalformed = "malformed"
	ReasonSignature = "signature"
	ReasonExpired   = "expired"
)

// InvalidTokenError carries why a token failed verification.
type InvalidTokenError struct {
	Reason string
}

func (e InvalidTokenError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidToken, e.Reason)
}

func (e InvalidTokenError) Unwrap() error { return ErrInvalidToken }

// AuthError is returned by Guard. It always unwraps to ErrUnauthenticated.
type AuthError struct {
	Reason string
}

func (e AuthError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnauthenticated, e.Reason)
}

func (e AuthError) Unwrap() error { return ErrUnauthenticated }

// ReasonOf extracts the internal reason from an AuthError or InvalidTokenError.
func ReasonOf(err error) string {
	var ae AuthError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	var ie InvalidTokenError
	if errors.As(err, &ie) {
		return ie.Reason
	}
	return ""
}
