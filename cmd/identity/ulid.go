package identity

import (
	"time"

	"accountsd/cmd/identity/ids"
)

// NewAccountID returns a new account id (26-char ULID).
func NewAccountID(now time.Time) (string, error) {
	return ids.NewULID(now)
}
