package identity

import (
	"context"
	"strings"
	"time"
)

// Account is a directory entry. PasswordHash is a self-describing digest and
// must never be serialized outward.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// NewAccountInput describes an account about to be inserted.
// Email is normalized by the store; PasswordHash must already be computed.
type NewAccountInput struct {
	Username     string
	Email        string
	PasswordHash string
	Now          time.Time
}

// Store is the credential persistence boundary.
//
// Contract shared by all backends:
//   - FindByEmail / FindByID return NotFoundError when no account matches.
//   - Insert assigns the id and returns ConflictError{Field: "email"} if the
//     normalized email is already present.
//   - Delete returns NotFoundError when nothing was removed.
//   - ListAll returns accounts in creation order (created_at, then id), which
//     stays stable between calls with no intervening writes.
type Store interface {
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
	Insert(ctx context.Context, in NewAccountInput) (Account, error)
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]Account, error)

	// Ping reports whether the backend is reachable (readiness).
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// prepareInsert validates and normalizes in, and builds the record to store.
func prepareInsert(op string, in NewAccountInput) (Account, error) {
	username := NormalizeUsername(in.Username)
	email := NormalizeEmail(in.Email)

	if username == "" {
		return Account{}, invalid(op, "username is required")
	}
	if email == "" {
		return Account{}, invalid(op, "email is required")
	}
	if strings.TrimSpace(in.PasswordHash) == "" {
		return Account{}, invalid(op, "password hash is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	// Millisecond precision survives every backend round trip unchanged.
	now = now.UTC().Truncate(time.Millisecond)

	id, err := NewAccountID(now)
	if err != nil {
		return Account{}, err
	}

	return Account{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
	}, nil
}
