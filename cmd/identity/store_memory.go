package identity

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store used for development and tests.
// Email uniqueness is enforced under the same lock as the insert.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]Account
	byEmail map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]Account),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (Account, error) {
	const op = "identity.FindByEmail"
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return Account{}, notFound(op)
	}
	return s.byID[id], nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (Account, error) {
	const op = "identity.FindByID"
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Account{}, notFound(op)
	}
	return acc, nil
}

func (s *MemoryStore) Insert(ctx context.Context, in NewAccountInput) (Account, error) {
	const op = "identity.Insert"
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	acc, err := prepareInsert(op, in)
	if err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[acc.Email]; taken {
		return Account{}, emailTaken(op)
	}
	s.byID[acc.ID] = acc
	s.byEmail[acc.Email] = acc.ID
	return acc, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	const op = "identity.Delete"
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return notFound(op)
	}
	delete(s.byID, acc.ID)
	delete(s.byEmail, acc.Email)
	return nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	out := make([]Account, 0, len(s.byID))
	for _, acc := range s.byID {
		out = append(out, acc)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) Close(_ context.Context) error { return nil }
