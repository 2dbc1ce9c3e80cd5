package identity

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInput(username, email string, now time.Time) NewAccountInput {
	return NewAccountInput{
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=8,t=1,p=1$c2FsdA$a2V5",
		Now:          now,
	}
}

func TestMemoryStore_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	acc, err := s.Insert(ctx, newInput(" alice ", " A@X.com ", time.Now()))
	require.NoError(t, err)
	assert.Len(t, acc.ID, 26)
	assert.Equal(t, "alice", acc.Username)
	assert.Equal(t, "a@x.com", acc.Email)

	byEmail, err := s.FindByEmail(ctx, "a@X.COM")
	require.NoError(t, err)
	assert.Equal(t, acc, byEmail)

	byID, err := s.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc, byID)
}

func TestMemoryStore_DuplicateEmailConflicts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Insert(ctx, newInput("alice", "a@x.com", time.Now()))
	require.NoError(t, err)

	_, err = s.Insert(ctx, newInput("alice2", "A@x.com", time.Now()))
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	var ce ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "email", ce.Field)
}

func TestMemoryStore_ConcurrentDuplicateInsertsOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Insert(ctx, newInput(fmt.Sprintf("user%d", i), "same@x.com", time.Now()))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, IsConflict(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, ok)
}

func TestMemoryStore_Missing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.FindByEmail(ctx, "nobody@x.com")
	assert.True(t, IsNotFound(err))

	_, err = s.FindByID(ctx, "01HZZZZZZZZZZZZZZZZZZZZZZZ")
	assert.True(t, IsNotFound(err))

	assert.True(t, IsNotFound(s.Delete(ctx, "missing")))
}

func TestMemoryStore_DeleteFreesEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	acc, err := s.Insert(ctx, newInput("alice", "a@x.com", time.Now()))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, acc.ID))

	_, err = s.FindByID(ctx, acc.ID)
	assert.True(t, IsNotFound(err))

	_, err = s.Insert(ctx, newInput("alice", "a@x.com", time.Now()))
	assert.NoError(t, err)
}

func TestMemoryStore_ListAllCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c, err := s.Insert(ctx, newInput("carol", "c@x.com", base.Add(2*time.Second)))
	require.NoError(t, err)
	a, err := s.Insert(ctx, newInput("alice", "a@x.com", base))
	require.NoError(t, err)
	b, err := s.Insert(ctx, newInput("bob", "b@x.com", base.Add(time.Second)))
	require.NoError(t, err)

	got, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestMemoryStore_InsertValidation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	cases := []NewAccountInput{
		{Username: "", Email: "a@x.com", PasswordHash: "h"},
		{Username: "alice", Email: "  ", PasswordHash: "h"},
		{Username: "alice", Email: "a@x.com", PasswordHash: ""},
	}
	for _, in := range cases {
		_, err := s.Insert(ctx, in)
		assert.True(t, IsInvalidInput(err), "input %+v: %v", in, err)
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	_, err := s.ListAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Ping(ctx), context.Canceled)
}
