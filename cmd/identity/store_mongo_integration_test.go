package identity

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Integration tests are opt-in: ACCOUNTS_TEST_INTEGRATION=1 starts a MongoDB
// container once for the package. Without it they skip.

const mongoTestTimeout = 15 * time.Second

var mongoTestURI string

func TestMain(m *testing.M) {
	if os.Getenv("ACCOUNTS_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7.0",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}
	mongoTestURI = fmt.Sprintf("mongodb://%s:%s", host, port.Port())

	code := m.Run()

	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

func mustNewMongoStore(t *testing.T) *MongoStore {
	t.Helper()
	if mongoTestURI == "" {
		t.Skip("ACCOUNTS_TEST_INTEGRATION not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoTestTimeout)
	defer cancel()

	db := "accounts_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	s, err := NewMongoStore(ctx, mongoTestURI+"/"+db)
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), mongoTestTimeout)
		defer cancel()
		_ = s.accounts.Database().Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func TestMongoStore_RoundTrip(t *testing.T) {
	s := mustNewMongoStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), mongoTestTimeout)
	defer cancel()

	base := time.Now().UTC()
	a, err := s.Insert(ctx, newInput("alice", "a@x.com", base))
	if err != nil {
		t.Fatalf("insert alice: %v", err)
	}
	b, err := s.Insert(ctx, newInput("bob", "b@x.com", base.Add(time.Second)))
	if err != nil {
		t.Fatalf("insert bob: %v", err)
	}

	got, err := s.FindByEmail(ctx, "A@X.COM")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if got != a {
		t.Fatalf("FindByEmail=%+v want %+v", got, a)
	}

	list, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("unexpected list order: %+v", list)
	}

	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, a.ID); !IsNotFound(err) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
	if _, err := s.FindByID(ctx, a.ID); !IsNotFound(err) {
		t.Fatalf("FindByID after delete: expected not found, got %v", err)
	}
}

func TestMongoStore_DuplicateEmailConflicts(t *testing.T) {
	s := mustNewMongoStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), mongoTestTimeout)
	defer cancel()

	if _, err := s.Insert(ctx, newInput("alice", "a@x.com", time.Now())); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err := s.Insert(ctx, newInput("mallory", "A@x.com ", time.Now()))
	if !IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestMongoDatabaseFromURI(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"mongodb://localhost:27017":     "accounts",
		"mongodb://localhost:27017/":    "accounts",
		"mongodb://localhost:27017/dir": "dir",
	}
	for in, want := range cases {
		if got := mongoDatabaseFromURI(in); got != want {
			t.Fatalf("mongoDatabaseFromURI(%q)=%q want %q", in, got, want)
		}
	}
}
