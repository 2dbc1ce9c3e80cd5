package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	mongoAccountsCollection = "accounts"
	mongoDefaultDBName      = "accounts"
)

// MongoStore implements Store over a MongoDB "accounts" collection.
// It owns its client and disconnects it on Close.
type MongoStore struct {
	client   *mongodriver.Client
	accounts *mongodriver.Collection
}

type mongoAccount struct {
	ID           string    `bson:"id"`
	Username     string    `bson:"username"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (d mongoAccount) account() Account {
	return Account{
		ID:           d.ID,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

// NewMongoStore connects to uri, pings the primary and ensures indexes.
// The database name comes from the URI path, defaulting to "accounts".
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, fmt.Errorf("identity: empty mongo uri")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &MongoStore{
		client:   cli,
		accounts: cli.Database(mongoDatabaseFromURI(uri)).Collection(mongoAccountsCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// ensureIndexes creates:
//   - a unique index on email (the login key)
//   - a unique index on id (lookups and deletes)
//   - created_at + id for listing order
func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	models := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uq_accounts_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("uq_accounts_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}, {Key: "id", Value: 1}},
			Options: options.Index().SetName("accounts_created_asc"),
		},
	}

	if _, err := s.accounts.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (Account, error) {
	return s.findOne(ctx, "identity.FindByEmail", bson.M{"email": NormalizeEmail(email)})
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (Account, error) {
	return s.findOne(ctx, "identity.FindByID", bson.M{"id": strings.TrimSpace(id)})
}

func (s *MongoStore) findOne(ctx context.Context, op string, filter bson.M) (Account, error) {
	var doc mongoAccount
	err := s.accounts.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return Account{}, notFound(op)
		}
		return Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return doc.account(), nil
}

func (s *MongoStore) Insert(ctx context.Context, in NewAccountInput) (Account, error) {
	const op = "identity.Insert"

	acc, err := prepareInsert(op, in)
	if err != nil {
		return Account{}, err
	}

	_, err = s.accounts.InsertOne(ctx, mongoAccount{
		ID:           acc.ID,
		Username:     acc.Username,
		Email:        acc.Email,
		PasswordHash: acc.PasswordHash,
		CreatedAt:    acc.CreatedAt,
	})
	if err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return Account{}, emailTaken(op)
		}
		return Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	const op = "identity.Delete"

	res, err := s.accounts.DeleteOne(ctx, bson.M{"id": strings.TrimSpace(id)})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.DeletedCount == 0 {
		return notFound(op)
	}
	return nil
}

func (s *MongoStore) ListAll(ctx context.Context) ([]Account, error) {
	const op = "identity.ListAll"

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "id", Value: 1}})
	cur, err := s.accounts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = cur.Close(ctx) }()

	out := make([]Account, 0)
	for cur.Next(ctx) {
		var doc mongoAccount
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}
		out = append(out, doc.account())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// mongoDatabaseFromURI extracts the database name from the URI path.
func mongoDatabaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return mongoDefaultDBName
}
