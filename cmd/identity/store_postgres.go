package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// poolIface is the subset of *pgxpool.Pool the store uses (pgxmock satisfies it too).
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store over PostgreSQL.
//
// Design notes:
//   - The pgx pool is owned by the caller; Close does NOT close it.
//   - Schema identifiers are validated and quoted.
//   - Email uniqueness is enforced by uq_accounts_email; violations map to ConflictError.
type PostgresStore struct {
	pool   poolIface
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema holding the accounts table (default "public").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool poolIface, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "public",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

const pgAccountColumns = `id, username, email, password_hash, created_at`

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "accounts"}.Sanitize()
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (Account, error) {
	const op = "identity.FindByEmail"
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgAccountColumns+` FROM `+s.table()+` WHERE email = $1`,
		NormalizeEmail(email),
	)
	return pgScanOne(op, row)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Account, error) {
	const op = "identity.FindByID"
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgAccountColumns+` FROM `+s.table()+` WHERE id = $1`,
		strings.TrimSpace(id),
	)
	return pgScanOne(op, row)
}

func (s *PostgresStore) Insert(ctx context.Context, in NewAccountInput) (Account, error) {
	const op = "identity.Insert"

	acc, err := prepareInsert(op, in)
	if err != nil {
		return Account{}, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (`+pgAccountColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		acc.ID, acc.Username, acc.Email, acc.PasswordHash, acc.CreatedAt,
	)
	if err != nil {
		if pgIsUniqueViolation(err) {
			return Account{}, emailTaken(op)
		}
		return Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	const op = "identity.Delete"

	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.table()+` WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(op)
	}
	return nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Account, error) {
	const op = "identity.ListAll"

	rows, err := s.pool.Query(ctx,
		`SELECT `+pgAccountColumns+` FROM `+s.table()+` ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]Account, 0)
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		a.CreatedAt = a.CreatedAt.UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close is a no-op; the pool belongs to the caller.
func (s *PostgresStore) Close(_ context.Context) error { return nil }

func pgScanOne(op string, row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, notFound(op)
		}
		return Account{}, fmt.Errorf("%s: %w", op, err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

// pgIsUniqueViolation reports whether err is a unique violation on the email constraint.
// uq_accounts_email is the only unique constraint besides the primary key.
func pgIsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))
	return c == "" || c == "uq_accounts_email" || strings.Contains(c, "email")
}
