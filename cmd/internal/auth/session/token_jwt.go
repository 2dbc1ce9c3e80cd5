package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the verified content of a session token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
	TokenID   string
}

// TokenManager issues and verifies session tokens.
type TokenManager interface {
	Issue(accountID string, now time.Time) (token string, exp time.Time, err error)
	Verify(token string, now time.Time) (Claims, error)
}

type jwtManager struct {
	issuer string
	ttl    time.Duration
	secret []byte
}

// NewJWTManager builds an HS256 TokenManager. It fails with ErrConfig when
// cfg has no secret.
func NewJWTManager(cfg Config) (TokenManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &jwtManager{
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		secret: secret,
	}, nil
}

func (m *jwtManager) Issue(accountID string, now time.Time) (string, time.Time, error) {
	if strings.TrimSpace(accountID) == "" {
		return "", time.Time{}, errors.New("session: empty account id")
	}

	// exp travels as whole seconds; return the value a verifier will see.
	iat := jwt.NewNumericDate(now.UTC())
	exp := jwt.NewNumericDate(now.UTC().Add(m.ttl))

	claims := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   accountID,
		ExpiresAt: exp,
		IssuedAt:  iat,
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp.Time, nil
}

func (m *jwtManager) Verify(token string, now time.Time) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, InvalidTokenError{Reason: ReasonMalformed}
	}

	// Fresh parser per call so the clock is the caller's.
	p := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	var rc jwt.RegisteredClaims
	_, err := p.ParseWithClaims(token, &rc, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, InvalidTokenError{Reason: classifyJWTError(err)}
	}

	if strings.TrimSpace(rc.Subject) == "" || rc.ExpiresAt == nil {
		return Claims{}, InvalidTokenError{Reason: ReasonMalformed}
	}

	out := Claims{
		Subject:   rc.Subject,
		ExpiresAt: rc.ExpiresAt.Time,
		TokenID:   rc.ID,
	}
	if rc.IssuedAt != nil {
		out.IssuedAt = rc.IssuedAt.Time
	}
	return out, nil
}

func classifyJWTError(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonSignature
	default:
		return ReasonMalformed
	}
}
