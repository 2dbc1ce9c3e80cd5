package session

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Verifier is the token check Guard depends on.
type Verifier interface {
	Verify(token string, now time.Time) (Claims, error)
}

// RevocationChecker is the registry lookup Guard depends on.
type RevocationChecker interface {
	IsRevoked(token string) bool
}

// Principal is an authenticated caller: the verified claims plus the raw
// token they were read from (needed to revoke it).
type Principal struct {
	Claims
	Token string
}

// Guard makes the authentication decision for protected endpoints.
type Guard struct {
	tokens  Verifier
	revoked RevocationChecker
	now     func() time.Time
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithGuardClock overrides the verification clock.
func WithGuardClock(now func() time.Time) GuardOption {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGuard composes a token verifier and a revocation registry.
func NewGuard(tokens Verifier, revoked RevocationChecker, opts ...GuardOption) *Guard {
	g := &Guard{
		tokens:  tokens,
		revoked: revoked,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Authenticate runs, in order and stopping at the first failure:
// bearer extraction, revocation lookup, signature and expiry verification.
// Every failure is an AuthError; its Reason is for logs only.
func (g *Guard) Authenticate(r *http.Request) (Principal, error) {
	tok := BearerToken(r)
	if tok == "" {
		return Principal{}, AuthError{Reason: ReasonMissing}
	}
	if g.revoked.IsRevoked(tok) {
		return Principal{}, AuthError{Reason: ReasonRevoked}
	}
	claims, err := g.tokens.Verify(tok, g.now())
	if err != nil {
		reason := ReasonOf(err)
		if reason == "" {
			reason = ReasonMalformed
		}
		return Principal{}, AuthError{Reason: reason}
	}
	return Principal{Claims: claims, Token: tok}, nil
}

// Require is middleware that rejects unauthenticated requests via onFail and
// stores the Principal in the request context otherwise.
func (g *Guard) Require(onFail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := g.Authenticate(r)
			if err != nil {
				onFail(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}

// BearerToken extracts the credential from "Authorization: Bearer <token>".
// The scheme is case-insensitive. Anything else yields "".
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type principalKey struct{}

// ContextWithPrincipal returns ctx carrying p.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the Principal stored by Require.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
