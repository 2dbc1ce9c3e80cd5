package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"accountsd/cmd/identity"
	"accountsd/cmd/internal/auth/session"
	"accountsd/cmd/internal/listing"
	"accountsd/cmd/internal/metrics"
	"accountsd/cmd/security/password"

	"github.com/go-chi/chi/v5"
)

const (
	msgEmailTaken         = "Email already registered"
	msgInvalidCredentials = "Invalid credentials"
	msgUnauthorized       = "Invalid or missing token"
	msgNotFound           = "Account not found"
	msgLoggedOut          = "Logged out successfully"
	msgInternal           = "internal server error"
)

// Handler wires HTTP auth and account endpoints to the store and session services.
type Handler struct {
	log *slog.Logger
	cfg Config

	store   identity.Store
	hasher  password.Config
	tokens  session.TokenManager
	revoked *session.RevocationRegistry
	guard   *session.Guard
	metrics *metrics.Metrics

	now       func() time.Time
	dummyHash string
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithPasswordConfig overrides the default password hashing configuration.
func WithPasswordConfig(cfg password.Config) HandlerOption {
	return func(h *Handler) {
		h.hasher = cfg
	}
}

// WithMetrics records auth outcomes on m.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithClock overrides the wall clock used for token issue and verification.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler constructs a Handler. The registry is shared with every request
// the handler serves and must outlive it.
func NewHandler(log *slog.Logger, store identity.Store, tokens session.TokenManager, revoked *session.RevocationRegistry, cfg Config, opts ...HandlerOption) (*Handler, error) {
	if store == nil {
		return nil, errors.New("authapi: nil store")
	}
	if tokens == nil {
		return nil, errors.New("authapi: nil token manager")
	}
	if revoked == nil {
		return nil, errors.New("authapi: nil revocation registry")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &Handler{
		log:     log,
		cfg:     cfg.withDefaults(),
		store:   store,
		hasher:  password.DefaultConfig(),
		tokens:  tokens,
		revoked: revoked,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	h.guard = session.NewGuard(tokens, revoked, session.WithGuardClock(h.now))

	// Dummy hash for timing-resistant login checks.
	if hash, err := h.hasher.Hash("dummy-password-for-timing-only"); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Routes mounts the API under /api on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/logout", h.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(h.guard.Require(h.handleUnauthorized))
			r.Get("/accounts", h.handleListAccounts)
			r.Delete("/accounts/{id}", h.handleDeleteAccount)
		})
	})
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	username := identity.NormalizeUsername(req.Username)
	email := identity.NormalizeEmail(req.Email)
	if username == "" || email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username, email and password are required")
		return
	}
	if err := h.hasher.Validate(req.Password); err != nil {
		h.auditRegister(r, "", "policy")
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ctx := r.Context()

	// Advisory pre-check; the store enforces uniqueness on insert.
	if _, err := h.store.FindByEmail(ctx, email); err == nil {
		h.auditRegister(r, "", "email_taken")
		writeError(w, http.StatusBadRequest, "email_taken", msgEmailTaken)
		return
	} else if !identity.IsNotFound(err) {
		h.serverError(w, "auth.register.lookup.fail", err)
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.serverError(w, "auth.register.hash.fail", err)
		return
	}

	acct, err := h.store.Insert(ctx, identity.NewAccountInput{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Now:          h.now(),
	})
	switch {
	case err == nil:
	case identity.IsConflict(err):
		h.auditRegister(r, "", "email_taken")
		writeError(w, http.StatusBadRequest, "email_taken", msgEmailTaken)
		return
	case identity.IsInvalidInput(err):
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid account data")
		return
	default:
		h.serverError(w, "auth.register.insert.fail", err)
		return
	}

	h.auditRegister(r, acct.ID, "")
	writeJSON(w, http.StatusOK, toAccountResponse(acct))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	email := identity.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		h.auditLoginFailed(r, "", "missing_fields")
		writeError(w, http.StatusUnauthorized, "invalid_credentials", msgInvalidCredentials)
		return
	}

	acct, err := h.store.FindByEmail(r.Context(), email)
	if err != nil {
		if !identity.IsNotFound(err) {
			h.serverError(w, "auth.login.lookup.fail", err)
			return
		}
		// Timing resistance: perform a dummy verify when the account is missing.
		if h.dummyHash != "" {
			_, _ = h.hasher.Verify(h.dummyHash, req.Password)
		}
		h.auditLoginFailed(r, "", "not_found")
		writeError(w, http.StatusUnauthorized, "invalid_credentials", msgInvalidCredentials)
		return
	}

	ok, err := h.hasher.Verify(acct.PasswordHash, req.Password)
	if err != nil {
		// A corrupt digest must never authenticate; report it server side only.
		h.log.Error("auth.login.verify.fail", "account_id", acct.ID, "err", err)
	}
	if !ok {
		h.auditLoginFailed(r, acct.ID, "bad_password")
		writeError(w, http.StatusUnauthorized, "invalid_credentials", msgInvalidCredentials)
		return
	}

	tok, exp, err := h.tokens.Issue(acct.ID, h.now())
	if err != nil {
		h.serverError(w, "auth.login.issue.fail", err)
		return
	}

	h.auditLoginSuccess(r, acct.ID, exp)
	writeJSON(w, http.StatusOK, loginResponse{
		ID:       acct.ID,
		Username: acct.Username,
		Email:    acct.Email,
		Token:    tok,
	})
}

// handleLogout always succeeds. Only tokens that still verify are recorded,
// since anything else is already rejected by the guard.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	tok := session.BearerToken(r)
	switch {
	case tok == "":
		h.auditLogout(r, "", "missing")
	case h.revoked.IsRevoked(tok):
		h.auditLogout(r, "", session.ReasonRevoked)
	default:
		claims, err := h.tokens.Verify(tok, h.now())
		if err != nil {
			h.auditLogout(r, "", session.ReasonOf(err))
			break
		}
		h.revoked.RevokeUntil(tok, claims.ExpiresAt)
		h.auditLogout(r, claims.Subject, "")
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msgLoggedOut})
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.ListAll(r.Context())
	if err != nil {
		h.serverError(w, "accounts.list.fail", err)
		return
	}

	entries := make([]listing.Entry, 0, len(accounts))
	for _, a := range accounts {
		entries = append(entries, listing.Entry{ID: a.ID, Username: a.Username, Email: a.Email})
	}
	if listing.NotModified(w, r, listing.Fingerprint(entries)) {
		h.metrics.ObserveNotModified()
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, toAccountList(accounts))
}

func (h *Handler) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	p, ok := session.PrincipalFromContext(r.Context())
	if !ok {
		h.handleUnauthorized(w, r, session.AuthError{Reason: session.ReasonMissing})
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusNotFound, "not_found", msgNotFound)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		if identity.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", msgNotFound)
			return
		}
		h.serverError(w, "accounts.delete.fail", err)
		return
	}

	self := p.Subject == id
	h.auditDelete(r, p.Subject, id, self)
	if self {
		// The account is gone; its bearer must not keep working.
		h.revoked.RevokeUntil(p.Token, p.ExpiresAt)
		writeJSON(w, http.StatusOK, deleteSelfResponse{ShouldLogout: true})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUnauthorized(w http.ResponseWriter, r *http.Request, err error) {
	h.auditGuardRejected(r, session.ReasonOf(err))
	writeError(w, http.StatusUnauthorized, "unauthorized", msgUnauthorized)
}

func (h *Handler) serverError(w http.ResponseWriter, event string, err error) {
	h.log.Error(event, "err", err)
	writeError(w, http.StatusInternalServerError, "server_error", msgInternal)
}
