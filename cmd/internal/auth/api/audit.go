package authapi

import (
	"log/slog"
	"net/http"
	"time"
)

// Audit events go to the structured log. Reasons are internal and never
// part of a response body.

func (h *Handler) auditRegister(r *http.Request, accountID, reason string) {
	if reason != "" {
		h.audit(r, slog.LevelWarn, "auth.register.failed", "register", "failure", slog.String("reason", reason))
		return
	}
	h.audit(r, slog.LevelInfo, "auth.register.success", "register", "success", slog.String("account_id", accountID))
}

func (h *Handler) auditLoginFailed(r *http.Request, accountID, reason string) {
	attrs := []slog.Attr{slog.String("reason", reason)}
	if accountID != "" {
		attrs = append(attrs, slog.String("account_id", accountID))
	}
	h.audit(r, slog.LevelWarn, "auth.login.failed", "login", "failure", attrs...)
}

func (h *Handler) auditLoginSuccess(r *http.Request, accountID string, expiresAt time.Time) {
	h.audit(r, slog.LevelInfo, "auth.login.success", "login", "success",
		slog.String("account_id", accountID),
		slog.Time("expires_at", expiresAt),
	)
}

// auditLogout records a revocation when accountID is set, and the reason
// nothing was revoked otherwise.
func (h *Handler) auditLogout(r *http.Request, accountID, reason string) {
	if accountID == "" {
		h.audit(r, slog.LevelDebug, "auth.logout.noop", "logout", "noop", slog.String("reason", reason))
		return
	}
	h.audit(r, slog.LevelInfo, "auth.logout", "logout", "success", slog.String("account_id", accountID))
}

func (h *Handler) auditGuardRejected(r *http.Request, reason string) {
	h.audit(r, slog.LevelWarn, "auth.guard.rejected", "guard", "failure", slog.String("reason", reason))
}

func (h *Handler) auditDelete(r *http.Request, actorID, targetID string, self bool) {
	h.audit(r, slog.LevelInfo, "accounts.deleted", "delete", "success",
		slog.String("actor_id", actorID),
		slog.String("account_id", targetID),
		slog.Bool("self", self),
	)
}

func (h *Handler) audit(r *http.Request, level slog.Level, event, kind, outcome string, attrs ...slog.Attr) {
	h.metrics.ObserveAuth(kind, outcome)
	attrs = append(attrs,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	h.log.LogAttrs(r.Context(), level, event, attrs...)
}
