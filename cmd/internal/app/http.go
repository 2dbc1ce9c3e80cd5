package app

import (
	"context"
	"net/http"
	"time"

	authapi "accountsd/cmd/internal/auth/api"
	"accountsd/cmd/internal/metrics"

	"github.com/go-chi/chi/v5"
)

func newRouter(log Logger, cfg Config, store *storeHandle, m *metrics.Metrics, auth *authapi.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(WithRequestID)
	r.Use(WithRequestLogging(log, m))
	r.Use(WithRecover(log))
	r.Use(WithSecurityHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.ReadinessRequireDB && !store.durable() {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}

		if store.durable() {
			if err := pingStore(r, store, 2*time.Second); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				log.Info("readyz.db.not_ready", "store", store.kind, "err", err)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	r.Method(http.MethodGet, "/metrics", m.Handler())

	auth.Routes(r)

	return WithCORS(r, cfg, log)
}

func pingStore(r *http.Request, store *storeHandle, timeout time.Duration) error {
	if store.pool != nil {
		return PingDB(r.Context(), store.pool, timeout)
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	return store.Ping(ctx)
}
