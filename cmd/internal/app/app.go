// Package app wires the accounts server runtime: config, logging, the
// credential store, token services and HTTP routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	authapi "accountsd/cmd/internal/auth/api"
	"accountsd/cmd/internal/auth/session"
	"accountsd/cmd/internal/metrics"
	"accountsd/cmd/security/password"
)

// App is the accounts server runtime: it owns the HTTP server and the
// process-wide revocation registry.
type App struct {
	cfg Config
	log Logger

	store   *storeHandle
	metrics *metrics.Metrics
	revoked *session.RevocationRegistry
	handler http.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	secret, err := LoadSigningSecret(cfg)
	if err != nil {
		return nil, err
	}

	sessCfg := session.DefaultConfig()
	sessCfg.Issuer = cfg.TokenIssuer
	sessCfg.TokenTTL = cfg.TokenTTL
	sessCfg.Secret = secret
	tokens, err := session.NewJWTManager(sessCfg)
	if err != nil {
		return nil, err
	}
	log.Info("security.signing_key", "key_id", secret.KeyID(), "ttl", cfg.TokenTTL.String())

	pwCfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	revoked := session.NewRevocationRegistry()
	m.RegisterRevocationGauge(revoked.Len)

	apiCfg := authapi.DefaultConfig()
	apiCfg.MaxBodyBytes = cfg.MaxBodyBytes
	auth, err := authapi.NewHandler(log, st, tokens, revoked, apiCfg,
		authapi.WithPasswordConfig(pwCfg),
		authapi.WithMetrics(m),
	)
	if err != nil {
		_ = st.Close(ctx)
		return nil, err
	}

	return &App{
		cfg:     cfg,
		log:     log,
		store:   st,
		metrics: m,
		revoked: revoked,
		handler: newRouter(log, cfg, st, m, auth),
	}, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "store", a.store.kind)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		_ = a.store.Close(context.Background())
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped", "revoked_tokens", a.revoked.Len())
	return nil
}

// Close releases the store without running the server.
func (a *App) Close(ctx context.Context) error {
	if err := a.store.Close(ctx); err != nil {
		return fmt.Errorf("store close: %w", err)
	}
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
