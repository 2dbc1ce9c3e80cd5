package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountersIncrement(t *testing.T) {
	m := New()

	m.ObserveAuth("login", "success")
	m.ObserveAuth("login", "success")
	m.ObserveAuth("login", "invalid_credentials")
	m.ObserveHTTP(http.MethodGet, "/api/accounts", 200, 5*time.Millisecond)
	m.ObserveNotModified()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.AuthEvents.WithLabelValues("login", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AuthEvents.WithLabelValues("login", "invalid_credentials")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/accounts", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ListingNotModified))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAuth("login", "success")
		m.ObserveHTTP("GET", "", 500, time.Second)
		m.ObserveNotModified()
		m.RegisterRevocationGauge(func() int { return 1 })
	})
}

func TestMetrics_HandlerExposesRevocationGauge(t *testing.T) {
	m := New()
	size := 3
	m.RegisterRevocationGauge(func() int { return size })

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "accounts_revoked_tokens 3"), "gauge missing from exposition")
	assert.True(t, strings.Contains(string(body), "go_goroutines"), "go collector missing")
}
