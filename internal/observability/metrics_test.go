package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordUpstream(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("auth-service", reg)

	m.RecordUpstream("user-service", "ok")
	m.RecordUpstream("user-service", "ok")
	m.RecordUpstream("user-service", "unavailable")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("user-service", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("user-service", "unavailable")))
}

func TestMetricsRecordRequestAndErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("trip-service", reg)

	m.RecordRequest("/trips/:id", "GET", 404, 12*time.Millisecond)
	m.RecordError("/trips/:id", "GET", "NOT_FOUND")
	m.RecordLogin("invalid_credentials")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/trips/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("GET", "/trips/:id", "NOT_FOUND")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues("invalid_credentials")))

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		m.RecordUpstream("x", "ok")
		m.RecordLogin("success")
	})
}
