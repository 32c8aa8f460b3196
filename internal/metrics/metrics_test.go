package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.RequestSent("server.getVersion")
		m.ResponseHandled("server.getVersion", OutcomeSuccess, time.Now())
		m.NotificationReceived("server.connected", true)
		m.CrashReported()
		m.SetPending(3)
		m.EngineRestarted()
	})
}

func TestMetricsRecord(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.RequestSent("analysis.getErrors")
	m.RequestSent("analysis.getErrors")
	m.ResponseHandled("analysis.getErrors", OutcomeInvalid, time.Now().Add(-time.Second))
	m.NotificationReceived("analysis.flushResults", true)
	m.NotificationReceived("analysis.somethingNew", false)
	m.SetPending(1)
	m.CrashReported()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsSent.WithLabelValues("analysis.getErrors")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Responses.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PendingCalls))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CrashReports))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ResponseLatency))
}

func TestDoubleRegistrationFails(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}
