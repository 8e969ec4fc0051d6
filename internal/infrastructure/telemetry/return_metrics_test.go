package telemetry

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnMetrics_ObserveTransition(t *testing.T) {
	m := NewReturnMetrics()

	m.ObserveTransition("receive", nil, 20*time.Millisecond)
	m.ObserveTransition("receive", errors.New("provider down"), 5*time.Millisecond)
	m.ObserveTransition("approve", nil, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("receive", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("receive", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("approve", "ok")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.transitionDuration))
}

func TestReturnMetrics_ObserveDispatch(t *testing.T) {
	m := NewReturnMetrics()

	m.ObserveDispatch("card", "succeeded", 100*time.Millisecond)
	m.ObserveDispatch("card", "succeeded", 80*time.Millisecond)
	m.ObserveDispatch("cod", "pending", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dispatches.WithLabelValues("card", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatches.WithLabelValues("cod", "pending")))
}

func TestReturnMetrics_ObserveOutboxRelay(t *testing.T) {
	m := NewReturnMetrics()

	m.ObserveOutboxRelay(0)
	m.ObserveOutboxRelay(3)
	m.ObserveOutboxRelay(2)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.outboxRelayed.WithLabelValues("sent")))
}

func TestReturnMetrics_Handler(t *testing.T) {
	m := NewReturnMetrics()
	m.ObserveTransition("request", nil, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `rma_transitions_total{action="request",result="ok"} 1`))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}

func TestReturnMetrics_ObserveHTTP(t *testing.T) {
	m := NewReturnMetrics()

	m.ObserveHTTP("POST", "/api/v1/returns", "201", 10*time.Millisecond)
	m.ObserveHTTP("POST", "/api/v1/returns", "201", 12*time.Millisecond)
	m.ObserveHTTP("POST", "/api/v1/returns/:id/receive", "502", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/v1/returns", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/v1/returns/:id/receive", "502")))
}
