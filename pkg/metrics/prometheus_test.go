package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheus_RecordDataServiceCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg, "test")

	m.RecordDataServiceCall("notes", "Get", true, 10*time.Millisecond)
	m.RecordDataServiceCall("notes", "Get", false, time.Millisecond)
	m.RecordDataServiceCall("notes", "Get", true, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.dataServiceTotal.WithLabelValues("notes", "Get", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dataServiceTotal.WithLabelValues("notes", "Get", "failure")))
}

func TestPrometheus_RecordCommit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg, "test")

	m.RecordCommit("main", 4, true, time.Millisecond)
	m.RecordCommit("main", 2, false, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.commitTotal.WithLabelValues("main", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commitTotal.WithLabelValues("main", "failure")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.commitOperations))
}

func TestPrometheus_Events(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg, "test")

	m.IncCommitEventsPublished("success")
	m.IncCommitEventsConsumed("duplicate")
	m.IncCircuitBreakerState("store", "open")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsPublished.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsConsumed.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.breakerState.WithLabelValues("store", "open")))
}

var _ Metrics = (*Prometheus)(nil)
var _ Metrics = Noop{}

func TestPrometheus_RecordUseCaseExecution(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg, "test")

	m.RecordUseCaseExecution("RecordCommit", true, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.useCaseTotal.WithLabelValues("RecordCommit", "success")))
}
