package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Prometheus struct {
	dataServiceTotal    *prometheus.CounterVec
	dataServiceDuration *prometheus.HistogramVec
	commitTotal         *prometheus.CounterVec
	commitDuration      *prometheus.HistogramVec
	commitOperations    *prometheus.HistogramVec
	useCaseTotal        *prometheus.CounterVec
	useCaseDuration     *prometheus.HistogramVec
	httpDuration        *prometheus.HistogramVec
	breakerState        *prometheus.CounterVec
	eventsPublished     *prometheus.CounterVec
	eventsConsumed      *prometheus.CounterVec
}

func NewPrometheusMetrics(reg prometheus.Registerer, serviceName string) *Prometheus {
	m := &Prometheus{
		dataServiceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "godata_dataservice_calls_total",
			Help:        "Total number of data service calls.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"entity", "operation", "status"}),
		dataServiceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "godata_dataservice_duration_seconds",
			Help:        "Data service call latency.",
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"entity", "operation", "status"}),
		commitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "godata_uow_commits_total",
			Help:        "Total unit of work commits.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"database", "status"}),
		commitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "godata_uow_commit_duration_seconds",
			Help:        "Unit of work commit latency.",
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"database", "status"}),
		commitOperations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "godata_uow_commit_operations",
			Help:        "Staged operations flushed per commit.",
			Buckets:     prometheus.ExponentialBuckets(1, 2, 10),
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"database"}),
		useCaseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_usecase_executions_total",
			Help:        "Total number of use case executions.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"usecase", "status"}),
		useCaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "app_usecase_duration_seconds",
			Help:        "Use case execution latency.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"usecase", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "app_http_duration_seconds",
			Help:        "Duration of HTTP requests.",
			Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"method", "path", "status_code"}),
		breakerState: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_circuit_breaker_transitions_total",
			Help:        "Circuit breaker state transitions.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"name", "state"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "godata_commit_events_published_total",
			Help:        "Total commit events published.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"status"}),
		eventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "godata_commit_events_consumed_total",
			Help:        "Total commit events consumed.",
			ConstLabels: prometheus.Labels{"service": serviceName},
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.dataServiceTotal,
		m.dataServiceDuration,
		m.commitTotal,
		m.commitDuration,
		m.commitOperations,
		m.useCaseTotal,
		m.useCaseDuration,
		m.httpDuration,
		m.breakerState,
		m.eventsPublished,
		m.eventsConsumed,
	)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (p *Prometheus) RecordDataServiceCall(entity, operation string, success bool, duration time.Duration) {
	s := status(success)
	p.dataServiceTotal.WithLabelValues(entity, operation, s).Inc()
	p.dataServiceDuration.WithLabelValues(entity, operation, s).Observe(duration.Seconds())
}

func (p *Prometheus) RecordCommit(database string, operations int, success bool, duration time.Duration) {
	s := status(success)
	p.commitTotal.WithLabelValues(database, s).Inc()
	p.commitDuration.WithLabelValues(database, s).Observe(duration.Seconds())
	if success {
		p.commitOperations.WithLabelValues(database).Observe(float64(operations))
	}
}

func (p *Prometheus) RecordUseCaseExecution(name string, success bool, duration time.Duration) {
	s := status(success)
	p.useCaseTotal.WithLabelValues(name, s).Inc()
	p.useCaseDuration.WithLabelValues(name, s).Observe(duration.Seconds())
}

func (p *Prometheus) ObserveHTTPRequestDuration(method, path, code string, duration float64) {
	p.httpDuration.WithLabelValues(method, path, code).Observe(duration)
}

func (p *Prometheus) IncCircuitBreakerState(name, state string) {
	p.breakerState.WithLabelValues(name, state).Inc()
}

func (p *Prometheus) IncCommitEventsPublished(status string) {
	p.eventsPublished.WithLabelValues(status).Inc()
}

func (p *Prometheus) IncCommitEventsConsumed(status string) {
	p.eventsConsumed.WithLabelValues(status).Inc()
}

// StatusCode formats an HTTP status for the status_code label.
func StatusCode(code int) string {
	return strconv.Itoa(code)
}
