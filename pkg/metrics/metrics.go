package metrics

import "time"

type Metrics interface {
	// Data services
	RecordDataServiceCall(entity, operation string, success bool, duration time.Duration)
	RecordCommit(database string, operations int, success bool, duration time.Duration)

	// Use cases
	RecordUseCaseExecution(name string, success bool, duration time.Duration)

	// Infrastructure (HTTP & messaging)
	ObserveHTTPRequestDuration(method, path, statusCode string, duration float64)
	IncCircuitBreakerState(name, state string)

	// Commit events
	IncCommitEventsPublished(status string)
	IncCommitEventsConsumed(status string)
}
