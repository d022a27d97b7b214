package metrics

import "time"

type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) RecordDataServiceCall(string, string, bool, time.Duration)  {}
func (Noop) RecordCommit(string, int, bool, time.Duration)              {}
func (Noop) RecordUseCaseExecution(string, bool, time.Duration)         {}
func (Noop) ObserveHTTPRequestDuration(string, string, string, float64) {}
func (Noop) IncCircuitBreakerState(string, string)                      {}
func (Noop) IncCommitEventsPublished(string)                            {}
func (Noop) IncCommitEventsConsumed(string)                             {}
