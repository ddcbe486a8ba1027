package planning

import "time"

// Metrics receives pipeline observations. The monitoring adapter backs
// it with Prometheus collectors; tests use NopMetrics.
type Metrics interface {
	ObserveGeneration(outcome string, duration time.Duration)
	ObserveRetrieval(candidates, failedCollections int)
	ObserveMutation(op, outcome string)
}

// Generation outcome labels
const (
	OutcomeOK        = "ok"
	OutcomeRetried   = "retried"
	OutcomeMalformed = "malformed"
	OutcomeTimeout   = "timeout"
	OutcomeConflict  = "conflict"
	OutcomeRejected  = "rejected"
)

// NopMetrics discards all observations
type NopMetrics struct{}

func (NopMetrics) ObserveGeneration(string, time.Duration) {}
func (NopMetrics) ObserveRetrieval(int, int)               {}
func (NopMetrics) ObserveMutation(string, string)          {}
