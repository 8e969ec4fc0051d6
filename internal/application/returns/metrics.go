package returns

import "time"

// Dispatch outcomes reported to Metrics
const (
	OutcomeCompleted = "completed"
	OutcomePending   = "pending"
	OutcomeFailed    = "failed"
)

// Metrics receives counters for RMA transitions and refund dispatches
type Metrics interface {
	ObserveTransition(action string, err error, elapsed time.Duration)
	ObserveDispatch(paymentMethod, outcome string, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveTransition(string, error, time.Duration) {}
func (noopMetrics) ObserveDispatch(string, string, time.Duration)  {}
