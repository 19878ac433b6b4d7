package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Timer measures how long an operation takes, in milliseconds
type Timer struct {
	// startTime is the time the timer was started
	startTime time.Time
}

// Finish observes the milliseconds since the timer started and returns the
// elapsed duration
func (t Timer) Finish(observer prometheus.Observer) time.Duration {
	elapsed := time.Since(t.startTime)
	observer.Observe(float64(elapsed) / float64(time.Millisecond))

	return elapsed
}
