package notify

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// NewBreaker returns a breaker that opens after threshold consecutive failures
// and lets a single trial call through once cooldown has elapsed.
func NewBreaker(name string, threshold int, cooldown time.Duration) *gobreaker.CircuitBreaker {
	if threshold <= 0 {
		threshold = 1
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}
