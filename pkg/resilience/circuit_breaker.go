// Package resilience guards calls to the archive and the event broker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("circuit breaker is half-open and at capacity")
)

// CircuitBreakerConfig holds configuration for a circuit breaker
type CircuitBreakerConfig struct {
	Name string
	// MaxRequests is how many trial calls pass while half-open
	MaxRequests uint32
	// Interval clears the closed-state counts; zero never clears them
	Interval time.Duration
	// Timeout is how long the breaker stays open before trying again
	Timeout time.Duration
	// The breaker trips after FailureThreshold consecutive failures, or once
	// MinRequestsToTrip calls have been seen and the failure ratio reaches
	// FailureRatioThreshold
	FailureThreshold      uint32
	FailureRatioThreshold float64
	MinRequestsToTrip     uint32
	// OnStateChange, when set, is called after the breaker has been logged
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultCircuitBreakerConfig suits a dependency that is optional for a run:
// it trips quickly so a simulation does not stall on a dead broker or archive.
func DefaultCircuitBreakerConfig(name string) *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:                  name,
		MaxRequests:           5,
		Interval:              time.Minute,
		Timeout:               30 * time.Second,
		FailureThreshold:      5,
		FailureRatioThreshold: 0.5,
		MinRequestsToTrip:     10,
	}
}

func (c *CircuitBreakerConfig) readyToTrip(counts gobreaker.Counts) bool {
	if counts.ConsecutiveFailures >= c.FailureThreshold {
		return true
	}
	if counts.Requests < c.MinRequestsToTrip {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= c.FailureRatioThreshold
}

// CircuitBreaker wraps gobreaker with logging
type CircuitBreaker struct {
	cb     *gobreaker.CircuitBreaker
	name   string
	logger *slog.Logger
}

// NewCircuitBreaker creates a new circuit breaker. A nil logger uses slog.Default.
func NewCircuitBreaker(config *CircuitBreakerConfig, logger *slog.Logger) *CircuitBreaker {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: config.readyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			if config.OnStateChange != nil {
				config.OnStateChange(name, from, to)
			}
		},
	}

	return &CircuitBreaker{
		cb:     gobreaker.NewCircuitBreaker(settings),
		name:   config.Name,
		logger: logger,
	}
}

// Execute runs fn through the circuit breaker. Rejections wrap ErrCircuitOpen
// or ErrTooManyRequests.
func (c *CircuitBreaker) Execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := c.cb.Execute(fn)
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		c.logger.Warn("Call rejected, circuit open", "name", c.name)
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, c.name)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		c.logger.Warn("Call rejected, half-open capacity reached", "name", c.name)
		return nil, fmt.Errorf("%w: %s", ErrTooManyRequests, c.name)
	}
	return result, err
}

// Run is Execute for functions without a result
func (c *CircuitBreaker) Run(ctx context.Context, fn func() error) error {
	_, err := c.Execute(ctx, func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func (c *CircuitBreaker) IsOpen() bool            { return c.cb.State() == gobreaker.StateOpen }
func (c *CircuitBreaker) State() gobreaker.State  { return c.cb.State() }
func (c *CircuitBreaker) Name() string            { return c.name }
func (c *CircuitBreaker) Counts() gobreaker.Counts { return c.cb.Counts() }

// StateMetrics receives breaker transitions
type StateMetrics interface {
	SetCircuitBreakerState(name string, state int)
	RecordCircuitBreakerTrip(name string)
}

// StateValue maps a breaker state to the gauge value: 0 closed, 1 half-open,
// 2 open
func StateValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// RecordTransitions returns an OnStateChange hook that feeds m
func RecordTransitions(m StateMetrics) func(name string, from, to gobreaker.State) {
	return func(name string, _, to gobreaker.State) {
		m.SetCircuitBreakerState(name, StateValue(to))
		if to == gobreaker.StateOpen {
			m.RecordCircuitBreakerTrip(name)
		}
	}
}
