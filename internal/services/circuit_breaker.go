package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// CircuitBreakerService manages circuit breakers for upstream calls,
// one breaker per logical endpoint.
type CircuitBreakerService struct {
	breakers  map[string]*gobreaker.CircuitBreaker
	mu        sync.RWMutex
	logger    *logrus.Logger
	threshold uint32
}

// NewCircuitBreakerService creates a circuit breaker service. threshold is the
// number of consecutive failures before a breaker opens.
func NewCircuitBreakerService(threshold int, logger *logrus.Logger) *CircuitBreakerService {
	if threshold <= 0 {
		threshold = 5
	}
	return &CircuitBreakerService{
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
		logger:    logger,
		threshold: uint32(threshold),
	}
}

// Execute runs fn through the breaker registered for service, creating the
// breaker on first use.
func (s *CircuitBreakerService) Execute(service string, fn func() (interface{}, error)) (interface{}, error) {
	breaker := s.getBreaker(service)

	result, err := breaker.Execute(fn)
	if err != nil {
		if err == gobreaker.ErrOpenState {
			s.logger.WithField("service", service).Warn("Circuit breaker is open, rejecting request")
			return nil, fmt.Errorf("service %s temporarily unavailable: %w", service, err)
		}
		return nil, err
	}

	return result, nil
}

// State reports the current breaker state for a service, or "unknown" when no
// breaker has been created yet.
func (s *CircuitBreakerService) State(service string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	breaker, ok := s.breakers[service]
	if !ok {
		return "unknown"
	}
	return breaker.State().String()
}

func (s *CircuitBreakerService) getBreaker(service string) *gobreaker.CircuitBreaker {
	s.mu.RLock()
	breaker, ok := s.breakers[service]
	s.mu.RUnlock()
	if ok {
		return breaker
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if breaker, ok = s.breakers[service]; ok {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:        service,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			s.logger.WithFields(logrus.Fields{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	breaker = gobreaker.NewCircuitBreaker(settings)
	s.breakers[service] = breaker
	return breaker
}
