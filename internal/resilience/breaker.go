// Package resilience guards external collaborators (embedding provider,
// vector index, document store) with circuit breakers.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker"

	"github.com/agenthands/creatorgraph/internal/config"
	"github.com/agenthands/creatorgraph/internal/core/model"
)

type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(name string, cfg config.CircuitBreakerConfig, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 1
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval.Duration,
		Timeout:     cfg.Timeout.Duration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		// Contract violations are the caller's fault, not the collaborator's.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, model.ErrInvalidRecord)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			level := slog.LevelInfo
			if to == gobreaker.StateOpen {
				level = slog.LevelWarn
			}
			logger.Log(context.Background(), level, "circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &Breaker{name: name, cb: gobreaker.NewCircuitBreaker(st)}
}

func (b *Breaker) Name() string {
	return b.name
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// call runs fn through the breaker. Failures, including calls rejected by an
// open breaker, are wrapped with model.ErrCollaboratorUnavailable.
func call[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	res, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, model.ErrInvalidRecord) {
			return zero, err
		}
		return zero, fmt.Errorf("%s: %w: %w", b.name, model.ErrCollaboratorUnavailable, err)
	}
	if res == nil {
		return zero, nil
	}
	return res.(T), nil
}

func run(b *Breaker, fn func() error) error {
	_, err := call(b, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
