package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/hyperjump/photostory/internal/config"
	"github.com/hyperjump/photostory/internal/imaging"
	"github.com/hyperjump/photostory/internal/models"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("analyzer circuit breaker is open")

// Breaker fails fast while the wrapped analyzer keeps failing.
type Breaker struct {
	next Analyzer
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next in a circuit breaker configured by cfg.
func NewBreaker(next Analyzer, cfg config.BreakerConfig, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "analyzer",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// A cancelled client request says nothing about the upstream service.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &Breaker{next: next, cb: cb}
}

// Analyze calls the wrapped analyzer unless the circuit is open.
func (b *Breaker) Analyze(ctx context.Context, img imaging.Image, history []models.ChapterContext) (*models.Analysis, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Analyze(ctx, img, history)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	return out.(*models.Analysis), nil
}

// State returns the breaker state name.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
