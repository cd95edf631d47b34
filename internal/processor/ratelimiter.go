package processor

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/clindocs/casenote-classifier/internal/domain"
	"github.com/clindocs/casenote-classifier/internal/telemetry"
)

const defaultRatePerSecond = 100

// RateLimiter provides rate limiting for batch intake.
type RateLimiter struct {
	limiter *rate.Limiter
	logger  Logger
}

// NewRateLimiter creates a new rate limiter.
// rps: operations per second; burst: maximum burst size.
func NewRateLimiter(rps float64, burst int, logger Logger) *RateLimiter {
	if rps <= 0 {
		rps = defaultRatePerSecond
	}
	if burst <= 0 {
		burst = int(rps)
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// Wait blocks until the rate limit allows the operation.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		r.logger.Warn("Rate limiter wait failed", "error", err)
		return err
	}
	return nil
}

// Allow checks if an operation is allowed without waiting.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// SetLimit updates the rate limit.
func (r *RateLimiter) SetLimit(rps float64) {
	r.limiter.SetLimit(rate.Limit(rps))
	r.logger.Info("Rate limit updated", "new_rps", rps)
}

// SetBurst updates the burst size.
func (r *RateLimiter) SetBurst(burst int) {
	r.limiter.SetBurst(burst)
	r.logger.Info("Burst size updated", "new_burst", burst)
}

// RateLimitedProcessor wraps a batch processor with intake rate
// limiting, so one misbehaving import cannot starve interactive calls.
type RateLimitedProcessor struct {
	processor *BatchProcessor
	limiter   *RateLimiter
	tel       *telemetry.Provider
	logger    Logger
}

// NewRateLimitedProcessor creates a processor with intake rate limiting.
func NewRateLimitedProcessor(
	processor *BatchProcessor,
	rps float64,
	burst int,
	tel *telemetry.Provider,
	logger Logger,
) *RateLimitedProcessor {
	return &RateLimitedProcessor{
		processor: processor,
		limiter:   NewRateLimiter(rps, burst, logger),
		tel:       tel,
		logger:    logger,
	}
}

// Process waits for the intake limit, then runs the batch.
func (r *RateLimitedProcessor) Process(
	ctx context.Context,
	entries []*domain.NoteEntry,
	filter bool,
) ([]*domain.EntryResult, error) {
	if !r.limiter.Allow() {
		if r.tel != nil {
			r.tel.IncrementThrottleCount()
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if r.tel != nil {
		r.tel.RecordBatchSize(len(entries))
	}
	return r.processor.Process(ctx, entries, filter), nil
}

// Limiter exposes the intake limiter for runtime tuning.
func (r *RateLimitedProcessor) Limiter() *RateLimiter {
	return r.limiter
}
