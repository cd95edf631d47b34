package processor

import (
	"context"
	"sync"
	"time"

	"github.com/clindocs/casenote-classifier/internal/domain"
)

// defaultConcurrency bounds the worker pool when the config leaves it
// unset.
const defaultConcurrency = 8

// BatchProcessor categorizes multiple note entries in parallel using a
// worker pool.
type BatchProcessor struct {
	pipeline    *Pipeline
	concurrency int
	logger      Logger
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(pipeline *Pipeline, concurrency int, logger Logger) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &BatchProcessor{
		pipeline:    pipeline,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Process categorizes a batch of note entries using the worker pool.
// Results come back in input order. The filter flag controls
// false-positive suppression for the whole batch.
func (b *BatchProcessor) Process(ctx context.Context, entries []*domain.NoteEntry, filter bool) []*domain.EntryResult {
	if len(entries) == 0 {
		return []*domain.EntryResult{}
	}

	b.logger.Info("Starting batch categorization",
		"batch_size", len(entries),
		"concurrency", b.concurrency,
	)

	startTime := time.Now()

	jobs := make(chan int, len(entries))
	results := make([]*domain.EntryResult, len(entries))

	var wg sync.WaitGroup
	for i := range b.concurrency {
		wg.Add(1)
		go b.worker(ctx, i, entries, jobs, results, &wg, filter)
	}

	for i := range entries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// Workers that stopped on cancellation leave nil slots; fill them so
	// callers always get one result per entry.
	errorCount := 0
	for i, result := range results {
		if result == nil {
			results[i] = &domain.EntryResult{
				Entry: entries[i],
				Err:   ctx.Err(),
				Error: "categorization cancelled",
			}
		}
		if results[i].Err != nil {
			errorCount++
		}
	}

	duration := time.Since(startTime)
	b.logger.Info("Batch categorization complete",
		"total", len(entries),
		"errors", errorCount,
		"duration_ms", duration.Milliseconds(),
		"entries_per_second", float64(len(entries))/duration.Seconds(),
	)

	return results
}

// worker categorizes entries taken off the jobs channel.
func (b *BatchProcessor) worker(
	ctx context.Context,
	id int,
	entries []*domain.NoteEntry,
	jobs <-chan int,
	results []*domain.EntryResult,
	wg *sync.WaitGroup,
	filter bool,
) {
	defer wg.Done()

	b.logger.Debug("Worker started", "worker_id", id)

	for idx := range jobs {
		select {
		case <-ctx.Done():
			b.logger.Warn("Worker stopping due to context cancellation", "worker_id", id)
			return
		default:
		}

		results[idx] = b.pipeline.CategorizeEntry(ctx, entries[idx], filter)
	}

	b.logger.Debug("Worker finished", "worker_id", id)
}

// Concurrency returns the current worker pool size.
func (b *BatchProcessor) Concurrency() int {
	return b.concurrency
}
