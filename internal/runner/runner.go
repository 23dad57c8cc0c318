package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/rs/zerolog"

	"agristats/internal/engine"
)

type Result struct {
	Workload       string
	Operations     int64
	Errors         int64
	Throughput     float64
	P95Latency     time.Duration
	P99Latency     time.Duration
	AverageLatency time.Duration
	ErrorRate      float64
	TotalTime      time.Duration
	// OutOfRange counts successful calls slower than the histogram ceiling.
	// They are recorded at the ceiling.
	OutOfRange int64
	// Calls counts completed calls per operation, failed ones included.
	Calls map[string]int64
}

// Run issues the workload's calls from concurrency workers until duration
// elapses or ctx is cancelled. Each worker walks the call list round robin,
// starting at its own offset.
func Run(ctx context.Context, eng *engine.Engine, w Workload, concurrency int, duration time.Duration, logger zerolog.Logger) (*Result, error) {
	if len(w.Calls) == 0 {
		return nil, fmt.Errorf("workload %q has no calls", w.Name)
	}
	if concurrency < 1 {
		return nil, errors.New("concurrency must be at least 1")
	}
	if duration <= 0 {
		return nil, errors.New("duration must be positive")
	}

	logger.Info().
		Str("workload", w.Name).
		Int("calls", len(w.Calls)).
		Int("concurrency", concurrency).
		Dur("duration", duration).
		Msg("starting run")

	var (
		operations atomic.Int64
		failures   atomic.Int64
		outOfRange atomic.Int64
		wg         sync.WaitGroup
	)
	perCall := make([]atomic.Int64, len(w.Calls))
	// Max latency of 10 seconds in microseconds, 3 significant figures.
	histograms := make([]*hdrhistogram.Histogram, concurrency)

	startTime := time.Now()
	for i := 0; i < concurrency; i++ {
		histograms[i] = hdrhistogram.New(1, 10000000, 3)
		wg.Add(1)
		go func(worker int, histogram *hdrhistogram.Histogram) {
			defer wg.Done()
			for n := worker; time.Since(startTime) < duration && ctx.Err() == nil; n++ {
				idx := n % len(w.Calls)
				call := w.Calls[idx]

				opStartTime := time.Now()
				err := call.Do(ctx, eng)
				latency := time.Since(opStartTime)
				perCall[idx].Add(1)

				if err != nil {
					if ctx.Err() != nil {
						return
					}
					failures.Add(1)
					logger.Debug().Err(err).Str("call", call.Name).Msg("call failed")
					continue
				}
				operations.Add(1)
				if !record(histogram, latency) {
					outOfRange.Add(1)
				}
			}
		}(i, histograms[i])
	}
	wg.Wait()

	merged := histograms[0]
	for _, h := range histograms[1:] {
		merged.Merge(h)
	}

	result := &Result{
		Workload:   w.Name,
		Operations: operations.Load(),
		Errors:     failures.Load(),
		OutOfRange: outOfRange.Load(),
		TotalTime:  time.Since(startTime),
		Calls:      make(map[string]int64, len(w.Calls)),
	}
	for i, c := range w.Calls {
		result.Calls[c.Name] += perCall[i].Load()
	}
	if total := result.Operations + result.Errors; total > 0 {
		result.ErrorRate = float64(result.Errors) / float64(total)
	}
	result.Throughput = float64(result.Operations) / result.TotalTime.Seconds()
	result.AverageLatency = time.Duration(merged.Mean()) * time.Microsecond
	result.P95Latency = time.Duration(merged.ValueAtQuantile(95)) * time.Microsecond
	result.P99Latency = time.Duration(merged.ValueAtQuantile(99)) * time.Microsecond

	logger.Info().
		Str("workload", w.Name).
		Int64("operations", result.Operations).
		Int64("errors", result.Errors).
		Int64("out_of_range", result.OutOfRange).
		Float64("throughput", result.Throughput).
		Msg("run finished")

	return result, nil
}

// record adds latency to h in microseconds. Values past the trackable range
// are clamped to it and record reports false.
func record(h *hdrhistogram.Histogram, latency time.Duration) bool {
	if err := h.RecordValue(latency.Microseconds()); err != nil {
		h.RecordValue(h.HighestTrackableValue())
		return false
	}
	return true
}
