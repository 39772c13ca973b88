// Package daemon runs the polling loop: one fully synchronous call cycle at a
// time, each followed by status accounting, data persistence on success, and
// a sleep until the next call is due.
package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stuianna/CMCLogger/internal/metrics"
	"github.com/stuianna/CMCLogger/internal/model"
)

// Fetcher performs one call cycle and exposes its terminal outcome.
type Fetcher interface {
	FetchLatest(ctx context.Context, overrideKey string) bool
	LatestStatus() model.CallStatus
	LatestData() []model.Asset
	SecondsToNextCall() int
}

// Recorder consumes one call outcome per cycle.
type Recorder interface {
	Record(status model.CallStatus) error
	Health() float64
}

// Appender persists validated call data.
type Appender interface {
	Append(ctx context.Context, data []model.Asset)
}

// Daemon owns the polling loop.
type Daemon struct {
	fetcher Fetcher
	tracker Recorder
	writer  Appender
	logger  *slog.Logger
}

// New creates a daemon over the assembled components.
func New(fetcher Fetcher, tracker Recorder, writer Appender, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		fetcher: fetcher,
		tracker: tracker,
		writer:  writer,
		logger:  logger,
	}
}

// Run loops until the context is cancelled. Each cycle blocks through all
// retries and backoff sleeps before the daemon sleeps until the next call; no
// two calls are ever in flight at once.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("daemon started")

	for {
		d.runCycle(ctx)

		delay := d.fetcher.SecondsToNextCall()
		metrics.SecondsToNextCall.Set(float64(delay))
		d.logger.Info("scheduling next API call", "seconds", delay)

		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopped")
			return ctx.Err()
		case <-time.After(time.Duration(delay) * time.Second):
		}
	}
}

// RunOnce performs a single fetch-and-store cycle.
func (d *Daemon) RunOnce(ctx context.Context, overrideKey string) bool {
	return d.cycle(ctx, overrideKey)
}

func (d *Daemon) runCycle(ctx context.Context) {
	d.cycle(ctx, "")
}

func (d *Daemon) cycle(ctx context.Context, overrideKey string) bool {
	cycleID := uuid.New().String()
	start := time.Now()

	ok := d.fetcher.FetchLatest(ctx, overrideKey)
	status := d.fetcher.LatestStatus()

	if ok {
		metrics.CallsTotal.WithLabelValues("success").Inc()
		metrics.CreditsUsed.Add(float64(status.CreditCount))
	} else {
		metrics.CallsTotal.WithLabelValues("failure").Inc()
	}

	if err := d.tracker.Record(status); err != nil {
		d.logger.Error("failed to persist call status", "cycle", cycleID, "err", err)
	}
	metrics.HealthScore.Set(d.tracker.Health())

	if ok {
		d.writer.Append(ctx, d.fetcher.LatestData())
	}

	d.logger.Info("call cycle complete",
		"cycle", cycleID,
		"success", ok,
		"error_code", status.ErrorCode,
		"duration", time.Since(start),
	)
	return ok
}
