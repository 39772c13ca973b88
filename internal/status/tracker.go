// Package status turns call outcomes into persisted session, lifetime, and
// health state in the status file.
package status

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/stuianna/CMCLogger/internal/model"
	"github.com/stuianna/CMCLogger/internal/settings"
)

// HealthWindowSize is the number of most recent call outcomes the rolling
// health score is computed over.
const HealthWindowSize = 30

// Tracker consumes one CallStatus per call cycle and maintains the status
// file's four sections. The health window starts full of successes, so a
// fresh daemon reports 100% until real outcomes displace the seed values.
type Tracker struct {
	store  *settings.Store
	logger *slog.Logger
	window []bool
}

// NewTracker creates a tracker over the given status store and self-heals
// the lifetime section if persisted state is out of range.
func NewTracker(store *settings.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}

	window := make([]bool, HealthWindowSize)
	for i := range window {
		window[i] = true
	}

	t := &Tracker{
		store:  store,
		logger: logger,
		window: window,
	}
	t.healLifetimeStats()
	return t
}

// healLifetimeStats resets the All Time section to defaults whenever any of
// its fields is observed outside its valid range.
func (t *Tracker) healLifetimeStats() {
	successes := t.store.GetInt(settings.SectionAllTime, settings.KeySuccessfulCalls)
	failures := t.store.GetInt(settings.SectionAllTime, settings.KeyFailedCalls)
	rate := t.store.GetFloat(settings.SectionAllTime, settings.KeySuccessRate)

	if successes >= 0 && failures >= 0 && rate >= 0 && rate <= 100 {
		return
	}

	t.logger.Warn("status file lifetime section contains invalid values, resetting to defaults",
		"successful_calls", successes,
		"failed_calls", failures,
		"success_rate", rate,
	)
	t.store.Set(settings.SectionAllTime, settings.KeySuccessfulCalls, 0)
	t.store.Set(settings.SectionAllTime, settings.KeyFailedCalls, 0)
	t.store.Set(settings.SectionAllTime, settings.KeySuccessRate, 100.0)
}

// ResetSession zeroes the current session counters. Called once at daemon
// start.
func (t *Tracker) ResetSession() error {
	t.store.Set(settings.SectionSession, settings.KeySuccessfulCalls, 0)
	t.store.Set(settings.SectionSession, settings.KeyFailedCalls, 0)
	t.store.Set(settings.SectionSession, settings.KeySuccessRate, 100.0)
	if err := t.store.Save(); err != nil {
		return fmt.Errorf("reset session stats: %w", err)
	}
	return nil
}

// Record updates the session, lifetime, and health state for one call
// outcome and rewrites the status file once.
func (t *Tracker) Record(status model.CallStatus) error {
	if status.ErrorCode == 0 {
		t.recordOutcome(settings.SectionLastCall, status, true)
	} else {
		t.recordOutcome(settings.SectionLastFailedCall, status, false)
	}

	t.store.Set(settings.SectionSession, settings.KeySuccessRate,
		t.successRate(settings.SectionSession))
	t.store.Set(settings.SectionAllTime, settings.KeySuccessRate,
		t.successRate(settings.SectionAllTime))

	if err := t.store.Save(); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}
	return nil
}

// Health returns the current rolling-window success percentage.
func (t *Tracker) Health() float64 {
	successes := 0
	for _, ok := range t.window {
		if ok {
			successes++
		}
	}
	return round1(100 * float64(successes) / float64(len(t.window)))
}

func (t *Tracker) recordOutcome(section string, status model.CallStatus, success bool) {
	counterKey := settings.KeyFailedCalls
	if success {
		counterKey = settings.KeySuccessfulCalls
	}
	t.increment(settings.SectionSession, counterKey)
	t.increment(settings.SectionAllTime, counterKey)

	t.store.Set(section, settings.KeyTimestamp, toLocalTime(status.Timestamp))
	t.store.Set(section, settings.KeyErrorCode, status.ErrorCode)
	t.store.Set(section, settings.KeyErrorMessage, status.ErrorMessage)
	t.store.Set(section, settings.KeyElapsed, status.Elapsed)
	t.store.Set(section, settings.KeyCreditCount, status.CreditCount)

	t.window = append(t.window[1:], success)
	t.store.Set(settings.SectionSession, settings.KeyHealth, t.Health())
}

func (t *Tracker) increment(section, key string) {
	t.store.Set(section, key, t.store.GetInt(section, key)+1)
}

// successRate is well defined here: every Record call increments one of the
// two counters before the rate is recomputed.
func (t *Tracker) successRate(section string) float64 {
	successes := t.store.GetInt(section, settings.KeySuccessfulCalls)
	failures := t.store.GetInt(section, settings.KeyFailedCalls)
	return round2(100 * float64(successes) / float64(successes+failures))
}

// toLocalTime rewrites an ISO-8601 timestamp in the local time zone. An
// unparseable value is stored as-is rather than lost.
func toLocalTime(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.Local().Format(settings.TimestampLayout)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
