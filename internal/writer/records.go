// Package writer persists validated API data: each asset is flattened to the
// fixed row shape and appended to its symbol's table.
package writer

import (
	"context"
	"log/slog"
	"time"

	"github.com/stuianna/CMCLogger/internal/database"
	"github.com/stuianna/CMCLogger/internal/metrics"
	"github.com/stuianna/CMCLogger/internal/model"
)

// RecordWriter appends flattened asset records to the database.
type RecordWriter struct {
	db       *database.DB
	currency string
	logger   *slog.Logger

	// Test hook; defaults to time.Now.
	now func() time.Time

	tables map[string]bool // symbols whose tables are known to exist
}

// NewRecordWriter creates a writer for the given conversion currency.
func NewRecordWriter(db *database.DB, currency string, logger *slog.Logger) *RecordWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordWriter{
		db:       db,
		currency: currency,
		logger:   logger,
		now:      time.Now,
		tables:   make(map[string]bool),
	}
}

// Append flattens and stores one row per asset. A nil slice is a no-op.
// Per-record failures are logged and skipped; the remaining records are
// still written.
func (w *RecordWriter) Append(ctx context.Context, data []model.Asset) {
	if data == nil {
		return
	}

	written := 0
	for _, asset := range data {
		if err := w.appendOne(ctx, asset); err != nil {
			w.logger.Error("error adding record to database",
				"symbol", asset.Symbol,
				"err", err,
			)
			metrics.WriteErrors.Inc()
			continue
		}
		written++
		metrics.RecordsWritten.Inc()
		w.logger.Debug("added new database entry", "symbol", asset.Symbol)
	}

	w.logger.Info("added new entries to the database", "count", written)
}

func (w *RecordWriter) appendOne(ctx context.Context, asset model.Asset) error {
	rec, err := model.Flatten(asset, w.currency, w.now())
	if err != nil {
		return err
	}

	if !w.tables[rec.Symbol] {
		if err := w.db.CreateRecordTable(ctx, rec.Symbol); err != nil {
			return err
		}
		w.tables[rec.Symbol] = true
	}

	return w.db.InsertRecord(ctx, rec)
}
