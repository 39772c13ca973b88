// Package query answers read-only point queries against the stored state:
// latest prices from the database and daemon health from the status file.
// Every malformed request degrades to a descriptive message string; the
// engine never panics and never returns an error to render.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/stuianna/CMCLogger/internal/database"
	"github.com/stuianna/CMCLogger/internal/model"
	"github.com/stuianna/CMCLogger/internal/settings"
)

// Type selects what a request asks about.
type Type string

// Format selects how the response is rendered.
type Format string

// Detail selects how much of it is rendered.
type Detail string

const (
	TypePrice  Type = "price"
	TypeStatus Type = "status"

	FormatStdout Format = "stdout"
	FormatJSON   Format = "json"

	DetailShort Detail = "short"
	DetailLong  Detail = "long"
)

// Request describes one point query.
type Request struct {
	Type   Type
	Tag    string // symbol, price queries only
	Format Format
	Detail Detail
}

// Engine resolves requests against the status file, configuration file, and
// record database.
type Engine struct {
	status *settings.Store
	config *settings.Store
	db     *database.DB
	logger *slog.Logger

	// Test hook; defaults to time.Now.
	now func() time.Time
}

// NewEngine creates a query engine over the persisted stores.
func NewEngine(status, config *settings.Store, db *database.DB, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		status: status,
		config: config,
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Process resolves one request into its rendered response string.
func (e *Engine) Process(ctx context.Context, req Request) string {
	e.logger.Debug("processing data request",
		"type", req.Type,
		"tag", req.Tag,
		"format", req.Format,
		"detail", req.Detail,
	)

	switch req.Type {
	case TypePrice:
		return e.processPrice(ctx, req)
	case TypeStatus:
		return e.processStatus(req)
	default:
		e.logger.Warn("request type not valid", "type", req.Type)
		return fmt.Sprintf("Request with type '%s' is not valid", req.Type)
	}
}

// -----------------------------------------------------------------------------
// Price queries
// -----------------------------------------------------------------------------

func (e *Engine) processPrice(ctx context.Context, req Request) string {
	entry, err := e.db.LatestRecord(ctx, req.Tag)
	if err != nil {
		e.logger.Error("cannot query symbol from database", "symbol", req.Tag, "err", err)
	}
	if entry == nil {
		e.logger.Error("requested symbol does not exist in database", "symbol", req.Tag)
		return fmt.Sprintf("%s not a valid stored cryptocurrency symbol.", req.Tag)
	}

	switch req.Detail {
	case DetailShort:
		return e.shortPrice(entry, req.Format)
	case DetailLong:
		return e.longPrice(entry, req.Format)
	default:
		e.logger.Warn("price request detail not valid", "detail", req.Detail)
		return fmt.Sprintf("'%s' is an invalid output detail request.", req.Detail)
	}
}

func (e *Engine) shortPrice(entry *model.Record, format Format) string {
	symbol := e.currencySymbol()
	switch format {
	case FormatStdout:
		return fmt.Sprintf("%s: %s%s (%s%%)",
			entry.Symbol, symbol, round2(entry.Price), round2(entry.PercentChange24h))
	case FormatJSON:
		out := struct {
			Symbol           string `json:"symbol"`
			Price            string `json:"price"`
			PercentChange24h string `json:"percent_change_24h"`
		}{
			Symbol:           entry.Symbol,
			Price:            symbol + round2(entry.Price),
			PercentChange24h: round2(entry.PercentChange24h) + "%",
		}
		return marshal(out)
	default:
		e.logger.Warn("price request format not valid", "format", format)
		return fmt.Sprintf("'%s' is an invalid price request format", format)
	}
}

func (e *Engine) longPrice(entry *model.Record, format Format) string {
	symbol := e.currencySymbol()
	switch format {
	case FormatStdout:
		return fmt.Sprintf("%s: %s%s 1H: %s%% 1D: %s%% 7D: %s%% 24h Volume: %s",
			entry.Symbol,
			symbol,
			round2(entry.Price),
			round2(entry.PercentChange1h),
			round2(entry.PercentChange24h),
			round2(entry.PercentChange7d),
			magnitude(entry.Volume24h),
		)
	case FormatJSON:
		out := struct {
			Symbol           string `json:"symbol"`
			Price            string `json:"price"`
			PercentChange1h  string `json:"percent_change_1h"`
			PercentChange24h string `json:"percent_change_24h"`
			PercentChange7d  string `json:"percent_change_7d"`
			MarketCap        string `json:"market_cap"`
		}{
			Symbol:           entry.Symbol,
			Price:            symbol + round2(entry.Price),
			PercentChange1h:  round2(entry.PercentChange1h) + "%",
			PercentChange24h: round2(entry.PercentChange24h) + "%",
			PercentChange7d:  round2(entry.PercentChange7d) + "%",
			MarketCap:        magnitude(entry.Volume24h),
		}
		return marshal(out)
	default:
		e.logger.Warn("price request format not valid", "format", format)
		return fmt.Sprintf("'%s' is an invalid price request format", format)
	}
}

func (e *Engine) currencySymbol() string {
	return e.config.GetString(settings.SectionAPI, settings.KeyCurrencySymbol)
}

// -----------------------------------------------------------------------------
// Status queries
// -----------------------------------------------------------------------------

func (e *Engine) processStatus(req Request) string {
	switch req.Format {
	case FormatStdout:
		switch req.Detail {
		case DetailShort:
			return fmt.Sprintf("Last successful call %d minutes ago, health %.1f%%.",
				e.minutesSinceLastCall(), e.health())
		case DetailLong:
			raw, err := e.status.Raw()
			if err != nil {
				e.logger.Error("cannot render status file", "err", err)
				return ""
			}
			return raw
		default:
			e.logger.Warn("status request detail not valid", "detail", req.Detail)
			return fmt.Sprintf("Status request with detail '%s' is not valid", req.Detail)
		}
	case FormatJSON:
		switch req.Detail {
		case DetailShort:
			out := struct {
				LastCall int     `json:"last_call"`
				Health   float64 `json:"health"`
			}{
				LastCall: e.minutesSinceLastCall(),
				Health:   e.health(),
			}
			return marshal(out)
		case DetailLong:
			return marshal(e.status.Sections())
		default:
			e.logger.Warn("status request detail not valid", "detail", req.Detail)
			return fmt.Sprintf("Status request with detail '%s' is not valid", req.Detail)
		}
	default:
		e.logger.Warn("status request format not valid", "format", req.Format)
		return fmt.Sprintf("Request with data format '%s' is not valid", req.Format)
	}
}

func (e *Engine) health() float64 {
	return e.status.GetFloat(settings.SectionSession, settings.KeyHealth)
}

// minutesSinceLastCall floors the elapsed time since the last successful call
// to whole minutes.
func (e *Engine) minutesSinceLastCall() int {
	raw := e.status.GetString(settings.SectionLastCall, settings.KeyTimestamp)
	last, err := time.Parse(settings.TimestampLayout, raw)
	if err != nil {
		e.logger.Warn("cannot parse last successful call timestamp", "value", raw, "err", err)
		return 0
	}
	return int(e.now().Sub(last).Seconds()) / 60
}

// -----------------------------------------------------------------------------
// Rendering helpers
// -----------------------------------------------------------------------------

var magnitudeSuffixes = []string{"", " Thousand", " Million", " Billion", " Trillion"}

// magnitude renders a value scaled to its thousands magnitude, e.g.
// 58384152380 -> "58.38 Billion".
func magnitude(v *float64) string {
	if v == nil {
		return "NULL"
	}
	n := *v
	idx := 0
	if n != 0 {
		idx = int(math.Floor(math.Log10(math.Abs(n)) / 3))
	}
	if idx < 0 {
		idx = 0
	}
	if idx > len(magnitudeSuffixes)-1 {
		idx = len(magnitudeSuffixes) - 1
	}
	return fmt.Sprintf("%.2f%s", n/math.Pow(1000, float64(idx)), magnitudeSuffixes[idx])
}

// round2 renders a stored value to two decimals, or NULL when the database
// holds no value.
func round2(v *float64) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%.2f", *v)
}

func marshal(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(out)
}
