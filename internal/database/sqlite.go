package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/glebarez/go-sqlite"

	"github.com/stuianna/CMCLogger/internal/model"
)

// DB wraps the SQLite connection holding the per-symbol record tables.
type DB struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the SQLite database at path.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{db: db, logger: logger}, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// HasTable reports whether a table for the given symbol exists.
func (d *DB) HasTable(ctx context.Context, symbol string) (bool, error) {
	var name string
	err := d.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, symbol,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query sqlite_master: %w", err)
	}
	return true, nil
}

// TableNames returns the names of all symbol tables.
func (d *DB) TableNames(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query sqlite_master: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// recordColumns is the fixed schema shared by every symbol table.
const recordColumns = `(
	timestamp INTEGER,
	circulating_supply REAL,
	cmc_rank INTEGER,
	date_added INTEGER,
	id INTEGER,
	last_updated INTEGER,
	max_supply INTEGER,
	name TEXT,
	market_cap REAL,
	num_market_pairs INTEGER,
	percent_change_1h REAL,
	percent_change_7d REAL,
	percent_change_24h REAL,
	price REAL,
	slug TEXT,
	symbol TEXT,
	total_supply REAL,
	volume_24h REAL
)`

// CreateRecordTable creates the table for a symbol if it does not exist.
func (d *DB) CreateRecordTable(ctx context.Context, symbol string) error {
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s %s", quoteIdent(symbol), recordColumns)
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", symbol, err)
	}
	d.logger.Debug("created record table", "symbol", symbol)
	return nil
}

// InsertRecord appends one flattened record to its symbol's table.
func (d *DB) InsertRecord(ctx context.Context, rec model.Record) error {
	stmt := fmt.Sprintf(`INSERT INTO %s (
		timestamp, circulating_supply, cmc_rank, date_added, id, last_updated,
		max_supply, name, market_cap, num_market_pairs, percent_change_1h,
		percent_change_7d, percent_change_24h, price, slug, symbol,
		total_supply, volume_24h
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, quoteIdent(rec.Symbol))

	_, err := d.db.ExecContext(ctx, stmt,
		rec.Timestamp,
		rec.CirculatingSupply,
		rec.CMCRank,
		rec.DateAdded,
		rec.ID,
		rec.LastUpdated,
		rec.MaxSupply,
		rec.Name,
		rec.MarketCap,
		rec.NumMarketPairs,
		rec.PercentChange1h,
		rec.PercentChange7d,
		rec.PercentChange24h,
		rec.Price,
		rec.Slug,
		rec.Symbol,
		rec.TotalSupply,
		rec.Volume24h,
	)
	if err != nil {
		return fmt.Errorf("insert record for %s: %w", rec.Symbol, err)
	}
	return nil
}

// LatestRecord returns the most recently ingested row for a symbol, or nil
// when the symbol has never been stored.
func (d *DB) LatestRecord(ctx context.Context, symbol string) (*model.Record, error) {
	exists, err := d.HasTable(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	stmt := fmt.Sprintf(`SELECT
		timestamp, circulating_supply, cmc_rank, date_added, id, last_updated,
		max_supply, name, market_cap, num_market_pairs, percent_change_1h,
		percent_change_7d, percent_change_24h, price, slug, symbol,
		total_supply, volume_24h
	FROM %s ORDER BY timestamp DESC LIMIT 1`, quoteIdent(symbol))

	var rec model.Record
	var circulating, maxSupply, marketCap, pc1h, pc7d, pc24h, price, totalSupply, volume sql.NullFloat64

	err = d.db.QueryRowContext(ctx, stmt).Scan(
		&rec.Timestamp,
		&circulating,
		&rec.CMCRank,
		&rec.DateAdded,
		&rec.ID,
		&rec.LastUpdated,
		&maxSupply,
		&rec.Name,
		&marketCap,
		&rec.NumMarketPairs,
		&pc1h,
		&pc7d,
		&pc24h,
		&price,
		&rec.Slug,
		&rec.Symbol,
		&totalSupply,
		&volume,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest record for %s: %w", symbol, err)
	}

	rec.CirculatingSupply = nullableFloat(circulating)
	rec.MaxSupply = nullableFloat(maxSupply)
	rec.MarketCap = nullableFloat(marketCap)
	rec.PercentChange1h = nullableFloat(pc1h)
	rec.PercentChange7d = nullableFloat(pc7d)
	rec.PercentChange24h = nullableFloat(pc24h)
	rec.Price = nullableFloat(price)
	rec.TotalSupply = nullableFloat(totalSupply)
	rec.Volume24h = nullableFloat(volume)

	return &rec, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// quoteIdent quotes a symbol for use as a table name. Symbols come from the
// remote API and can contain anything.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
