// Package model defines the domain types shared across the logger:
// the CoinMarketCap wire format, the per-call status envelope, and the
// flattened per-symbol record persisted to the database.
package model
