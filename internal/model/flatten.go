package model

import (
	"fmt"
	"time"
)

// Flatten converts a wire Asset into the stored Record shape, hoisting the
// quote for the given conversion currency and stamping the ingestion time.
func Flatten(a Asset, currency string, now time.Time) (Record, error) {
	q, ok := a.Quote[currency]
	if !ok {
		return Record{}, fmt.Errorf("asset %s: no quote for currency %s", a.Symbol, currency)
	}

	lastUpdated, err := isoToUnix(a.LastUpdated)
	if err != nil {
		return Record{}, fmt.Errorf("asset %s: parse last_updated: %w", a.Symbol, err)
	}
	dateAdded, err := isoToUnix(a.DateAdded)
	if err != nil {
		return Record{}, fmt.Errorf("asset %s: parse date_added: %w", a.Symbol, err)
	}

	return Record{
		Timestamp:         now.Unix(),
		CirculatingSupply: a.CirculatingSupply,
		CMCRank:           a.CMCRank,
		DateAdded:         dateAdded,
		ID:                a.ID,
		LastUpdated:       lastUpdated,
		MaxSupply:         a.MaxSupply,
		Name:              a.Name,
		MarketCap:         q.MarketCap,
		NumMarketPairs:    a.NumMarketPairs,
		PercentChange1h:   q.PercentChange1h,
		PercentChange7d:   q.PercentChange7d,
		PercentChange24h:  q.PercentChange24h,
		Price:             q.Price,
		Slug:              a.Slug,
		Symbol:            a.Symbol,
		TotalSupply:       a.TotalSupply,
		Volume24h:         q.Volume24h,
	}, nil
}

// isoToUnix converts an ISO-8601 timestamp to unix seconds.
func isoToUnix(iso string) (int64, error) {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}
