package model

// -----------------------------------------------------------------------------
// Wire Types (CoinMarketCap /v1/cryptocurrency/listings/latest)
// -----------------------------------------------------------------------------

// CallStatus is the status envelope attached to every API response. The same
// shape is synthesized locally when a call fails before a well-formed response
// is received; see the api package for the local error code taxonomy.
type CallStatus struct {
	Timestamp    string `json:"timestamp"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	Elapsed      int    `json:"elapsed"`
	CreditCount  int    `json:"credit_count"`
}

// Quote holds the per-currency market quote for an asset. Pointer fields
// distinguish a JSON null from a missing key; CoinMarketCap returns null for
// thinly traded assets.
type Quote struct {
	Price            *float64 `json:"price"`
	Volume24h        *float64 `json:"volume_24h"`
	MarketCap        *float64 `json:"market_cap"`
	PercentChange1h  *float64 `json:"percent_change_1h"`
	PercentChange24h *float64 `json:"percent_change_24h"`
	PercentChange7d  *float64 `json:"percent_change_7d"`
	LastUpdated      string   `json:"last_updated"`
}

// Asset is one listings entry as received from the API. Quote is keyed by
// conversion currency; only the configured currency is requested.
type Asset struct {
	ID                int64            `json:"id"`
	Name              string           `json:"name"`
	Symbol            string           `json:"symbol"`
	Slug              string           `json:"slug"`
	CMCRank           int              `json:"cmc_rank"`
	NumMarketPairs    int              `json:"num_market_pairs"`
	CirculatingSupply *float64         `json:"circulating_supply"`
	TotalSupply       *float64         `json:"total_supply"`
	MaxSupply         *float64         `json:"max_supply"`
	LastUpdated       string           `json:"last_updated"`
	DateAdded         string           `json:"date_added"`
	Tags              []string         `json:"tags"`
	Platform          any              `json:"platform"`
	Quote             map[string]Quote `json:"quote"`
}

// -----------------------------------------------------------------------------
// Stored Types
// -----------------------------------------------------------------------------

// Record is the flattened row appended to an asset's table: the configured
// currency's quote hoisted to top level, tags/platform dropped, and all
// timestamps converted to unix seconds.
type Record struct {
	Timestamp         int64    // Ingestion time (unix seconds, wall clock at write)
	CirculatingSupply *float64 // Circulating supply
	CMCRank           int      // CoinMarketCap rank
	DateAdded         int64    // Asset listing date (unix seconds)
	ID                int64    // CoinMarketCap asset id
	LastUpdated       int64    // Quote last-updated (unix seconds)
	MaxSupply         *float64 // Max supply (null when uncapped)
	Name              string   // Display name
	MarketCap         *float64 // Market cap in conversion currency
	NumMarketPairs    int      // Number of market pairs
	PercentChange1h   *float64 // 1 hour percent change
	PercentChange7d   *float64 // 7 day percent change
	PercentChange24h  *float64 // 24 hour percent change
	Price             *float64 // Price in conversion currency
	Slug              string   // URL slug
	Symbol            string   // Ticker symbol, also the table name
	TotalSupply       *float64 // Total supply
	Volume24h         *float64 // 24 hour volume in conversion currency
}
