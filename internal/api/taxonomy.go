package api

// Local error codes reported in a synthesized CallStatus. These are distinct
// from CoinMarketCap's own error codes, which are passed through unchanged
// when the service returns a well-formed status block on a non-200 response.
// Code 0 is reserved for success.
const (
	ErrCodeMissingKeys     = 1 // response missing top-level data/status keys
	ErrCodeBadBody         = 2 // body not parseable as JSON
	ErrCodeConnection      = 3 // connection errors exhausted the retry budget
	ErrCodeTimeout         = 4 // timeouts exhausted the retry budget
	ErrCodeRedirects       = 5 // redirect loops exhausted the retry budget
	ErrCodeBadStatusSchema = 6 // status block missing required keys
	ErrCodeBadDataSchema   = 7 // a data entry missing required keys
	ErrCodeCountMismatch   = 8 // entry count does not match the requested range
)
