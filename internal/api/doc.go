// Package api implements the CoinMarketCap listings client: request
// construction, transport retry policy, response validation, and the local
// error code taxonomy reported through model.CallStatus.
package api
