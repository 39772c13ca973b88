package api

import (
	"encoding/json"
	"net/http"

	"github.com/stuianna/CMCLogger/internal/model"
)

var requiredStatusKeys = []string{
	"timestamp", "error_code", "error_message", "elapsed", "credit_count",
}

var requiredAssetKeys = []string{
	"id", "name", "symbol", "slug", "cmc_rank", "num_market_pairs",
	"circulating_supply", "total_supply", "max_supply", "last_updated",
	"date_added", "tags", "platform",
}

var requiredQuoteKeys = []string{
	"price", "volume_24h", "market_cap", "percent_change_1h",
	"percent_change_24h", "percent_change_7d", "last_updated",
}

// parseResponse validates the received body against the expected envelope.
// On the canonical success code both sub-objects must validate for the cycle
// to be a success; on any other code the status block is still extracted so
// remote-reported error codes surface, but data is never populated.
func (c *Client) parseResponse(statusCode int, body []byte) bool {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.fail(ErrCodeBadBody, "Internal error: cannot parse JSON body from received response")
		return false
	}

	statusRaw, hasStatus := envelope["status"]

	if statusCode != http.StatusOK {
		if !hasStatus {
			c.fail(ErrCodeMissingKeys, "Internal error: response missing required top level keys")
			return false
		}
		status, ok := parseStatusBlock(statusRaw)
		if !ok {
			c.fail(ErrCodeBadStatusSchema, "Internal error: malformed status keys in received response")
			return false
		}
		c.logger.Warn("failed API request, received HTTP error from server",
			"http_status", statusCode,
			"error_code", status.ErrorCode,
			"error_message", status.ErrorMessage,
		)
		c.status = status
		c.data = nil
		return false
	}

	dataRaw, hasData := envelope["data"]
	if !hasStatus || !hasData {
		c.fail(ErrCodeMissingKeys, "Internal error: response missing required top level keys")
		return false
	}

	status, ok := parseStatusBlock(statusRaw)
	if !ok {
		c.fail(ErrCodeBadStatusSchema, "Internal error: malformed status keys in received response")
		return false
	}

	assets, errCode := parseDataBlock(dataRaw, c.settings.ConversionCurrency, c.settings.RequestedCount())
	if errCode != 0 {
		switch errCode {
		case ErrCodeCountMismatch:
			c.fail(errCode, "Internal error: number of received entries does not match requested range")
		default:
			c.fail(errCode, "Internal error: malformed data entry keys in received response")
		}
		return false
	}

	c.logger.Info("successful API call", "entries", len(assets))
	c.status = status
	c.data = assets
	return true
}

// parseStatusBlock validates the presence of every required status key before
// decoding. JSON decoding alone would silently zero-fill missing keys.
func parseStatusBlock(raw json.RawMessage) (model.CallStatus, bool) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return model.CallStatus{}, false
	}
	for _, k := range requiredStatusKeys {
		if _, ok := keys[k]; !ok {
			return model.CallStatus{}, false
		}
	}

	var status model.CallStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return model.CallStatus{}, false
	}
	return status, true
}

// parseDataBlock validates the data array: entry count first, then every
// entry's keys including the configured currency's quote keys. Returns the
// decoded assets or a nonzero local error code.
func parseDataBlock(raw json.RawMessage, currency string, expected int) ([]model.Asset, int) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, ErrCodeBadDataSchema
	}

	if len(entries) != expected {
		return nil, ErrCodeCountMismatch
	}

	assets := make([]model.Asset, 0, len(entries))
	for _, entry := range entries {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(entry, &keys); err != nil {
			return nil, ErrCodeBadDataSchema
		}
		for _, k := range requiredAssetKeys {
			if _, ok := keys[k]; !ok {
				return nil, ErrCodeBadDataSchema
			}
		}

		quoteRaw, ok := keys["quote"]
		if !ok {
			return nil, ErrCodeBadDataSchema
		}
		var quotes map[string]map[string]json.RawMessage
		if err := json.Unmarshal(quoteRaw, &quotes); err != nil {
			return nil, ErrCodeBadDataSchema
		}
		quote, ok := quotes[currency]
		if !ok {
			return nil, ErrCodeBadDataSchema
		}
		for _, k := range requiredQuoteKeys {
			if _, ok := quote[k]; !ok {
				return nil, ErrCodeBadDataSchema
			}
		}

		var asset model.Asset
		if err := json.Unmarshal(entry, &asset); err != nil {
			return nil, ErrCodeBadDataSchema
		}
		assets = append(assets, asset)
	}

	return assets, 0
}
