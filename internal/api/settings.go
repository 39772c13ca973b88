package api

import (
	"log/slog"

	"github.com/stuianna/CMCLogger/internal/settings"
)

// Settings holds the sanitized request configuration for the listings call.
type Settings struct {
	PrivateKey         string
	ConversionCurrency string
	StartIndex         int
	EndIndex           int
	CallInterval       int // minutes between calls
}

// Currencies CoinMarketCap accepts for the convert parameter.
var allowedCurrencies = map[string]bool{
	"USD": true, "ALL": true, "DZD": true, "ARS": true, "AMD": true, "AUD": true,
	"AZN": true, "BHD": true, "BDT": true, "BYN": true, "BMD": true, "BOB": true,
	"BAM": true, "BRL": true, "BGN": true, "KHR": true, "CAD": true, "CLP": true,
	"CNY": true, "COP": true, "CRC": true, "HRK": true, "CUP": true, "CZK": true,
	"DKK": true, "DOP": true, "EGP": true, "EUR": true, "GEL": true, "GHS": true,
	"GTQ": true, "HNL": true, "HKD": true, "HUF": true, "ISK": true, "INR": true,
	"IDR": true, "IRR": true, "IQD": true, "ILS": true, "JMD": true, "JPY": true,
	"JOD": true, "KZT": true, "KES": true, "KWD": true, "KGS": true, "LBP": true,
	"MKD": true, "MYR": true, "MUR": true, "MXN": true, "MDL": true, "MNT": true,
	"MAD": true, "MMK": true, "NAD": true, "NPR": true, "TWD": true, "NZD": true,
	"NIO": true, "NGN": true, "NOK": true, "OMR": true, "PKR": true, "PAB": true,
	"PEN": true, "PHP": true, "PLN": true, "GBP": true, "QAR": true, "RON": true,
	"RUB": true, "SAR": true, "RSD": true, "SGD": true, "ZAR": true, "KRW": true,
	"SSP": true, "VES": true, "LKR": true, "SEK": true, "CHF": true, "THB": true,
	"TTD": true, "TND": true, "TRY": true, "UGX": true, "UAH": true, "AED": true,
	"UYU": true, "UZS": true, "VND": true,
}

// SettingsFromStore reads the API section of the configuration file and
// sanitizes it. Invalid values never survive: each one is corrected to its
// default with a logged warning.
func SettingsFromStore(store *settings.Store, logger *slog.Logger) Settings {
	if logger == nil {
		logger = slog.Default()
	}

	s := Settings{
		PrivateKey:         store.GetString(settings.SectionAPI, settings.KeyPrivateKey),
		ConversionCurrency: store.GetString(settings.SectionAPI, settings.KeyConversionCurrency),
		StartIndex:         store.GetInt(settings.SectionAPI, settings.KeyStartIndex),
		EndIndex:           store.GetInt(settings.SectionAPI, settings.KeyEndIndex),
		CallInterval:       store.GetInt(settings.SectionAPI, settings.KeyInterval),
	}
	s.sanitize(logger)
	return s
}

func (s *Settings) sanitize(logger *slog.Logger) {
	if s.StartIndex < 1 || s.StartIndex > 4999 {
		logger.Warn("start index out of range [1, 4999], using default",
			"value", s.StartIndex,
			"default", settings.DefaultStartIndex,
		)
		s.StartIndex = settings.DefaultStartIndex
	}

	// Clamp, never swap: the request range stays anchored at the start index.
	if s.EndIndex < s.StartIndex {
		logger.Warn("end index cannot be less than start index, using start index",
			"value", s.EndIndex,
			"start_index", s.StartIndex,
		)
		s.EndIndex = s.StartIndex
	}

	if s.CallInterval <= 0 {
		logger.Warn("call interval must be positive, using default",
			"value", s.CallInterval,
			"default", settings.DefaultIntervalMinutes,
		)
		s.CallInterval = settings.DefaultIntervalMinutes
	}

	if !allowedCurrencies[s.ConversionCurrency] {
		logger.Warn("conversion currency not valid, using default",
			"value", s.ConversionCurrency,
			"default", settings.DefaultConversionCurrency,
		)
		s.ConversionCurrency = settings.DefaultConversionCurrency
	}

	if s.PrivateKey == "" {
		logger.Warn("API private key cannot be empty, using placeholder default")
		s.PrivateKey = settings.DefaultPrivateKey
	}
}

// RequestedCount is the number of entries one call asks for.
func (s Settings) RequestedCount() int {
	return s.EndIndex - s.StartIndex + 1
}
