package settings

import "time"

// Section and key names for the configuration file (config.ini).
const (
	SectionAPI            = "CMC_API"
	KeyPrivateKey         = "api_private_key"
	KeyConversionCurrency = "conversion_currency"
	KeyCurrencySymbol     = "currency_symbol"
	KeyStartIndex         = "rank_start_index"
	KeyEndIndex           = "rank_end_index"
	KeyInterval           = "request_interval"
	SectionGeneral        = "General"
	KeyStatusFileFormat   = "status_file_format"
)

// Declared defaults for the configuration file.
const (
	DefaultPrivateKey         = "your-private-key-here"
	DefaultConversionCurrency = "AUD"
	DefaultCurrencySymbol     = "$"
	DefaultStartIndex         = 1
	DefaultEndIndex           = 200
	DefaultIntervalMinutes    = 5
	DefaultStatusFileFormat   = "ini"
)

// Section and key names for the status file (status.ini).
const (
	SectionLastCall       = "Last Successful Call"
	SectionLastFailedCall = "Last Failed Call"
	SectionSession        = "Current Session"
	SectionAllTime        = "All Time"

	KeyTimestamp       = "timestamp"
	KeyErrorCode       = "error_code"
	KeyErrorMessage    = "error_message"
	KeyElapsed         = "elapsed"
	KeyCreditCount     = "credit_count"
	KeySuccessfulCalls = "successful_calls"
	KeyFailedCalls     = "failed_calls"
	KeySuccessRate     = "success_rate"
	KeyHealth          = "health"
)

// TimestampLayout is the local-time format written to the status file and
// parsed back by queries.
const TimestampLayout = "2006-01-02 15:04:05-07:00"

// ConfigExpectations declares the full schema of the configuration file.
func ConfigExpectations() []Expectation {
	return []Expectation{
		{SectionAPI, KeyPrivateKey, KindString, DefaultPrivateKey},
		{SectionAPI, KeyConversionCurrency, KindString, DefaultConversionCurrency},
		{SectionAPI, KeyCurrencySymbol, KindString, DefaultCurrencySymbol},
		{SectionAPI, KeyStartIndex, KindInt, DefaultStartIndex},
		{SectionAPI, KeyEndIndex, KindInt, DefaultEndIndex},
		{SectionAPI, KeyInterval, KindInt, DefaultIntervalMinutes},
		{SectionGeneral, KeyStatusFileFormat, KindString, DefaultStatusFileFormat},
	}
}

// StatusExpectations declares the full schema of the status file. The default
// last-successful-call timestamp is the time the file is first created, so
// "minutes since last call" is well defined before any call has been made.
func StatusExpectations(now time.Time) []Expectation {
	return []Expectation{
		{SectionLastCall, KeyTimestamp, KindString, now.Format(TimestampLayout)},
		{SectionLastCall, KeyErrorCode, KindInt, 0},
		{SectionLastCall, KeyErrorMessage, KindString, ""},
		{SectionLastCall, KeyElapsed, KindInt, 0},
		{SectionLastCall, KeyCreditCount, KindInt, 0},
		{SectionLastFailedCall, KeyTimestamp, KindString, ""},
		{SectionLastFailedCall, KeyErrorCode, KindInt, 0},
		{SectionLastFailedCall, KeyErrorMessage, KindString, ""},
		{SectionLastFailedCall, KeyElapsed, KindInt, 0},
		{SectionLastFailedCall, KeyCreditCount, KindInt, 0},
		{SectionSession, KeyHealth, KindFloat, 100.0},
		{SectionSession, KeySuccessfulCalls, KindInt, 0},
		{SectionSession, KeyFailedCalls, KindInt, 0},
		{SectionSession, KeySuccessRate, KindFloat, 100.0},
		{SectionAllTime, KeySuccessfulCalls, KindInt, 0},
		{SectionAllTime, KeyFailedCalls, KindInt, 0},
		{SectionAllTime, KeySuccessRate, KindFloat, 100.0},
	}
}
