package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stuianna/CMCLogger/internal/model"
)

func testSettings() Settings {
	return Settings{
		PrivateKey:         "test-key",
		ConversionCurrency: "AUD",
		StartIndex:         1,
		EndIndex:           2,
		CallInterval:       5,
	}
}

// listingsBody builds a well-formed response body with n entries.
func listingsBody(n int, currency string) string {
	entries := make([]string, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, fmt.Sprintf(`{
			"id": %d,
			"name": "Coin%d",
			"symbol": "C%d",
			"slug": "coin-%d",
			"cmc_rank": %d,
			"num_market_pairs": 100,
			"circulating_supply": 17000000,
			"total_supply": 17000000,
			"max_supply": 21000000,
			"last_updated": "2019-08-28T00:33:33.000Z",
			"date_added": "2013-04-28T00:00:00.000Z",
			"tags": ["mineable"],
			"platform": null,
			"quote": {
				"%s": {
					"price": 10857.98,
					"volume_24h": 25267403944,
					"market_cap": 194240950222.6,
					"percent_change_1h": -0.11,
					"percent_change_24h": -1.08,
					"percent_change_7d": 3.32,
					"last_updated": "2019-08-28T00:33:33.000Z"
				}
			}
		}`, i+1, i+1, i+1, i+1, i+1, currency))
	}
	return fmt.Sprintf(`{
		"status": {
			"timestamp": "2019-08-28T00:33:34.000Z",
			"error_code": 0,
			"error_message": null,
			"elapsed": 10,
			"credit_count": 1
		},
		"data": [%s]
	}`, strings.Join(entries, ","))
}

func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://api.example.com", testSettings())

		if c.baseURL != "https://api.example.com" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://api.example.com")
		}
		if c.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 5*time.Second)
		}
		if c.retries != 3 {
			t.Errorf("retries = %d, want %d", c.retries, 3)
		}
		if c.backoffUnit != time.Second {
			t.Errorf("backoffUnit = %v, want %v", c.backoffUnit, time.Second)
		}
	})

	t.Run("with options", func(t *testing.T) {
		c := NewClient("https://api.example.com", testSettings(),
			WithTimeout(10*time.Second),
			WithRetries(1),
			WithBackoffUnit(time.Millisecond),
		)
		if c.httpClient.Timeout != 10*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 10*time.Second)
		}
		if c.retries != 1 {
			t.Errorf("retries = %d, want %d", c.retries, 1)
		}
		if c.backoffUnit != time.Millisecond {
			t.Errorf("backoffUnit = %v, want %v", c.backoffUnit, time.Millisecond)
		}
	})
}

func TestFetchLatestSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if got := query.Get("start"); got != "1" {
			t.Errorf("start = %q, want %q", got, "1")
		}
		if got := query.Get("limit"); got != "2" {
			t.Errorf("limit = %q, want %q", got, "2")
		}
		if got := query.Get("convert"); got != "AUD" {
			t.Errorf("convert = %q, want %q", got, "AUD")
		}
		if got := query.Get("sort"); got != "market_cap" {
			t.Errorf("sort = %q, want %q", got, "market_cap")
		}
		if got := r.Header.Get("X-CMC_PRO_API_KEY"); got != "test-key" {
			t.Errorf("api key header = %q, want %q", got, "test-key")
		}
		fmt.Fprint(w, listingsBody(2, "AUD"))
	}))
	defer server.Close()

	c := NewClient(server.URL, testSettings())

	if !c.FetchLatest(context.Background(), "") {
		t.Fatalf("FetchLatest = false, want true, status %+v", c.LatestStatus())
	}

	if got := c.LatestStatus().ErrorCode; got != 0 {
		t.Errorf("ErrorCode = %d, want 0", got)
	}
	data := c.LatestData()
	if len(data) != 2 {
		t.Fatalf("len(LatestData()) = %d, want 2", len(data))
	}
	if data[0].Symbol != "C1" {
		t.Errorf("Symbol = %q, want %q", data[0].Symbol, "C1")
	}
	quote, ok := data[0].Quote["AUD"]
	if !ok {
		t.Fatal("AUD quote missing from decoded asset")
	}
	if quote.Price == nil || *quote.Price != 10857.98 {
		t.Errorf("Price = %v, want 10857.98", quote.Price)
	}
}

func TestFetchLatestKeyOverride(t *testing.T) {
	var gotKey atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.Header.Get("X-CMC_PRO_API_KEY"))
		fmt.Fprint(w, listingsBody(2, "AUD"))
	}))
	defer server.Close()

	c := NewClient(server.URL, testSettings())
	c.FetchLatest(context.Background(), "override-key")

	if got := gotKey.Load(); got != "override-key" {
		t.Errorf("api key header = %q, want %q", got, "override-key")
	}
}

func TestFetchLatestValidation(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode int
	}{
		{
			name:     "body not parseable",
			status:   http.StatusOK,
			body:     "not json at all",
			wantCode: ErrCodeBadBody,
		},
		{
			name:     "missing data key",
			status:   http.StatusOK,
			body:     `{"status": {"timestamp": "t", "error_code": 0, "error_message": "", "elapsed": 1, "credit_count": 1}}`,
			wantCode: ErrCodeMissingKeys,
		},
		{
			name:     "missing status key",
			status:   http.StatusOK,
			body:     `{"data": []}`,
			wantCode: ErrCodeMissingKeys,
		},
		{
			name:     "malformed status schema",
			status:   http.StatusOK,
			body:     `{"status": {"timestamp": "t"}, "data": []}`,
			wantCode: ErrCodeBadStatusSchema,
		},
		{
			name:     "entry count mismatch",
			status:   http.StatusOK,
			body:     listingsBody(1, "AUD"),
			wantCode: ErrCodeCountMismatch,
		},
		{
			name:     "malformed data entry",
			status:   http.StatusOK,
			body:     strings.Replace(listingsBody(2, "AUD"), `"cmc_rank": 1,`, "", 1),
			wantCode: ErrCodeBadDataSchema,
		},
		{
			name:     "quote for wrong currency",
			status:   http.StatusOK,
			body:     listingsBody(2, "USD"),
			wantCode: ErrCodeBadDataSchema,
		},
		{
			name:     "non-200 without status block",
			status:   http.StatusInternalServerError,
			body:     `{"oops": true}`,
			wantCode: ErrCodeMissingKeys,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			c := NewClient(server.URL, testSettings())

			if c.FetchLatest(context.Background(), "") {
				t.Fatal("FetchLatest = true, want false")
			}
			if got := c.LatestStatus().ErrorCode; got != tt.wantCode {
				t.Errorf("ErrorCode = %d, want %d", got, tt.wantCode)
			}
			if c.LatestData() != nil {
				t.Error("LatestData() should be nil after a failed call")
			}
		})
	}
}

func TestFetchLatestRemoteErrorPassthrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{
			"status": {
				"timestamp": "2019-08-28T00:33:34.000Z",
				"error_code": 1002,
				"error_message": "API key missing.",
				"elapsed": 10,
				"credit_count": 0
			}
		}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, testSettings())

	if c.FetchLatest(context.Background(), "") {
		t.Fatal("FetchLatest = true, want false")
	}
	status := c.LatestStatus()
	if status.ErrorCode != 1002 {
		t.Errorf("ErrorCode = %d, want remote code 1002", status.ErrorCode)
	}
	if status.ErrorMessage != "API key missing." {
		t.Errorf("ErrorMessage = %q, want remote message", status.ErrorMessage)
	}
	if c.LatestData() != nil {
		t.Error("LatestData() should be nil on a non-200 response")
	}
}

func TestFetchLatestClearsDataOnFailure(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			fmt.Fprint(w, "garbage")
			return
		}
		fmt.Fprint(w, listingsBody(2, "AUD"))
	}))
	defer server.Close()

	c := NewClient(server.URL, testSettings())

	if !c.FetchLatest(context.Background(), "") {
		t.Fatal("first FetchLatest should succeed")
	}
	if c.LatestData() == nil {
		t.Fatal("LatestData() should hold data after success")
	}

	fail.Store(true)
	if c.FetchLatest(context.Background(), "") {
		t.Fatal("second FetchLatest should fail")
	}
	if c.LatestData() != nil {
		t.Error("LatestData() should be cleared by a failed call")
	}
}

// errTransport always fails with the given error, counting attempts.
type errTransport struct {
	err      error
	attempts atomic.Int64
}

func (t *errTransport) RoundTrip(*http.Request) (*http.Response, error) {
	t.attempts.Add(1)
	return nil, t.err
}

// timeoutError satisfies net.Error with Timeout() == true.
type timeoutError struct{}

func (timeoutError) Error() string   { return "deadline exceeded" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestFetchLatestTransportFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"connection error", errors.New("connection refused"), ErrCodeConnection},
		{"timeout", timeoutError{}, ErrCodeTimeout},
		{"too many redirects", errTooManyRedirects, ErrCodeRedirects},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &errTransport{err: tt.err}
			c := NewClient("http://api.invalid", testSettings(),
				WithHTTPClient(&http.Client{Transport: transport}),
				WithBackoffUnit(time.Millisecond),
			)

			if c.FetchLatest(context.Background(), "") {
				t.Fatal("FetchLatest = true, want false")
			}

			// Retry budget of 3 means exactly 4 total attempts.
			if got := transport.attempts.Load(); got != 4 {
				t.Errorf("attempts = %d, want 4", got)
			}
			if got := c.LatestStatus().ErrorCode; got != tt.wantCode {
				t.Errorf("ErrorCode = %d, want %d", got, tt.wantCode)
			}
			if c.LatestData() != nil {
				t.Error("LatestData() should be nil after exhausted retries")
			}
		})
	}
}

func TestFetchLatestTransportSuccessAfterRetry(t *testing.T) {
	var attempts atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			// Kill the connection so the client sees a transport error.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("server does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Fatalf("hijack failed: %v", err)
			}
			conn.Close()
			return
		}
		fmt.Fprint(w, listingsBody(2, "AUD"))
	}))
	defer server.Close()

	c := NewClient(server.URL, testSettings(), WithBackoffUnit(time.Millisecond))

	if !c.FetchLatest(context.Background(), "") {
		t.Fatalf("FetchLatest = false, want success on third attempt, status %+v", c.LatestStatus())
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestSecondsToNextCall(t *testing.T) {
	t.Run("zero before any call", func(t *testing.T) {
		c := NewClient("http://api.invalid", testSettings())
		if got := c.SecondsToNextCall(); got != 0 {
			t.Errorf("SecondsToNextCall() = %d, want 0", got)
		}
	})

	t.Run("counts down from the call interval", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, listingsBody(2, "AUD"))
		}))
		defer server.Close()

		c := NewClient(server.URL, testSettings())
		c.FetchLatest(context.Background(), "")

		got := c.SecondsToNextCall()
		if got <= 0 || got > 5*60 {
			t.Errorf("SecondsToNextCall() = %d, want in (0, 300]", got)
		}
	})

	t.Run("floors at zero when interval has elapsed", func(t *testing.T) {
		c := NewClient("http://api.invalid", testSettings())
		c.lastCall = time.Now().Add(-10 * time.Minute)
		if got := c.SecondsToNextCall(); got != 0 {
			t.Errorf("SecondsToNextCall() = %d, want 0", got)
		}
	})
}

func TestParseStatusBlock(t *testing.T) {
	t.Run("decodes a full block", func(t *testing.T) {
		raw := json.RawMessage(`{
			"timestamp": "2019-08-28T00:33:34.000Z",
			"error_code": 0,
			"error_message": "",
			"elapsed": 10,
			"credit_count": 1
		}`)
		status, ok := parseStatusBlock(raw)
		if !ok {
			t.Fatal("parseStatusBlock failed on well-formed block")
		}
		want := model.CallStatus{
			Timestamp:   "2019-08-28T00:33:34.000Z",
			Elapsed:     10,
			CreditCount: 1,
		}
		if status != want {
			t.Errorf("status = %+v, want %+v", status, want)
		}
	})

	t.Run("rejects missing keys", func(t *testing.T) {
		raw := json.RawMessage(`{"timestamp": "t", "error_code": 0}`)
		if _, ok := parseStatusBlock(raw); ok {
			t.Error("parseStatusBlock should fail when keys are missing")
		}
	})

	t.Run("rejects non-object", func(t *testing.T) {
		if _, ok := parseStatusBlock(json.RawMessage(`[1, 2]`)); ok {
			t.Error("parseStatusBlock should fail on a non-object")
		}
	})
}
