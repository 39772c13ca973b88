package api

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/stuianna/CMCLogger/internal/model"
)

// FetchLatest performs one call cycle: build the request, issue it with the
// transport retry policy, then validate the response shape. It reports
// whether the cycle ended in a fully validated success; the terminal
// CallStatus is always available through LatestStatus afterwards. A non-empty
// overrideKey replaces the configured API key for this and later calls.
func (c *Client) FetchLatest(ctx context.Context, overrideKey string) bool {
	if overrideKey != "" {
		c.settings.PrivateKey = overrideKey
	}

	c.lastCall = time.Now()

	statusCode, body, ok := c.getAPIResponse(ctx)
	if !ok {
		return false
	}

	return c.parseResponse(statusCode, body)
}

// getAPIResponse issues the HTTP GET, retrying transport failures with a
// linearly growing backoff until the fixed budget is exhausted. A received
// response of any HTTP status code counts as transport success.
func (c *Client) getAPIResponse(ctx context.Context) (int, []byte, bool) {
	reqURL := c.requestURL()
	c.logger.Debug("attempting API call",
		"url", c.baseURL,
		"start", c.settings.StartIndex,
		"limit", c.settings.RequestedCount(),
		"convert", c.settings.ConversionCurrency,
	)

	for attempt := 1; ; attempt++ {
		statusCode, body, err := c.doRequest(ctx, reqURL)
		if err == nil {
			return statusCode, body, true
		}

		if attempt > c.retries {
			code, msg := classifyTransportError(err)
			c.fail(code, msg)
			return 0, nil, false
		}

		c.logger.Warn("transport failure on API call attempt",
			"attempt", attempt,
			"retries", c.retries,
			"err", err,
		)

		select {
		case <-ctx.Done():
			code, msg := classifyTransportError(err)
			c.fail(code, msg)
			return 0, nil, false
		case <-time.After(time.Duration(2*attempt) * c.backoffUnit):
		}
	}
}

func (c *Client) doRequest(ctx context.Context, reqURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, err
	}

	// Header names as the CoinMarketCap API documents them.
	req.Header.Set("Accepts", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", c.settings.PrivateKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	return resp.StatusCode, body, nil
}

func (c *Client) requestURL() string {
	query := url.Values{}
	query.Set("start", strconv.Itoa(c.settings.StartIndex))
	query.Set("limit", strconv.Itoa(c.settings.RequestedCount()))
	query.Set("convert", c.settings.ConversionCurrency)
	query.Set("sort", "market_cap")
	return c.baseURL + "?" + query.Encode()
}

// classifyTransportError maps a transport failure onto the local taxonomy.
func classifyTransportError(err error) (int, string) {
	if errors.Is(err, errTooManyRedirects) {
		return ErrCodeRedirects, "Internal error: too many redirects performing API call"
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrCodeTimeout, "Internal error: timeout performing API call, no internet connection?"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout, "Internal error: timeout performing API call, no internet connection?"
	}

	return ErrCodeConnection, "Internal error: connection error performing API call"
}

// fail records a synthesized failure status and clears any held data.
func (c *Client) fail(code int, message string) {
	c.logger.Error(message, "error_code", code)
	c.status = model.CallStatus{
		Timestamp:    time.Now().Format(time.RFC3339),
		ErrorCode:    code,
		ErrorMessage: message,
		Elapsed:      0,
		CreditCount:  0,
	}
	c.data = nil
}
