package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/stuianna/CMCLogger/internal/model"
)

// Fixed retry policy: extra attempts after the first, on transport failures
// only. The sleep before retry n is n * 2 * backoff unit.
const (
	defaultRetries     = 3
	defaultTimeout     = 5 * time.Second
	defaultBackoffUnit = time.Second
	maxRedirects       = 10
)

var errTooManyRedirects = errors.New("stopped after too many redirects")

// Client performs one polling cycle against the listings endpoint and holds
// the most recent terminal outcome. It is not safe for concurrent use; the
// daemon runs a single cycle at a time.
type Client struct {
	baseURL    string
	settings   Settings
	httpClient *http.Client
	logger     *slog.Logger

	retries     int
	backoffUnit time.Duration

	data     []model.Asset
	status   model.CallStatus
	lastCall time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a listings client with sanitized settings.
func NewClient(baseURL string, settings Settings, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  baseURL,
		settings: settings,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
		},
		logger:      slog.Default(),
		retries:     defaultRetries,
		backoffUnit: defaultBackoffUnit,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the number of extra attempts after the first.
func WithRetries(n int) ClientOption {
	return func(c *Client) {
		c.retries = n
	}
}

// WithBackoffUnit scales the retry backoff sleeps.
func WithBackoffUnit(d time.Duration) ClientOption {
	return func(c *Client) {
		c.backoffUnit = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// LatestStatus returns the status of the most recent call cycle, remote or
// synthesized.
func (c *Client) LatestStatus() model.CallStatus {
	return c.status
}

// LatestData returns the validated data of the most recent call cycle, or nil
// when the last cycle did not end in a fully validated success.
func (c *Client) LatestData() []model.Asset {
	return c.data
}

// Settings returns the sanitized request settings in use.
func (c *Client) Settings() Settings {
	return c.settings
}

// SecondsToNextCall returns the scheduling delay until the next call is due,
// floored at zero. Before any call has been made it returns 0.
func (c *Client) SecondsToNextCall() int {
	if c.lastCall.IsZero() {
		return 0
	}
	next := c.lastCall.Add(time.Duration(c.settings.CallInterval) * time.Minute)
	remaining := int(time.Until(next).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
