// Package client provides the GitHub users HTTP client with error
// classification, rate limit tracking and request metrics.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/gh-user-sync/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for GitHub client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usersync_requests_total",
		Help: "Total GitHub requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "usersync_request_duration_seconds",
		Help:    "GitHub request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "usersync_fetch_errors_total",
		Help: "Total failed GitHub fetches by error kind",
	}, []string{"kind"})
)

// PageSize is the number of users requested per page.
const PageSize = 20

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com"

// Endpoint labels used for metrics and logs.
const (
	endpointUsers      = "/users"
	endpointUserDetail = "/users/{login}"
)

// Client fetches pages of users and single user profiles.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.Tracker
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API, without trailing slash.
	BaseURL string

	// User-Agent header (REQUIRED by GitHub)
	UserAgent string

	// Token is an optional personal access token.
	Token string

	// Timeout bounds a single request including reading the body.
	Timeout time.Duration

	// RespectRateLimit refuses requests locally while the quota is exhausted.
	RespectRateLimit bool
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		BaseURL:          DefaultBaseURL,
		UserAgent:        userAgent,
		Timeout:          30 * time.Second,
		RespectRateLimit: true,
	}
}

// New creates a new GitHub client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "github-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: ratelimit.NewTracker(logger),
		config:      cfg,
		logger:      logger,
	}, nil
}

// FetchPage fetches the page of users whose IDs are strictly greater than since.
func (c *Client) FetchPage(ctx context.Context, since int64) ([]User, error) {
	query := url.Values{}
	query.Set("since", strconv.FormatInt(since, 10))
	query.Set("per_page", strconv.Itoa(PageSize))

	body, err := c.get(ctx, endpointUsers, "/users", query)
	if err != nil {
		return nil, err
	}

	users, err := DecodeUsers(body)
	if err != nil {
		return nil, c.fail(endpointUsers, &FetchError{
			Kind:    KindDecodingFailure,
			Message: "decode users page",
			Err:     err,
		})
	}

	c.logger.Debug().
		Int64("since", since).
		Int("count", len(users)).
		Msg("Fetched users page")

	return users, nil
}

// FetchDetail fetches the profile of a single user by login.
func (c *Client) FetchDetail(ctx context.Context, login string) (*UserDetail, error) {
	if strings.TrimSpace(login) == "" {
		return nil, c.fail(endpointUserDetail, &FetchError{
			Kind:    KindInvalidRequest,
			Message: "login is empty",
		})
	}

	body, err := c.get(ctx, endpointUserDetail, "/users/"+url.PathEscape(login), nil)
	if err != nil {
		return nil, err
	}

	detail, err := DecodeUserDetail(body)
	if err != nil {
		return nil, c.fail(endpointUserDetail, &FetchError{
			Kind:    KindDecodingFailure,
			Message: "decode user detail",
			Err:     err,
		})
	}

	return detail, nil
}

// get performs a GET request and returns the body of a 2xx response.
// endpoint is the metrics label, path the concrete request path.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	target, err := c.buildURL(path, query)
	if err != nil {
		return nil, c.fail(endpoint, &FetchError{
			Kind:    KindInvalidRequest,
			Message: "build request URL",
			Err:     err,
		})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, c.fail(endpoint, &FetchError{
			Kind:    KindInvalidRequest,
			Message: "create request",
			Err:     err,
		})
	}

	if c.config.RespectRateLimit && !c.rateLimiter.ShouldAllowRequest() {
		requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, c.fail(endpoint, &FetchError{
			Kind:       KindServerError,
			StatusCode: http.StatusForbidden,
			Message:    "request blocked locally",
			Err:        ratelimit.ErrRateLimited,
		})
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", target).
		Msg("Executing GitHub request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, c.fail(endpoint, &FetchError{
			Kind:    KindNoResponseBody,
			Message: "request failed",
			Err:     err,
		})
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if err := c.rateLimiter.UpdateFromHeaders(resp.Header); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, c.fail(endpoint, &FetchError{
			Kind:       KindServerError,
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
		})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(endpoint, &FetchError{
			Kind:    KindNoResponseBody,
			Message: "read response body",
			Err:     err,
		})
	}
	if len(body) == 0 {
		return nil, c.fail(endpoint, &FetchError{
			Kind:    KindNoResponseBody,
			Message: "empty response body",
		})
	}

	return body, nil
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	base, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", err
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("base URL %q must be absolute", c.config.BaseURL)
	}

	// path is already escaped; JoinPath treats its elements that way.
	u := base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// fail records and logs a fetch error before handing it back.
func (c *Client) fail(endpoint string, fe *FetchError) *FetchError {
	fetchErrorsTotal.WithLabelValues(string(fe.Kind)).Inc()

	evt := c.logger.Warn()
	if fe.Err != nil {
		evt = evt.Err(fe.Err)
	}
	evt.Str("endpoint", endpoint).
		Str("kind", string(fe.Kind)).
		Int("status", fe.StatusCode).
		Msg("GitHub request error")

	return fe
}

// RateLimit returns the last observed rate limit state.
func (c *Client) RateLimit() ratelimit.State {
	return c.rateLimiter.State()
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
