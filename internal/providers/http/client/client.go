package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/GriffinCanCode/basket-facade/internal/infrastructure/resilience"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Client wraps resty with rate limiting and circuit breaker protection.
// It is immutable after construction; WithCookies derives request-scoped
// copies that share the transport, limiter and breaker.
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
	cookies []*http.Cookie
}

// Options configures NewClient.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, <= 0 means unlimited
	UserAgent string
	Breaker   *resilience.Breaker
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// NewClient creates an HTTP client for same-origin style API calls.
// Requests are never retried automatically.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "BasketFacade/1.0"
	}

	// Pooled transport from retryablehttp; its retry loop stays unused.
	pooled := retryablehttp.NewClient()
	pooled.RetryMax = 0
	pooled.Logger = nil

	restyClient := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json").
		SetTransport(pooled.HTTPClient.Transport)

	breaker := opts.Breaker
	if breaker == nil {
		breaker = resilience.New("repository-api", resilience.Settings{
			MaxRequests: 2,
			Interval:    time.Minute,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5 ||
					(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.5)
			},
		})
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		Resty:   restyClient,
		Limiter: limiter,
		Breaker: breaker,
	}
}

// WithCookies returns a copy that attaches cookies to every request. This is
// how ambient session credentials of the embedding page reach the API.
func (c *Client) WithCookies(cookies []*http.Cookie) *Client {
	cp := *c
	cp.cookies = append([]*http.Cookie(nil), cookies...)
	return &cp
}

// Cookies returns the attached cookies.
func (c *Client) Cookies() []*http.Cookie {
	return c.cookies
}

// Request creates a new request with rate limiting and circuit breaker protection
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if c.Breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrCircuitOpen
	}

	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	return c.Resty.R().SetContext(ctx).SetCookies(c.cookies), nil
}

// ExecuteWithBreaker runs fn through the breaker. 5xx responses count as
// failures and come back as *StatusError alongside the response.
func (c *Client) ExecuteWithBreaker(fn func() (*resty.Response, error)) (*resty.Response, error) {
	return resilience.Do(c.Breaker, func() (*resty.Response, error) {
		resp, err := fn()
		if err != nil {
			return resp, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, &StatusError{Code: resp.StatusCode(), Status: resp.Status()}
		}
		return resp, nil
	})
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.Breaker.State()
}
