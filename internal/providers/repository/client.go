package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/GriffinCanCode/basket-facade/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/basket-facade/internal/infrastructure/resilience"
	httpclient "github.com/GriffinCanCode/basket-facade/internal/providers/http/client"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	treeEntryPath = "/api/v1/repo/tree_entry"
	commitPath    = "/api/v1/repo/commit"

	// DefaultRef is the reference entries are looked up at.
	DefaultRef = "HEAD"
)

// Reader is the read side of the repository API the facade depends on.
type Reader interface {
	TreeEntry(ctx context.Context, owner, basket, path string) (*Entry, error)
}

// Client talks to the repository read API.
type Client struct {
	http    *httpclient.Client
	ref     string
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewClient wraps an HTTP client. ref is the commit reference used by
// TreeEntry; empty means HEAD.
func NewClient(hc *httpclient.Client, ref string, logger *zap.Logger, metrics *monitoring.Metrics) *Client {
	if ref == "" {
		ref = DefaultRef
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: hc, ref: ref, logger: logger, metrics: metrics}
}

// WithCookies returns a client forwarding the given session cookies.
func (c *Client) WithCookies(cookies []*http.Cookie) *Client {
	cp := *c
	cp.http = c.http.WithCookies(cookies)
	return &cp
}

// Ref returns the configured commit reference.
func (c *Client) Ref() string { return c.ref }

// TreeEntry looks up path at the configured reference.
func (c *Client) TreeEntry(ctx context.Context, owner, basket, path string) (*Entry, error) {
	return c.TreeEntryAt(ctx, owner, basket, c.ref, path)
}

// TreeEntryAt looks up path at an explicit commit reference.
func (c *Client) TreeEntryAt(ctx context.Context, owner, basket, ref, path string) (*Entry, error) {
	body, err := c.get(ctx, "tree_entry", treeEntryPath, map[string]string{
		"username":   owner,
		"basket":     basket,
		"commit_ref": ref,
		"path":       path,
	})
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := sonic.Unmarshal(body, &entry); err != nil {
		return nil, &DecodeError{Op: "tree entry", Err: err}
	}
	if err := entry.validate(); err != nil {
		return nil, &DecodeError{Op: "tree entry", Err: err}
	}
	return &entry, nil
}

// Commit resolves a reference to a commit.
func (c *Client) Commit(ctx context.Context, owner, basket, ref string) (*Commit, error) {
	body, err := c.get(ctx, "commit", commitPath, map[string]string{
		"username":  owner,
		"basket":    basket,
		"reference": ref,
	})
	if err != nil {
		return nil, err
	}

	var commit Commit
	if err := sonic.Unmarshal(body, &commit); err != nil {
		return nil, &DecodeError{Op: "commit", Err: err}
	}
	if commit.ID == "" {
		return nil, &DecodeError{Op: "commit", Err: errors.New("missing commit id")}
	}
	return &commit, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, query map[string]string) ([]byte, error) {
	timer := monitoring.NewTimer(c.metrics, endpoint)
	url := c.http.Resty.BaseURL + path

	req, err := c.http.Request(ctx)
	if err != nil {
		timer.Stop("rejected")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", endpoint, ctxErr)
		}
		return nil, &NetworkError{Op: "GET", URL: url, Err: err}
	}

	resp, err := c.http.ExecuteWithBreaker(func() (*resty.Response, error) {
		return req.SetQueryParams(query).Get(path)
	})

	var statusErr *httpclient.StatusError
	switch {
	case err == nil:
	case errors.As(err, &statusErr):
		// Handled with the other non-2xx statuses below.
	case ctx.Err() != nil:
		timer.Stop("cancelled")
		return nil, fmt.Errorf("%s: %w", endpoint, ctx.Err())
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		timer.Stop("rejected")
		return nil, &NetworkError{Op: "GET", URL: url, Err: err}
	default:
		timer.Stop("error")
		c.logger.Debug("repository request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, &NetworkError{Op: "GET", URL: url, Err: err}
	}

	timer.Stop(strconv.Itoa(resp.StatusCode()))
	if !resp.IsSuccess() {
		ne := &NetworkError{Op: "GET", URL: url, Status: resp.StatusCode(), Err: err}
		var msg apiMessage
		if len(resp.Body()) > 0 && sonic.Unmarshal(resp.Body(), &msg) == nil {
			ne.Msg = msg.Msg
		}
		return nil, ne
	}
	return resp.Body(), nil
}
