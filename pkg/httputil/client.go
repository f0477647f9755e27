package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/ivm/pkg/buildinfo"
	"github.com/matzehuels/ivm/pkg/errors"
	"github.com/matzehuels/ivm/pkg/observability"
)

// DefaultTimeout bounds connecting and reading a response.
const DefaultTimeout = 10 * time.Second

// Client performs the HTTP requests ivm needs against the release server.
type Client struct {
	http    *http.Client
	retry   RetryPolicy
	headers map[string]string
}

// NewClient creates a Client with the given timeout and retry policy.
// A non-positive timeout falls back to [DefaultTimeout]; a policy with no
// attempts makes one.
func NewClient(timeout time.Duration, retry RetryPolicy) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		retry:   retry.normalize(),
		headers: map[string]string{"User-Agent": UserAgent()},
	}
}

// UserAgent is the User-Agent header sent with every request.
func UserAgent() string {
	return "ivm " + buildinfo.Version
}

// GetText performs an HTTP GET request and returns the response body as a string.
func (c *Client) GetText(ctx context.Context, rawURL string) (string, error) {
	var text string
	err := c.retry.do(ctx, func() error {
		body, err := c.do(ctx, http.MethodGet, rawURL)
		if err != nil {
			return err
		}
		defer body.Close()

		data, err := io.ReadAll(body)
		if err != nil {
			return &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "GET %s failed", rawURL)}
		}
		text = string(data)
		return nil
	})
	return text, err
}

// Open performs an HTTP GET request and returns the response body for
// streaming. The caller must close it.
func (c *Client) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := c.retry.do(ctx, func() error {
		var err error
		body, err = c.do(ctx, http.MethodGet, rawURL)
		return err
	})
	return body, err
}

// Exists reports whether a HEAD request for rawURL succeeds with a 2xx
// status. Transport failures and other statuses are returned as errors.
func (c *Client) Exists(ctx context.Context, rawURL string) error {
	return c.retry.do(ctx, func() error {
		body, err := c.do(ctx, http.MethodHead, rawURL)
		if err != nil {
			return err
		}
		return body.Close()
	})
}

func (c *Client) do(ctx context.Context, method, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "%s %s failed", method, rawURL)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	host, path := splitURL(req.URL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, host, path, err)
		return nil, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "%s %s failed", method, rawURL)}
	}
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(method, rawURL, resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(method, rawURL string, code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code >= 500:
		return &RetryableError{Err: statusError(method, rawURL, code)}
	default:
		return statusError(method, rawURL, code)
	}
}

func statusError(method, rawURL string, code int) error {
	return errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("status %d", code), "%s %s failed", method, rawURL)
}

func splitURL(u *url.URL) (string, string) {
	if u == nil {
		return "", ""
	}
	return u.Host, u.Path
}
