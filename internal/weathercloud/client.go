package weathercloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const defaultBaseURL = "https://app.weathercloud.net"

var errCircuitOpen = errors.New("circuit breaker open")

// Client talks to the station API. Every call goes out exactly once: the
// circuit breaker short-circuits after repeated remote failures, but
// nothing is ever retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	circuit    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the transport. Timeout behaviour is whatever
// the supplied client carries.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for non-fatal events.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client sharing the given session across all of its
// operations. A nil session gets replaced with an empty one.
func NewClient(session *Session, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		session:    session,
		logger:     slog.Default(),
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "weathercloud",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.session == nil {
		c.session = NewSession(nil)
	}
	return c
}

// Session exposes the session shared by this client's operations.
func (c *Client) Session() *Session {
	return c.session
}

// doRequest executes one attempt through the circuit breaker, with the
// current session cookies attached.
func (c *Client) doRequest(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	req, err := buildRequest()
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)

	for _, cookie := range c.session.Cookies() {
		req.AddCookie(cookie)
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.httpClient.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}

// getJSON fetches path and decodes the JSON response into out. Any
// failure counts as the endpoint not returning usable data.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.doRequest(ctx, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	})
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrFetchFailed, path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: GET %s: decode: %v", ErrFetchFailed, path, err)
	}
	return nil
}

// postForm sends an ajax form POST and decodes the JSON response into
// out.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	resp, err := c.doRequest(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		// The ajax endpoints answer 404 without this header.
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("%w: POST %s: %v", ErrFetchFailed, path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: POST %s: decode: %v", ErrFetchFailed, path, err)
	}
	return nil
}
