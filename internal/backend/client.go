// Package backend talks to the remote storefront REST API, which owns carts,
// orders, pricing and stock. Responses use the {success, data, message}
// envelope of that API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-checkout-go/internal/middleware"
)

var (
	ErrNotFound     = errors.New("backend: not found")
	ErrUnauthorized = errors.New("backend: unauthorized")
)

// APIError is a non-2xx answer from the storefront API.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: storefront api status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: storefront api status %d: %s", e.Op, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	}
	return nil
}

// Observer receives the latency and outcome of every backend call.
type Observer interface {
	ObserveBackend(op string, elapsed time.Duration, err error)
}

type Client struct {
	BaseURL  *url.URL
	HTTP     *http.Client
	observer Observer
}

func NewClient(baseURL string, httpClient *http.Client, observer Observer) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{BaseURL: u, HTTP: httpClient, observer: observer}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do sends the request and decodes the data member of the envelope into out
// (when out is non-nil).
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (err error) {
	started := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveBackend(op, time.Since(started), err)
		}
	}()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	u := c.BaseURL.ResolveReference(&url.URL{Path: strings.TrimLeft(path, "/")})
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth := middleware.GetAuthorization(ctx); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if cid := middleware.GetCorrelationID(ctx); cid != "" {
		req.Header.Set(middleware.HeaderCorrelationID, cid)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	var env envelope
	empty := len(bytes.TrimSpace(raw)) == 0
	if !empty {
		if jerr := json.Unmarshal(raw, &env); jerr != nil && resp.StatusCode < 300 {
			return fmt.Errorf("%s: decode response: %w", op, jerr)
		}
	}

	if resp.StatusCode >= 300 {
		return &APIError{Op: op, Status: resp.StatusCode, Message: env.Message}
	}
	if empty {
		return nil
	}
	if !env.Success {
		return &APIError{Op: op, Status: resp.StatusCode, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: decode data: %w", op, err)
	}
	return nil
}
