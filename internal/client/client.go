// Package client talks to the redaid API. It allows at most one outstanding
// mutation per donation request id and turns API failures back into the
// error taxonomy so callers can tell "not allowed" from "no longer possible"
// from "try again".
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"redaid/pkg/types"
)

// ErrMutationInFlight is returned without contacting the API when another
// mutation for the same request id has not finished yet.
var ErrMutationInFlight = errors.New("another change to this request is still in progress")

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		inFlight: map[string]struct{}{},
	}, nil
}

type apiError struct {
	Error  string              `json:"error"`
	Reason string              `json:"reason"`
	Fields map[string]string   `json:"fields"`
	From   types.RequestStatus `json:"from"`
	To     types.RequestStatus `json:"to"`
}

// acquire claims the request id for one mutation. The returned func releases it.
func (c *Client) acquire(id string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inFlight[id]; busy {
		return nil, ErrMutationInFlight
	}
	c.inFlight[id] = struct{}{}

	return func() {
		c.mu.Lock()
		delete(c.inFlight, id)
		c.mu.Unlock()
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and dropped connections leave the outcome unknown.
		return &types.NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp, method+" "+path)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func decodeError(resp *http.Response, op string) error {
	var body apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)

	switch resp.StatusCode {
	case http.StatusUnprocessableEntity:
		return types.NewValidationError(body.Fields)
	case http.StatusUnauthorized:
		return types.Denied(types.ReasonUnauthenticated)
	case http.StatusForbidden:
		reason := body.Reason
		if reason == "" {
			reason = types.ReasonForbidden
		}
		return types.Denied(reason)
	case http.StatusConflict:
		return &types.InvalidTransitionError{From: body.From, To: body.To}
	case http.StatusNotFound:
		return &types.NotFoundError{Entity: "resource", ID: op}
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &types.NetworkError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, body.Error)}
	}

	return fmt.Errorf("%s failed with status %d: %s", op, resp.StatusCode, body.Error)
}
