package forums

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	internal_errors "github.com/reaxo-dev/reaxo/internal/errors"
)

// Client handles all communication with the hosted Foru.ms API.
// The bearer token is an immutable field; per-request tokens are set by
// taking a cheap copy via WithToken so concurrent handlers never share
// mutable auth state.
type Client struct {
	BaseURL   string
	Token     string
	HTTPCli   *http.Client
	UserAgent string
}

// New creates a new client for the upstream forum API.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:   baseURL,
		HTTPCli:   &http.Client{},
		UserAgent: "reaxo",
	}
}

// WithToken returns a copy of the client authenticated as the given bearer
// token. The zero token means unauthenticated calls.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.Token = token
	return &cp
}

// do is the single unified helper for upstream requests. A non-nil body is
// JSON-encoded. The caller owns the response body.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream unavailable: %w", err)
	}
	return resp, nil
}

// doJSON performs the request and decodes a 2xx response into out.
// Non-2xx responses become ErrorWithStatusCode carrying the upstream
// status and message so handlers can propagate them unchanged.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &internal_errors.ErrorWithStatusCode{
			Message:    upstreamMessage(resp.Body, resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cannot decode upstream response: %w", err)
	}
	return nil
}

// upstreamMessage pulls the human-readable error out of an upstream
// failure body, falling back to the raw body or the status text.
func upstreamMessage(r io.Reader, statusCode int) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Error != "" {
			return envelope.Error
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	if len(raw) > 0 {
		return string(raw)
	}
	return http.StatusText(statusCode)
}
