// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "erate-tracker/internal/common/errors"
)

// TokenSource hands out the session's bearer token. Implementations must not
// refresh or mutate the session.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource over a fixed token.
type StaticToken string

func (s StaticToken) Token() (string, error) {
	if s == "" {
		return "", apperrors.NewAuthenticationError("no session token")
	}
	return string(s), nil
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewJSONClient returns a client that resolves paths against baseURL and
// authenticates every request with tokens.
func NewJSONClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	c := NewClient(timeout)
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.tokens = tokens
	return c
}

// DoJSON sends in (when non-nil) as the JSON body and decodes a 2xx response
// into out (when non-nil). Non-2xx responses come back as *StandardError.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return apperrors.NewValidationError(fmt.Sprintf("encode request: %v", err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return apperrors.NewTimeoutError("onboarding-api", err)
		}
		return apperrors.NewExternalServiceError("onboarding-api", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.NewExternalServiceError("onboarding-api", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.FromResponse(resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &apperrors.StandardError{
			Code:      apperrors.ErrCodeDeserialization,
			Message:   "Could not decode response",
			Details:   err.Error(),
			Timestamp: time.Now(),
		}
	}
	return nil
}
