// Package httpclient is the JSON request helper shared by the outbound store
// clients. Every call runs inside a CLIENT span.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jokemoderation/internal/platform/tracing"
)

// maxResponseBytes bounds how much of a store response is read.
const maxResponseBytes = 4 << 20

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// StatusCode extracts the response status from err, or 0 if err did not come
// from a completed response.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	SpanPrefix string
	Logger     *slog.Logger
}

func New(baseURL string, timeout time.Duration, spanPrefix string, logger *slog.Logger) Client {
	return Client{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTPClient: &http.Client{Timeout: timeout},
		SpanPrefix: spanPrefix,
		Logger:     logger,
	}
}

// DoJSON sends requestBody (when non-nil) as JSON and decodes a 2xx response
// into target (when non-nil). A response wrapped as {"data": ...} is unwrapped
// first.
func (c Client) DoJSON(ctx context.Context, method string, path string, query url.Values, requestBody any, target any) (err error) {
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	ctx, span := tracing.StartSpan(ctx, c.spanName(method), "CLIENT")
	span.WithAttributes(map[string]string{
		"http.method": method,
		"http.url":    endpoint,
	})
	defer func() {
		if err != nil {
			span.SetStatus(err)
		}
		span.OnDone()
	}()

	var body io.Reader
	if requestBody != nil {
		raw, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.logger().Warn("outbound request failed",
			"event", "outbound_request_failed",
			"module", "platform/httpclient",
			"layer", "platform",
			"method", method,
			"url", endpoint,
			"error", err.Error(),
		)
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	span.SetStatusFromHTTPCode(resp.StatusCode)

	c.logger().Debug("outbound request completed",
		"event", "outbound_request_completed",
		"module", "platform/httpclient",
		"layer", "platform",
		"method", method,
		"url", endpoint,
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Method:     method,
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	payload := bytes.TrimSpace(unwrapData(raw))
	if target == nil || len(payload) == 0 || string(payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// unwrapData returns the "data" member of an envelope-shaped object, or raw
// unchanged when the body is not such an envelope. A null "data" member is a
// null payload, which DoJSON leaves undecoded.
func unwrapData(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return raw
	}
	data, ok := envelope["data"]
	if !ok {
		return raw
	}
	return data
}

func (c Client) spanName(method string) string {
	prefix := c.SpanPrefix
	if prefix == "" {
		prefix = "http"
	}
	return prefix + "." + strings.ToLower(method)
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
