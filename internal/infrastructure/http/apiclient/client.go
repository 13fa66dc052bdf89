// Package apiclient calls the recipe service with the client's identifying
// headers and turns its loosely-typed responses into Go values.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alchemorsel/recipeclient/internal/domain/recipe"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/config"
	"github.com/alchemorsel/recipeclient/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipeclient/internal/ports/outbound"
	"github.com/alchemorsel/recipeclient/pkg/errors"
	"go.uber.org/zap"
)

// Header names sent on every call.
const (
	HeaderClientID   = "X-Client-Id"
	HeaderInstanceID = "X-Instance-Id"
)

// Compile-time interface check.
var _ outbound.Gateway = (*Client)(nil)

// Client handles communication with the recipe service
type Client struct {
	baseURL         string
	serviceClientID int
	identity        outbound.InstanceIdentity
	httpClient      *http.Client
	metrics         *monitoring.MetricsCollector
	logger          *zap.Logger
}

// NewClient creates a new API client. metrics may be nil.
func NewClient(cfg config.APIConfig, identity outbound.InstanceIdentity, metrics *monitoring.MetricsCollector, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		serviceClientID: cfg.ServiceClientID,
		identity:        identity,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger.Named("api-client"),
	}
}

// ServiceClientID returns the numeric client id sent to the service.
func (c *Client) ServiceClientID() int {
	return c.serviceClientID
}

// Call issues one request to path and returns the decoded body: a JSON value,
// the raw text when the body is not JSON, or nil for an empty body.
func (c *Client) Call(ctx context.Context, path string, opts outbound.CallOptions) (any, error) {
	if c.baseURL == "" {
		return nil, errors.NewConfigurationError("API base URL is not configured")
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		raw, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, errors.NewValidationError("Request body could not be encoded").WithCause(err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.NewConfigurationError(fmt.Sprintf("Invalid request URL: %s", c.baseURL+path)).WithCause(err)
	}

	instanceID, err := c.identity.InstanceID(ctx)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderClientID, strconv.Itoa(c.serviceClientID))
	req.Header.Set(HeaderInstanceID, instanceID)
	for name, values := range opts.Header {
		req.Header.Del(name)
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	c.logger.Debug("API request",
		zap.String("method", method),
		zap.String("url", req.URL.String()),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, "transport_error", start)
		c.logger.Warn("API request failed", zap.String("url", req.URL.String()), zap.Error(err))
		return nil, errors.NewExternalServiceError("Failed to fetch", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(method, "transport_error", start)
		return nil, errors.NewExternalServiceError("Failed to read response", err)
	}

	data := decodeBody(text)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(method, "http_error", start)
		c.logger.Error("API error response",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(text)),
		)
		return nil, errors.NewBackendError(resp.StatusCode, errorMessage(data, resp.StatusCode))
	}

	c.observe(method, "ok", start)
	return data, nil
}

func (c *Client) observe(method, outcome string, start time.Time) {
	if c.metrics != nil {
		c.metrics.BackendRequest(method, outcome, time.Since(start))
	}
}

// decodeBody parses text as JSON, keeping numbers as json.Number. Text that is
// not a single JSON value is returned as a string.
func decodeBody(text []byte) any {
	if len(text) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return string(text)
	}
	if _, err := dec.Token(); err != io.EOF {
		return string(text)
	}
	return v
}

// errorMessage picks the user-visible message for a failed call.
func errorMessage(data any, status int) string {
	if s, ok := data.(string); ok {
		return s
	}
	if m, ok := data.(map[string]any); ok {
		if msg, ok := m["message"]; ok && recipe.Truthy(msg) {
			return recipe.FormatValue(msg)
		}
	}
	return fmt.Sprintf("Request failed with status %d", status)
}
