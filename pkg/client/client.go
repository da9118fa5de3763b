// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package client provides a Go client library for the Kaleido API.
//
// Kaleido renders animated gradients and materializes captures of them into
// a host document. This client library provides typed access to the Kaleido
// API endpoints: session settings, capture triggering, the event log, user
// notifications, and document inspection.
//
// # Getting Started
//
// Create a client pointing to your Kaleido server:
//
//	c := client.New("http://localhost:8626")
//
// The client provides access to different API resources through sub-clients:
//
//	// Read the gradient settings
//	settings, err := c.Settings.Get(ctx)
//
//	// Trigger a capture
//	status, err := c.Capture.Trigger(ctx, "30s")
//
//	// List recent events
//	events, err := c.Events.List(ctx, &client.ListOptions{Limit: 50})
//
// # Channel Access
//
// The studio channel protocol is available over WebSocket via [DialChannel],
// which speaks the same type-tagged envelopes as an embedded studio:
//
//	ch, err := client.DialChannel(ctx, "http://localhost:8626")
//	defer ch.Close()
//	img, err := ch.ExportSelection(ctx)
//
// # API Versioning
//
// Kaleido uses Stripe-style date-based API versioning. By default, the client
// uses the latest API version. You can pin to a specific version for stability:
//
//	c := client.New("http://localhost:8626", client.WithVersion("2026-02-03"))
//
// The version is sent via the Kaleido-Version HTTP header on each request.
//
// # Error Handling
//
// API errors are returned as *APIError values, which include an error code
// and message:
//
//	settings, err := c.Settings.Get(ctx)
//	if err != nil {
//	    if apiErr, ok := err.(*client.APIError); ok {
//	        fmt.Printf("API error: %s - %s\n", apiErr.Code, apiErr.Message)
//	    }
//	}
//
// # Context Support
//
// All API methods accept a context.Context for cancellation and timeouts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a Kaleido API client.
//
// A Client provides access to the Kaleido API through resource-specific
// sub-clients. Use [New] to create a Client instance.
//
// The Client is safe for concurrent use by multiple goroutines.
type Client struct {
	baseURL    string
	version    string
	httpClient *http.Client

	// Settings provides access to the session settings: gradient colors,
	// capture duration, playback state.
	Settings *SettingsClient

	// Capture provides access to the capture controller.
	Capture *CaptureClient

	// Events provides access to the event log.
	// Events track capture lifecycle, asset creation, and notifications.
	Events *EventClient

	// Notify provides access to user notification operations.
	Notify *NotifyClient

	// Document provides read access to the host document: nodes, the
	// selection, and node export.
	Document *DocumentClient
}

// Option configures a [Client]. Options are passed to [New] to customize
// client behavior.
type Option func(*Client)

// New creates a new Kaleido API client with the given base URL and options.
//
// The baseURL should be the root URL of the Kaleido server (e.g.,
// "http://localhost:8626"). Any trailing slash is automatically removed.
//
// By default, the client uses:
//   - The latest API version ([LatestVersion])
//   - A 30-second HTTP timeout
//
// Use options like [WithVersion], [WithTimeout], or [WithHTTPClient] to customize.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		version: LatestVersion,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	// Initialize resource clients
	c.Settings = &SettingsClient{c: c}
	c.Capture = &CaptureClient{c: c}
	c.Events = &EventClient{c: c}
	c.Notify = &NotifyClient{c: c}
	c.Document = &DocumentClient{c: c}

	return c
}

// WithVersion sets the API version to use for all requests.
//
// Kaleido uses Stripe-style date-based versioning (e.g., "2026-02-03").
// Pinning to a specific version ensures API compatibility as the server evolves.
func WithVersion(v string) Option {
	return func(c *Client) {
		c.version = v
	}
}

// WithHTTPClient sets a custom HTTP client for making requests.
//
// This is useful for advanced configurations like custom TLS settings,
// proxy configuration, or request tracing.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP client timeout for all requests.
//
// The default timeout is 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// Version returns the API version being used.
func (c *Client) Version() string {
	return c.version
}

// BaseURL returns the base URL of the API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// apiResponse is the standard API response envelope.
type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *APIError       `json:"error"`
}

// APIError represents an error response from the Kaleido API.
//
// API errors include a machine-readable Code and a human-readable Message.
//
// Common error codes include:
//   - "not_found": The requested resource does not exist
//   - "invalid_request": The request was malformed or invalid
//   - "conflict": The operation conflicts with current state (e.g., a
//     settings change while a capture is recording)
//   - "internal_error": An unexpected server error occurred
type APIError struct {
	// Code is a machine-readable error code (e.g., "not_found", "conflict").
	Code string `json:"code"`

	// Message is a human-readable description of the error.
	Message string `json:"message"`

	// Details contains additional error information, if available.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// get performs a GET request to the given path.
func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// post performs a POST request to the given path with no body.
func (c *Client) post(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, nil)
}

// postJSON performs a POST request with a JSON body.
func (c *Client) postJSON(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(data))
}

// patchJSON performs a PATCH request with a JSON body.
func (c *Client) patchJSON(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPatch, path, bytes.NewReader(data))
}

// putJSON performs a PUT request with a JSON body.
func (c *Client) putJSON(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPut, path, bytes.NewReader(data))
}

// delete performs a DELETE request to the given path.
func (c *Client) delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// do performs an HTTP request and parses the response.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (json.RawMessage, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set(VersionHeader, c.version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return c.parseResponse(resp)
}

// parseResponse reads and parses an API response.
func (c *Client) parseResponse(resp *http.Response) (json.RawMessage, error) {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Try to parse as standard envelope
	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		// If we can't parse it and status is bad, return error
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
		}
		// Return raw body for non-envelope responses
		return respBody, nil
	}

	// Check for error in envelope
	if apiResp.Error != nil {
		return nil, apiResp.Error
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return apiResp.Data, nil
}
