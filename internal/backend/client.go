// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNetwork            // transport failure, request never completed
	ErrTypeTimeout            // deadline exceeded
	ErrTypeBackend            // backend answered but the body was not usable
)

// Sentinel errors for easy checking.
var (
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrUnreachable = &ClientError{Type: ErrTypeNetwork, Message: "backend is not reachable"}
)

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// IsNetworkError checks if an error is a transport-level failure, timeouts
// included.
func IsNetworkError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeNetwork || clientErr.Type == ErrTypeTimeout
	}
	return false
}

// IsBackendError checks if an error carries an unusable backend response.
func IsBackendError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeBackend
	}
	return false
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://127.0.0.1:8000)
	BaseURL string

	// QueryTimeout is the hard ceiling for /query requests (default: 60s)
	QueryTimeout time.Duration

	// IngestTimeout is the hard ceiling for /ingest requests (default: 120s)
	IngestTimeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       "http://127.0.0.1:8000",
		QueryTimeout:  60 * time.Second,
		IngestTimeout: 120 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the retrieval backend.
// It is safe for concurrent use; ingestion batches rely on that.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a backend client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a backend client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8000"
	}
	if config.QueryTimeout == 0 {
		config.QueryTimeout = 60 * time.Second
	}
	if config.IngestTimeout == 0 {
		config.IngestTimeout = 120 * time.Second
	}

	return &Client{
		config: config,
		// Per-request timeouts differ between query and ingest, so the
		// ceiling is applied via context in each method.
		httpClient: &http.Client{},
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// QUERY
// =============================================================================

// Query sends a question and a retrieval width to the backend and returns
// the decoded response. topK may be any positive integer; the UI clamps it
// to 1-10 but the client does not.
//
// An unparseable body yields a backend error carrying the raw response
// text. A timeout or transport failure yields a network error. No retries:
// one request per call.
func (c *Client) Query(ctx context.Context, text string, topK int) (*QueryResponse, error) {
	if topK < 1 {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "top_k must be positive"}
	}

	body, err := json.Marshal(QueryRequest{Query: text, TopK: topK})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to marshal request", Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.QueryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeNetwork, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, &ClientError{Type: ErrTypeNetwork, Message: "query request failed", Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, &ClientError{Type: ErrTypeNetwork, Message: "failed to read response", Cause: err}
	}

	// The backend reports failures as non-2xx with an arbitrary text body,
	// and occasionally as 2xx with a body that is not the expected JSON.
	// Both carry the raw text back to the caller.
	var result QueryResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &ClientError{
			Type:    ErrTypeBackend,
			Message: strings.TrimSpace(string(raw)),
			Cause:   err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ClientError{
			Type:    ErrTypeBackend,
			Message: strings.TrimSpace(string(raw)),
		}
	}

	return &result, nil
}

// =============================================================================
// INGEST
// =============================================================================

// Ingest uploads a single document under the supplied admin credential.
//
// A completed exchange always yields an UploadResult: chunk count on
// success, the raw response text on a non-2xx status or unusable body.
// Only transport-level failures (timeout, unreachable backend) return a Go
// error. One attempt per file, no retries.
func (c *Client) Ingest(ctx context.Context, file File, key string) (UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", file.Name)
	if err != nil {
		return UploadResult{}, &ClientError{Type: ErrTypeUnknown, Message: "failed to build multipart body", Cause: err}
	}
	if _, err := part.Write(file.Data); err != nil {
		return UploadResult{}, &ClientError{Type: ErrTypeUnknown, Message: "failed to build multipart body", Cause: err}
	}
	if err := w.Close(); err != nil {
		return UploadResult{}, &ClientError{Type: ErrTypeUnknown, Message: "failed to build multipart body", Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.IngestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/ingest", &buf)
	if err != nil {
		return UploadResult{}, &ClientError{Type: ErrTypeNetwork, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("key", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return UploadResult{}, ErrTimeout
		}
		return UploadResult{}, &ClientError{Type: ErrTypeNetwork, Message: "ingest request failed", Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return UploadResult{}, ErrTimeout
		}
		return UploadResult{}, &ClientError{Type: ErrTypeNetwork, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return UploadResult{Filename: file.Name, Err: strings.TrimSpace(string(raw))}, nil
	}

	var result ingestResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return UploadResult{Filename: file.Name, Err: strings.TrimSpace(string(raw))}, nil
	}

	return UploadResult{Filename: file.Name, Chunks: result.Chunks}, nil
}
