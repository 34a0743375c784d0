// Package api is the HTTP client for the campaign mail service: report
// queries, responds options, spreadsheet uploads and unsubscribe calls.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// UploadTimeout is the fixed deadline for one spreadsheet upload.
const UploadTimeout = 2 * time.Minute

type Client struct {
	baseURL       string
	httpClient    *http.Client
	uploadClient  *http.Client
	uploadTimeout time.Duration
}

type Option func(*Client)

// WithUploadTimeout overrides UploadTimeout. Intended for tests.
func WithUploadTimeout(d time.Duration) Option {
	return func(c *Client) { c.uploadTimeout = d }
}

// WithUploadClient sets the client used for uploads. It should carry no
// Timeout of its own; the upload deadline is applied per request.
func WithUploadClient(hc *http.Client) Option {
	return func(c *Client) { c.uploadClient = hc }
}

// NewClient creates a client for the service at baseURL. httpClient is used
// for JSON calls; a nil httpClient gets a 30 second timeout.
func NewClient(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    httpClient,
		uploadClient:  &http.Client{Transport: httpClient.Transport},
		uploadTimeout: UploadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// envelope is the {status, message, data} wrapper every endpoint returns.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// doJSON sends body (if non-nil) as JSON and decodes the envelope's data into out.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) (string, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("marshal payload: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("Request failed")
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Err: fmt.Errorf("read response body: %w", err)}
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Request completed")

	if !isSuccessStatusCode(resp.StatusCode) {
		return "", serverError(resp, respBody, "")
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return "", &DecodeError{Err: err}
	}
	if env.Status != 0 && !isSuccessStatusCode(env.Status) {
		return "", &ServerError{StatusCode: env.Status, Status: fmt.Sprintf("%d %s", env.Status, http.StatusText(env.Status)), Message: env.Message}
	}
	if out != nil {
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return "", &DecodeError{Err: errors.New("missing data")}
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", &DecodeError{Err: err}
		}
	}
	return env.Message, nil
}

// serverError builds a ServerError from a non-2xx response, preferring the
// message of a JSON error body and falling back to fallback.
func serverError(resp *http.Response, body []byte, fallback string) *ServerError {
	se := &ServerError{StatusCode: resp.StatusCode, Status: resp.Status}
	if se.Status == "" {
		se.Status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		se.Message = env.Message
	} else {
		se.Message = fallback
	}
	return se
}

func isSuccessStatusCode(code int) bool {
	return code >= 200 && code < 300
}
