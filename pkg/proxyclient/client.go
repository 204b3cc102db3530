// Package proxyclient provides a client for the lmod-proxy API, used by
// lmod-proxyctl and integration tooling.
package proxyclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// Client is the lmod-proxy API client.
//
// Every call hits the POST /edx_grades endpoint with HTTP basic
// authentication and decodes the msg/data response body.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// New creates a new proxy client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// WithBasicAuth returns a new client carrying the given credentials.
func (c *Client) WithBasicAuth(username, password string) *Client {
	return &Client{
		baseURL:    c.baseURL,
		username:   username,
		password:   password,
		httpClient: c.httpClient,
	}
}

// Response is the decoded proxy response body.
type Response struct {
	Msg  string `json:"msg"`
	Data []any  `json:"data"`
}

// APIError represents a non-2xx response from the proxy.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// IsAuthError returns true if the proxy rejected the credentials.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsValidationError returns true if the proxy rejected the form fields.
func (e *APIError) IsValidationError() bool {
	return e.StatusCode == http.StatusUnprocessableEntity
}

// GetSections retrieves the sections of the given gradebook.
func (c *Client) GetSections(ctx context.Context, gradebook, user string) (*Response, error) {
	return c.post(ctx, url.Values{
		"gradebook": {gradebook},
		"user":      {user},
		"submit":    {"get-sections"},
	})
}

// GetAssignments retrieves the assignments of the given gradebook.
func (c *Client) GetAssignments(ctx context.Context, gradebook, user string) (*Response, error) {
	return c.post(ctx, url.Values{
		"gradebook": {gradebook},
		"user":      {user},
		"submit":    {"get-assignments"},
	})
}

// GetMembership retrieves the students of the given gradebook. An empty
// section means all sections.
func (c *Client) GetMembership(ctx context.Context, gradebook, user, section string) (*Response, error) {
	values := url.Values{
		"gradebook": {gradebook},
		"user":      {user},
		"submit":    {"get-membership"},
	}
	if section != "" {
		values.Set("section", section)
	}
	return c.post(ctx, values)
}

// PostGrades uploads a CSV grade spreadsheet to the given gradebook.
func (c *Client) PostGrades(ctx context.Context, gradebook, user string, datafile []byte) (*Response, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fields := map[string]string{
		"gradebook": gradebook,
		"user":      user,
		"submit":    "post-grades",
	}
	for field, value := range fields {
		if err := w.WriteField(field, value); err != nil {
			return nil, fmt.Errorf("failed to build request body: %w", err)
		}
	}

	part, err := w.CreateFormFile("datafile", "grades.csv")
	if err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}
	if _, err := part.Write(datafile); err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}

	return c.do(ctx, &body, w.FormDataContentType())
}

// post submits a form-encoded action request.
func (c *Client) post(ctx context.Context, values url.Values) (*Response, error) {
	return c.do(ctx, bytes.NewReader([]byte(values.Encode())), "application/x-www-form-urlencoded")
}

// do performs the request and decodes the response.
func (c *Client) do(ctx context.Context, body io.Reader, contentType string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/edx_grades", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		// Validation failures carry the msg/data body; auth failures
		// carry plain text.
		var decoded Response
		if json.Unmarshal(respBody, &decoded) == nil && decoded.Msg != "" {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: decoded.Msg}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var decoded Response
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &decoded, nil
}
