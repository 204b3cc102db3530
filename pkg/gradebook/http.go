package gradebook

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mitodl/lmod-proxy/internal/logger"
)

const defaultTimeout = 300 * time.Second

// httpClient talks to the remote gradebook service over HTTPS with
// certificate authentication. One instance serves one gradebook id.
type httpClient struct {
	baseURL     string
	gradebookID string
	client      *http.Client
}

// NewFactory builds a Factory from configuration.
//
// The TLS client certificate (a combined un-passphrased key and cert PEM)
// is loaded once here; the per-request clients share the transport. Secret
// material never leaves this constructor, so callers stay free of
// filesystem side effects.
func NewFactory(cfg Config) (Factory, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.Cert != "" {
		cert, err := tls.LoadX509KeyPair(cfg.Cert, cfg.Cert)
		if err != nil {
			return nil, fmt.Errorf("failed to load gradebook client certificate: %w", err)
		}
		transport.TLSClientConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}

	return func(gradebookID string) Client {
		return &httpClient{
			baseURL:     cfg.URLBase,
			gradebookID: gradebookID,
			client:      client,
		}
	}, nil
}

// envelope is the remote response wrapper: a data payload plus an optional
// remote-reported message.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do performs one remote call and decodes the response envelope.
// Network-level failures come back as KindUnavailable, remote-reported
// errors as KindRejected.
func (c *httpClient) do(ctx context.Context, op, method, path string, query url.Values, contentType string, body []byte) (*envelope, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, unavailable(op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warn("gradebook call failed", "op", op, "error", err)
		return nil, unavailable(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable(op, err)
	}

	if resp.StatusCode >= 400 {
		message := remoteMessage(respBody)
		if message == "" {
			message = fmt.Sprintf("gradebook service returned status %d", resp.StatusCode)
		}
		logger.Warn("gradebook call rejected", "op", op, "status", resp.StatusCode)
		return nil, rejected(op, message)
	}

	var env envelope
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &env); err != nil {
			return nil, rejected(op, fmt.Sprintf("malformed gradebook response: %v", err))
		}
	}
	return &env, nil
}

// remoteMessage extracts the remote error text from an error body, falling
// back to the raw body when it is not the JSON envelope.
func remoteMessage(body []byte) string {
	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Message != "" {
		return env.Message
	}
	return string(bytes.TrimSpace(body))
}

// list performs a simple-representation list call and decodes the payload
// verbatim.
func (c *httpClient) list(ctx context.Context, op, path string, query url.Values) ([]any, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("simple", "true")

	env, err := c.do(ctx, op, http.MethodGet, path, query, "", nil)
	if err != nil {
		return nil, err
	}

	var data []any
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, rejected(op, fmt.Sprintf("malformed gradebook response: %v", err))
		}
	}
	return data, nil
}

func (c *httpClient) ListSections(ctx context.Context) ([]any, error) {
	return c.list(ctx, "list sections", "service/gradebook/sections/"+url.PathEscape(c.gradebookID), nil)
}

func (c *httpClient) ListAssignments(ctx context.Context) ([]any, error) {
	return c.list(ctx, "list assignments", "service/gradebook/assignments/"+url.PathEscape(c.gradebookID), nil)
}

func (c *httpClient) ListStudents(ctx context.Context, section string) ([]any, error) {
	query := url.Values{}
	if section != "" {
		query.Set("section", section)
	}
	return c.list(ctx, "list students", "service/gradebook/students/"+url.PathEscape(c.gradebookID), query)
}

func (c *httpClient) CreateAssignment(ctx context.Context, name string, maxPoints float64) error {
	payload, err := json.Marshal(map[string]any{
		"name":          name,
		"maxPointTotal": maxPoints,
	})
	if err != nil {
		return rejected("create assignment", err.Error())
	}

	_, err = c.do(ctx, "create assignment", http.MethodPost,
		"service/gradebook/assignment/"+url.PathEscape(c.gradebookID),
		nil, "application/json", payload)
	return err
}

func (c *httpClient) ImportSpreadsheet(ctx context.Context, data []byte, opts ImportOptions) (*ImportResult, error) {
	const op = "import spreadsheet"

	query := url.Values{}
	query.Set("approve_grades", strconv.FormatBool(opts.ApproveGrades))
	if opts.UseMaxPointsColumn {
		query.Set("max_points_column", opts.MaxPointsColumn)
		query.Set("normalize_column", opts.NormalizeColumn)
	}

	env, err := c.do(ctx, op, http.MethodPost,
		"service/gradebook/import/"+url.PathEscape(c.gradebookID),
		query, "text/csv", data)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return nil, rejected(op, fmt.Sprintf("malformed gradebook response: %v", err))
		}
	}
	return result, nil
}
