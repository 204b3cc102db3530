// Package gradebook provides the client for the remote gradebook service.
//
// The wire protocol is an implementation detail of this package: callers
// only see the Client capability set and typed errors. A client is bound
// to a single gradebook id and owned by a single request; it is never
// shared across concurrent requests.
package gradebook

import (
	"context"
	"time"
)

// ImportOptions carries server-side policy for a spreadsheet import.
// None of these values ever come from the inbound request.
type ImportOptions struct {
	// ApproveGrades approves the imported grades automatically.
	ApproveGrades bool

	// UseMaxPointsColumn enables the per-row maximum-points column hint.
	UseMaxPointsColumn bool

	// MaxPointsColumn is the spreadsheet column holding maximum points.
	MaxPointsColumn string

	// NormalizeColumn is the spreadsheet column holding the normalization flag.
	NormalizeColumn string
}

// ImportResult is the remote summary of a spreadsheet import.
//
// A missing numFailures field decodes to zero, which is deliberately
// treated as "no failures" rather than a malformed response.
type ImportResult struct {
	NumFailures int   `json:"numFailures"`
	Results     []any `json:"results"`
}

// Client is the capability set of the remote gradebook service.
//
// Every call either returns structured data or a *Error classifying the
// failure; no call retries internally.
type Client interface {
	// CreateAssignment creates an assignment record ahead of an import,
	// for deployments where the remote API requires explicit metadata.
	CreateAssignment(ctx context.Context, name string, maxPoints float64) error

	// ImportSpreadsheet submits CSV grade data to the remote spreadsheet
	// import operation and returns its summary.
	ImportSpreadsheet(ctx context.Context, data []byte, opts ImportOptions) (*ImportResult, error)

	// ListStudents returns the gradebook membership in the simplified
	// representation, optionally filtered to one section. An empty
	// section means all sections.
	ListStudents(ctx context.Context, section string) ([]any, error)

	// ListAssignments returns the gradebook's assignments in the
	// simplified representation.
	ListAssignments(ctx context.Context) ([]any, error)

	// ListSections returns the gradebook's sections in the simplified
	// representation.
	ListSections(ctx context.Context) ([]any, error)
}

// Factory constructs a fresh Client bound to one gradebook id.
// The request handler calls this once per request and discards the client
// afterwards.
type Factory func(gradebookID string) Client

// Config parameterizes the HTTP client implementation.
type Config struct {
	// URLBase is the base URL of the remote gradebook API.
	URLBase string

	// Cert is the path to a combined key-and-certificate PEM file used
	// for TLS client authentication. Empty disables client certificates.
	Cert string

	// Timeout bounds each remote call.
	Timeout time.Duration
}
