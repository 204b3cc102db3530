package edxgrades

import (
	"bytes"
	"context"
	"encoding/csv"

	"github.com/mitodl/lmod-proxy/internal/logger"
	"github.com/mitodl/lmod-proxy/pkg/gradebook"
)

// Result is the normalized outcome of an action: a human-readable message,
// the payload rows, and an in-band success flag decoupled from the HTTP
// status. A Result is created fresh per invocation and never mutated.
type Result struct {
	Message string
	Data    []any
	Success bool
}

// ActionFunc is the uniform signature every action plugs into: it receives
// the per-request gradebook client and the validated form, and must never
// let a remote error escape as a fault.
type ActionFunc func(ctx context.Context, client gradebook.Client, form Form) Result

// GradeOptions is the server-side grade-posting policy. None of it comes
// from the request.
type GradeOptions struct {
	// ApproveGrades approves imported grades automatically.
	ApproveGrades bool

	// CreateAssignments pre-creates an assignment record before import.
	CreateAssignments bool

	// MaxPointsColumn and NormalizeColumn are spreadsheet column hints
	// passed through to the import call.
	MaxPointsColumn string
	NormalizeColumn string
}

// NewActions builds the dispatch table mapping each action name to its
// operation. The table is fixed for the process lifetime.
func NewActions(opts GradeOptions) map[Action]ActionFunc {
	return map[Action]ActionFunc{
		ActionPostGrades:     PostGrades(opts),
		ActionGetMembership:  GetMembership,
		ActionGetAssignments: GetAssignments,
		ActionGetSections:    GetSections,
	}
}

// placeholderData is the single-element placeholder returned by list-type
// actions on failure, so upstream display code always has a row to render.
func placeholderData() []any {
	return []any{map[string]any{}}
}

// nonNil normalizes a nil payload to an empty slice so the JSON response
// always carries an array.
func nonNil(data []any) []any {
	if data == nil {
		return []any{}
	}
	return data
}

// GetSections returns the sections available in the gradebook.
func GetSections(ctx context.Context, client gradebook.Client, form Form) Result {
	data, err := client.ListSections(ctx)
	if err != nil {
		return Result{Message: err.Error(), Data: placeholderData()}
	}
	return Result{
		Message: "Successfully retrieved sections",
		Data:    nonNil(data),
		Success: true,
	}
}

// GetAssignments returns the assignments available in the gradebook.
func GetAssignments(ctx context.Context, client gradebook.Client, form Form) Result {
	data, err := client.ListAssignments(ctx)
	if err != nil {
		return Result{Message: err.Error(), Data: placeholderData()}
	}
	return Result{
		Message: "Successfully retrieved assignments",
		Data:    nonNil(data),
		Success: true,
	}
}

// GetMembership returns the students in the gradebook, filtered by the
// form's section when one was given.
func GetMembership(ctx context.Context, client gradebook.Client, form Form) Result {
	data, err := client.ListStudents(ctx, form.Section)
	if err != nil {
		return Result{Message: err.Error(), Data: placeholderData()}
	}
	return Result{
		Message: "Successfully retrieved students",
		Data:    nonNil(data),
		Success: true,
	}
}

// PostGrades builds the grade-posting action bound to the server-side
// policy in opts.
//
// This is the one action where a successful remote call can still yield a
// failed Result: when the import report counts failed rows, the message is
// rendered from the failure template and Success is false even though no
// error was returned.
func PostGrades(opts GradeOptions) ActionFunc {
	return func(ctx context.Context, client gradebook.Client, form Form) Result {
		if opts.CreateAssignments {
			name := assignmentName(form.Datafile)
			if err := client.CreateAssignment(ctx, name, 100); err != nil {
				return Result{Message: err.Error(), Data: []any{}}
			}
		}

		report, err := client.ImportSpreadsheet(ctx, form.Datafile, gradebook.ImportOptions{
			ApproveGrades:      opts.ApproveGrades,
			UseMaxPointsColumn: true,
			MaxPointsColumn:    opts.MaxPointsColumn,
			NormalizeColumn:    opts.NormalizeColumn,
		})
		if err != nil {
			return Result{Message: err.Error(), Data: []any{}}
		}

		// A missing failure count decodes as zero and counts as success.
		if report.NumFailures > 0 {
			logger.Warn("grade transfer partially failed",
				"gradebook", form.Gradebook,
				"failures", report.NumFailures,
			)
			return Result{
				Message: renderTransferFailed(report.NumFailures, report.Results),
				Data:    []any{},
			}
		}

		return Result{
			Message: "Successfully posted grades",
			Data:    []any{},
			Success: true,
		}
	}
}

// assignmentName derives the assignment name from the spreadsheet header.
// The edX export carries the assignment as the final header column; an
// unreadable header falls back to a generic name.
func assignmentName(data []byte) string {
	const fallback = "edX Grades"

	reader := csv.NewReader(bytes.NewReader(data))
	header, err := reader.Read()
	if err != nil || len(header) < 2 {
		return fallback
	}
	name := header[len(header)-1]
	if name == "" {
		return fallback
	}
	return name
}
