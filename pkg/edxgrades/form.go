// Package edxgrades implements the edx-platform remote gradebook contract:
// form validation, action dispatch, and result normalization.
package edxgrades

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Action identifies one of the supported remote gradebook operations.
type Action string

const (
	ActionPostGrades     Action = "post-grades"
	ActionGetMembership  Action = "get-membership"
	ActionGetAssignments Action = "get-assignments"
	ActionGetSections    Action = "get-sections"
)

// ActionNames lists every valid action, in the order they are documented.
var ActionNames = []Action{
	ActionPostGrades,
	ActionGetMembership,
	ActionGetAssignments,
	ActionGetSections,
}

// Valid reports whether a is one of the known action names.
func (a Action) Valid() bool {
	switch a {
	case ActionPostGrades, ActionGetMembership, ActionGetAssignments, ActionGetSections:
		return true
	}
	return false
}

// Form is the validated representation of the inbound request fields.
// A Form is only ever constructed by ParseForm; it is immutable afterwards.
type Form struct {
	// Gradebook is the remote gradebook id.
	Gradebook string

	// User is the requesting user's email address.
	User string

	// Section optionally restricts membership queries to one section.
	// Empty means all sections.
	Section string

	// Datafile is the raw uploaded grade spreadsheet. Nil when absent.
	Datafile []byte

	// Action selects the remote operation.
	Action Action
}

// FieldErrors maps a field name to the full list of its validation
// failures. Validation never short-circuits, so callers can enumerate
// every problem in one response.
type FieldErrors map[string][]string

// String renders the errors with fields in stable order, for embedding in
// the "Malformed API Call" response message.
func (fe FieldErrors) String() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %q", field, fe[field]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (fe FieldErrors) add(field, message string) {
	fe[field] = append(fe[field], message)
}

// Validation messages, matching what the upstream platform has always
// displayed to course staff.
const (
	msgRequired      = "This field is required."
	msgInvalidEmail  = "Invalid email address."
	msgInvalidChoice = "Not a valid choice"
)

// maxUploadBytes bounds in-memory parsing of multipart bodies. Grade
// spreadsheets are small; anything bigger is not a grade file.
const maxUploadBytes = 32 << 20

var emailValidator = validator.New()

// ParseForm parses and validates the request body, which may be
// form-encoded or multipart (when a grade file is attached).
//
// On success the returned FieldErrors is nil. On failure the Form is nil
// and FieldErrors enumerates every failing field; no partial form value is
// exposed.
func ParseForm(r *http.Request) (*Form, FieldErrors) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, FieldErrors{"datafile": {err.Error()}}
	}

	gradebook := strings.TrimSpace(r.FormValue("gradebook"))
	user := strings.TrimSpace(r.FormValue("user"))
	section := strings.TrimSpace(r.FormValue("section"))
	// The action field is surfaced to clients as "submit"
	submit := strings.TrimSpace(r.FormValue("submit"))

	datafile, ferr := readDatafile(r)
	if ferr != nil {
		return nil, ferr
	}

	if ferrs := validateFields(gradebook, user, submit); len(ferrs) > 0 {
		return nil, ferrs
	}

	return &Form{
		Gradebook: gradebook,
		User:      user,
		Section:   section,
		Datafile:  datafile,
		Action:    Action(submit),
	}, nil
}

// readDatafile extracts the optional uploaded grade file. A file part is
// preferred; a plain form value is accepted for clients that inline the
// CSV. Absent input yields nil, never an empty slice.
func readDatafile(r *http.Request) ([]byte, FieldErrors) {
	if r.MultipartForm != nil && len(r.MultipartForm.File["datafile"]) > 0 {
		file, _, err := r.FormFile("datafile")
		if err != nil {
			return nil, FieldErrors{"datafile": {err.Error()}}
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, FieldErrors{"datafile": {err.Error()}}
		}
		return data, nil
	}

	if value := r.FormValue("datafile"); value != "" {
		return []byte(value), nil
	}
	return nil, nil
}

// validateFields checks every field independently and returns the complete
// set of failures. Input values are already trimmed.
func validateFields(gradebook, user, submit string) FieldErrors {
	ferrs := make(FieldErrors)

	if gradebook == "" {
		ferrs.add("gradebook", msgRequired)
	}

	if user == "" {
		ferrs.add("user", msgRequired)
	} else if emailValidator.Var(user, "email") != nil {
		ferrs.add("user", msgInvalidEmail)
	}

	if submit == "" {
		ferrs.add("submit", msgRequired)
	} else if !Action(submit).Valid() {
		ferrs.add("submit", msgInvalidChoice)
	}

	return ferrs
}
