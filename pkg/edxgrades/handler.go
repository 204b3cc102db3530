package edxgrades

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/mitodl/lmod-proxy/internal/logger"
	"github.com/mitodl/lmod-proxy/pkg/api/middleware"
	"github.com/mitodl/lmod-proxy/pkg/gradebook"
	"github.com/mitodl/lmod-proxy/pkg/metrics"
)

// Handler serves the edx_grades endpoint: an informational page on GET and
// the validate-dispatch-respond flow on POST.
//
// Request handling is stateless: a fresh gradebook client is constructed
// for every POST and discarded afterwards, so concurrent requests share
// nothing mutable.
type Handler struct {
	factory gradebook.Factory
	actions map[Action]ActionFunc
}

// NewHandler creates the handler with its fixed dispatch table.
func NewHandler(factory gradebook.Factory, opts GradeOptions) *Handler {
	return &Handler{
		factory: factory,
		actions: NewActions(opts),
	}
}

// response is the upstream-facing JSON body. Success and failure both use
// it; the distinction travels in-band through msg/data.
type response struct {
	Msg  string `json:"msg"`
	Data []any  `json:"data"`
}

// Index handles GET requests with a short description of the API.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	logger.Info("edX remote gradebook GET request",
		"principal", middleware.PrincipalFromContext(r.Context()),
		"remote_addr", r.RemoteAddr,
	)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, map[string]any{"Actions": ActionNames}); err != nil {
		logger.Error("failed to render index page", "error", err)
	}
}

// Grades handles the POST from edx-platform: validate the form, dispatch
// the selected action, and shape the JSON response.
//
// Validation failures return 422 with every field error enumerated. A
// dispatched action always returns 200; its in-band success flag is
// communicated through the msg and data fields, never the HTTP status.
func (h *Handler) Grades(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())

	form, ferrs := ParseForm(r)
	if ferrs != nil {
		logger.Warn("malformed edX grades request",
			"principal", principal,
			"errors", ferrs.String(),
		)
		metrics.IncValidationFailure()
		writeResponse(w, http.StatusUnprocessableEntity, response{
			Msg:  "Malformed API Call: " + ferrs.String(),
			Data: []any{},
		})
		return
	}

	logger.Info("dispatching edX grades action",
		"principal", principal,
		"action", form.Action,
		"gradebook", form.Gradebook,
	)

	client := h.factory(form.Gradebook)
	action := h.actions[form.Action] // present by construction post-validation
	result := action(r.Context(), client, *form)

	metrics.ObserveAction(string(form.Action), result.Success)
	if !result.Success {
		logger.Warn("edX grades action failed",
			"principal", principal,
			"action", form.Action,
			"message", result.Message,
		)
	}

	writeResponse(w, http.StatusOK, response{
		Msg:  result.Message,
		Data: result.Data,
	})
}

// writeResponse writes the JSON body, encoding to a buffer first so a
// failed encode never produces a half-written response.
func writeResponse(w http.ResponseWriter, status int, body response) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		logger.Error("failed to encode edX grades response", "error", err)
		http.Error(w, `{"msg":"internal error","data":[]}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
