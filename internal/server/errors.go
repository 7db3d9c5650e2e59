// internal/server/errors.go
//
// JSON error bodies.
//
// Context
// -------
// Every non-2xx response carries a Problem with a stable machine-readable
// Code.  Handlers call the helpers below instead of building bodies inline.
//
// Notes
// -----
//   • 422 validation problems list the failing fields in Errors, keyed by
//     field name.
//   • 503 busy problems set Retry-After.

package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

const (
	CodeParsing           = "PARSING_ERROR"
	CodeValidation        = "VALIDATION_ERROR"
	CodeAlreadySubmitting = "ALREADY_SUBMITTING"
	CodeSubmissionFailed  = "SUBMISSION_FAILED"
	CodeSessionInvalid    = "SESSION_INVALID"
	CodeSessionsBusy      = "SESSIONS_BUSY"
	CodeNotFound          = "NOT_FOUND"
	CodeInternal          = "INTERNAL_ERROR"
)

// Problem is the JSON body of every non-2xx response.
type Problem struct {
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Errors map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.S().Debugw("write response", "error", err)
	}
}

func parsingError(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, Problem{
		Title:  "Parsing error occurred",
		Status: http.StatusBadRequest,
		Detail: detail,
		Code:   CodeParsing,
	})
}

func validationError(w http.ResponseWriter, errs map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, Problem{
		Title:  "One or more fields are invalid",
		Status: http.StatusUnprocessableEntity,
		Detail: "See the errors property for details",
		Code:   CodeValidation,
		Errors: errs,
	})
}

func conflictError(w http.ResponseWriter) {
	writeJSON(w, http.StatusConflict, Problem{
		Title:  "Submission in progress",
		Status: http.StatusConflict,
		Detail: "A submission for this form session is already running",
		Code:   CodeAlreadySubmitting,
	})
}

func submissionFailed(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadGateway, Problem{
		Title:  "Submission failed",
		Status: http.StatusBadGateway,
		Detail: "The form could not be delivered; please try again",
		Code:   CodeSubmissionFailed,
	})
}

func sessionError(w http.ResponseWriter) {
	writeJSON(w, http.StatusForbidden, Problem{
		Title:  "Form session invalid",
		Status: http.StatusForbidden,
		Detail: "Open a form session and send it in the " + SessionHeader + " header",
		Code:   CodeSessionInvalid,
	})
}

func busyError(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "5")
	writeJSON(w, http.StatusServiceUnavailable, Problem{
		Title:  "Too many form sessions",
		Status: http.StatusServiceUnavailable,
		Detail: "Every form session slot is in use; please try again shortly",
		Code:   CodeSessionsBusy,
	})
}

func internalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, Problem{
		Title:  "Internal error",
		Status: http.StatusInternalServerError,
		Detail: "Internal error",
		Code:   CodeInternal,
	})
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, Problem{
		Title:  "Not found",
		Status: http.StatusNotFound,
		Detail: "No such route",
		Code:   CodeNotFound,
	})
}
