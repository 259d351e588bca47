package httpx

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/formmind/formmind/fault"
	"github.com/formmind/formmind/log"
)

// WriteFailure maps a typed failure onto its HTTP response. Business-rule
// failures log at debug; anything unrecognized is a 500 and logs the cause.
func WriteFailure(w http.ResponseWriter, r *http.Request, code string, err error) {
	if ve, ok := fault.AsValidation(err); ok {
		log.Debugf("%s: validation failed (%d problems)", code, len(ve.Errors))
		writeJSON(w, r, http.StatusUnprocessableEntity, map[string]any{
			"error":   "validation_failed",
			"details": ve.Errors,
		})
		return
	}

	var status int
	switch {
	case errors.Is(err, fault.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, fault.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, fault.ErrNotAcceptingSubmissions),
		errors.Is(err, fault.ErrSubmissionWindowClosed),
		errors.Is(err, fault.ErrDuplicateSubmission),
		errors.Is(err, fault.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, fault.ErrPersistenceUnavailable):
		status = http.StatusServiceUnavailable
	default:
		log.Errorf("%s: %s", code, err)
		writeJSON(w, r, http.StatusInternalServerError, map[string]any{
			"error": http.StatusText(http.StatusInternalServerError),
		})
		return
	}

	log.Debugf("%s: %s", code, err)
	writeJSON(w, r, status, map[string]any{"error": err.Error()})
}

// WriteBadRequest reports a malformed or invalid request body.
func WriteBadRequest(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Debugf("%s: %s", code, err)
	writeJSON(w, r, http.StatusBadRequest, map[string]any{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	render.Status(r, status)
	render.JSON(w, r, body)
}
