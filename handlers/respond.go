package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"begroting/estimating"
	"begroting/services"
)

// engineError writes an engine failure as a JSON error. Validation errors
// become 400 (with field messages or rejected import rows as details),
// missing entities 404 and lock timeouts 409. Anything else is logged
// under op and reported as 500.
func engineError(e *core.RequestEvent, op string, err error) error {
	var importErr *estimating.ImportError
	var validationErr *estimating.ValidationError
	var notFoundErr *estimating.NotFoundError

	switch {
	case errors.As(err, &importErr):
		return errorBody(e, http.StatusBadRequest, "Import rejected, nothing was stored", services.ImportErrorRows(importErr))
	case errors.As(err, &validationErr):
		var details any
		if len(validationErr.Fields) > 0 {
			details = validationErr.Fields
		}
		return errorBody(e, http.StatusBadRequest, validationErr.Error(), details)
	case errors.As(err, &notFoundErr):
		return ErrorToast(e, http.StatusNotFound, notFoundErr.Error())
	case errors.Is(err, estimating.ErrNotFound):
		return ErrorToast(e, http.StatusNotFound, "Not found")
	case errors.Is(err, estimating.ErrConcurrencyConflict):
		return ErrorToast(e, http.StatusConflict, "The estimate is being changed by someone else. Please try again.")
	}

	log.Printf("%s: %v", op, err)
	return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// bindJSON decodes the request body into dst, answering 400 itself when
// the body is malformed. The returned bool reports whether decoding
// succeeded.
func bindJSON(e *core.RequestEvent, dst any) (bool, error) {
	if err := e.BindBody(dst); err != nil {
		return false, ErrorToast(e, http.StatusBadRequest, "Invalid request body")
	}
	return true, nil
}
