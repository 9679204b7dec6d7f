package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/quick-forms/log"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, body ErrorBody) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

// Will log an error, and send an HTTP response with status 500 and the
// error message attached
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	writeError(w, r, http.StatusInternalServerError, ErrorBody{
		Error:   http.StatusText(http.StatusInternalServerError),
		Message: err.Error(),
	})
}

// Will log a debug message, and send an HTTP response with status 404
// naming what was not found
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, what string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	writeError(w, r, http.StatusNotFound, ErrorBody{Error: what + " not found"})
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string) {
	log.Log(level, code)
	writeError(w, r, status, ErrorBody{Error: http.StatusText(status)})
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	writeError(w, r, status, ErrorBody{Error: errMsg})
}

// Will log a validation failure at debug level, and send an HTTP response
// with status 400 listing every problem found
func LogInvalid(w http.ResponseWriter, r *http.Request, code string, err error) {
	details := Details(err)
	log.Debugf("%s: %v", code, details)
	writeError(w, r, http.StatusBadRequest, ErrorBody{
		Error:   "Validation failed",
		Details: details,
	})
}

// Details flattens multierror and validator errors into messages.
func Details(err error) []string {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		var details []string
		for _, e := range merr.Errors {
			details = append(details, Details(e)...)
		}
		return details
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fieldMessage(fe))
		}
		return details
	}

	return []string{err.Error()}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "hexcolor":
		return field + " must be a hex color"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "questiontype":
		return fmt.Sprintf("%s: unknown question type %q", field, fe.Value())
	}
	return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
}
