package middlewares

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"posts-api/validation"
)

// APIError is the JSON body of every error response.
type APIError struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Status  int                     `json:"status"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

// NewAPIError builds an APIError whose code is derived from the status
// text, e.g. 404 becomes NOT_FOUND.
func NewAPIError(status int, message string) *APIError {
	return &APIError{
		Code:    strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_")),
		Message: message,
		Status:  status,
	}
}

func RespondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			return
		}
	}
}

// RespondError writes apiErr and logs cause on the request logger.
// Server errors are logged at error level, client errors at debug.
func RespondError(w http.ResponseWriter, r *http.Request, apiErr *APIError, cause error) {
	var e *zerolog.Event
	if apiErr.Status >= http.StatusInternalServerError {
		e = hlog.FromRequest(r).Error()
	} else {
		e = hlog.FromRequest(r).Debug()
	}
	e.Err(cause).Int("status", apiErr.Status).Msg(apiErr.Message)

	RespondJSON(w, apiErr, apiErr.Status)
}

func HttpError(w http.ResponseWriter, r *http.Request, message string, status int, err error) {
	RespondError(w, r, NewAPIError(status, message), err)
}
