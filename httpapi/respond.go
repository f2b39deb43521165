package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	authgate "github.com/MrEthical07/authgate"
)

// Envelope is the single response shape for every route.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// respondError maps an engine error onto the status taxonomy. Unexpected
// errors become an opaque 500; the cause is logged, never echoed.
func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("httpapi: internal error: %v", err)
		message = "internal server error"
	}
	respond(w, status, nil, message)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, authgate.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, authgate.ErrAccountExists),
		errors.Is(err, authgate.ErrEmailAlreadyVerified):
		return http.StatusConflict
	case errors.Is(err, authgate.ErrLoginTypeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, authgate.ErrInvalidCredentials),
		errors.Is(err, authgate.ErrEmailNotVerified),
		errors.Is(err, authgate.ErrUnauthorized),
		errors.Is(err, authgate.ErrRefreshInvalid),
		errors.Is(err, authgate.ErrRefreshReuse):
		return http.StatusUnauthorized
	case errors.Is(err, authgate.ErrTokenInvalidOrExpired),
		errors.Is(err, authgate.ErrOTPExpired),
		errors.Is(err, authgate.ErrOTPInvalid):
		return http.StatusGone
	case errors.Is(err, authgate.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, authgate.ErrAvatarMissing):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondValidation renders a 422 carrying one message per failed field.
func respondValidation(w http.ResponseWriter, err error) {
	fields := map[string]string{}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = "failed on the '" + fe.Tag() + "' rule"
		}
	}

	respond(w, http.StatusUnprocessableEntity, map[string]any{"errors": fields}, "validation failed")
}
