package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkruchkov/accountd/internal/account"
)

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// writeDomainError maps account-workflow failures onto HTTP responses.
// Validation errors redisplay with field messages, credential errors stay
// deliberately vague, provisioning errors surface as server faults.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *account.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: errorBody{
			Code:    "validation_failed",
			Message: "Please correct the highlighted fields",
			Details: verr.Fields,
		}})
	case errors.Is(err, account.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
	case errors.Is(err, account.ErrWrongPassword):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: errorBody{
			Code:    "validation_failed",
			Message: "Please correct the highlighted fields",
			Details: map[string]string{"password": "wrong password"},
		}})
	case errors.Is(err, account.ErrProvisioningFailed):
		writeError(w, http.StatusInternalServerError, "provisioning_failed", "Temporary error signing up, please try again later")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal error")
	}
}
