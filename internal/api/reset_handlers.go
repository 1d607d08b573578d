package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkruchkov/accountd/internal/account"
	"github.com/mkruchkov/accountd/internal/store"
)

// ResetRequestRequest asks for a password-reset mail
type ResetRequestRequest struct {
	Email string `json:"email"`
}

// HandleRequestPasswordReset mails a reset link to the given address
func HandleRequestPasswordReset(svc *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResetRequestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid request")
			return
		}

		if err := svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusUnprocessableEntity, "reset_failed", "Sorry, we are unable to reset password for email provided.")
				return
			}
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Check your email for further instructions."})
	}
}

// ResetConfirmRequest carries the mailed token and the new password
type ResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// HandleConfirmPasswordReset sets a new password for a valid token
func HandleConfirmPasswordReset(svc *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResetConfirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid request")
			return
		}

		if err := svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusBadRequest, "invalid_token", "Wrong or expired password reset token.")
				return
			}
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "New password was saved."})
	}
}
