package api

import (
	"encoding/json"
	"net/http"

	"github.com/mkruchkov/accountd/internal/account"
)

// ProfileRequest is a profile edit submission
type ProfileRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// HandleUpdateProfile changes profile fields of the current account
func HandleUpdateProfile(svc *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid request")
			return
		}

		acct := CurrentAccount(r)
		if err := svc.UpdateProfile(r.Context(), acct, req.DisplayName, req.Email); err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Your profile has been updated",
			"account": acct,
		})
	}
}

// ChangePasswordRequest is a password change submission
type ChangePasswordRequest struct {
	Password    string `json:"password"`
	NewPassword string `json:"new_password"`
}

// HandleChangePassword verifies the current password and sets a new one
func HandleChangePassword(svc *account.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChangePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid request")
			return
		}

		acct := CurrentAccount(r)
		if err := svc.ChangePassword(r.Context(), acct, req.Password, req.NewPassword); err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Password has been changed"})
	}
}
