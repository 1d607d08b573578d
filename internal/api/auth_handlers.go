package api

import (
	"encoding/json"
	"net/http"

	"github.com/mkruchkov/accountd/internal/account"
	"github.com/mkruchkov/accountd/internal/config"
	"github.com/mkruchkov/accountd/internal/models"
	"github.com/mkruchkov/accountd/internal/session"
)

// LoginRequest represents login credentials. Identifier matches the
// username or the email.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// AuthResponse is returned by every flow that issues a session.
// Action "complete_registration" routes the client into the completion
// form instead of the normal post-login destination.
type AuthResponse struct {
	Message string          `json:"message,omitempty"`
	Token   string          `json:"token"`
	Account *models.Account `json:"account"`
	Action  string          `json:"action"`
}

func authResponse(message, token string, acct *models.Account) AuthResponse {
	action := "login"
	if account.Classify(acct) == account.IncompleteAwaitingInput {
		action = "complete_registration"
	}
	return AuthResponse{Message: message, Token: token, Account: acct, Action: action}
}

// HandleLogin handles password login
func HandleLogin(resolver *account.Resolver, issuer *session.Issuer, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid request")
			return
		}

		acct, err := resolver.ResolveLocal(r.Context(), req.Identifier, req.Password)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		token, err := issuer.Issue(acct, cfg.SessionTTL)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to issue session")
			return
		}

		writeJSON(w, http.StatusOK, authResponse("", token, acct))
	}
}

// SignupRequest represents a local registration submission
type SignupRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// HandleSignup handles local registration and logs the new account in
func HandleSignup(svc *account.Service, issuer *session.Issuer, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid request")
			return
		}

		acct, err := svc.Signup(r.Context(), account.SignupInput{
			Username:    req.Username,
			Email:       req.Email,
			Password:    req.Password,
			DisplayName: req.DisplayName,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		token, err := issuer.Issue(acct, cfg.SessionTTL)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to issue session")
			return
		}

		writeJSON(w, http.StatusCreated, authResponse("Welcome!", token, acct))
	}
}

// HandleLogout handles logout. Sessions are bearer tokens, so the token
// is discarded client-side.
func HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
	}
}

// HandleGetCurrentAccount returns the authenticated account
func HandleGetCurrentAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, CurrentAccount(r))
	}
}
