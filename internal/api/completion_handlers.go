package api

import (
	"encoding/json"
	"net/http"

	"github.com/mkruchkov/accountd/internal/account"
)

// HandleGetCompletionForm returns the pre-filled completion form. A
// temporary username comes back blanked so the user has to choose one.
func HandleGetCompletionForm(gate *account.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := CurrentAccount(r)
		if account.Classify(acct) == account.Complete {
			writeError(w, http.StatusConflict, "already_complete", "Registration is already complete")
			return
		}
		writeJSON(w, http.StatusOK, gate.Prefill(acct))
	}
}

// CompletionRequest is a completion submission
type CompletionRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// HandleCompleteRegistration applies the completion submission and
// routes the account out of the sub-flow.
func HandleCompleteRegistration(gate *account.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := CurrentAccount(r)
		if account.Classify(acct) == account.Complete {
			writeError(w, http.StatusConflict, "already_complete", "Registration is already complete")
			return
		}

		var req CompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid request")
			return
		}

		if err := gate.Complete(r.Context(), acct, req.Username, req.Email); err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Registration complete",
			"account": acct,
		})
	}
}
