package api

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkruchkov/accountd/internal/account"
	"github.com/mkruchkov/accountd/internal/config"
	"github.com/mkruchkov/accountd/internal/identity"
	"github.com/mkruchkov/accountd/internal/models"
	"github.com/mkruchkov/accountd/internal/session"
	"github.com/mkruchkov/accountd/internal/store"
)

// HandleOAuthAuthorize initiates the OAuth authorization flow
func HandleOAuthAuthorize(cfg *config.Config, client *identity.Client, sessions store.OAuthSessionStore, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.OAuth.Enabled() {
			writeError(w, http.StatusNotFound, "not_found", "OAuth is not enabled")
			return
		}

		state, err := identity.GenerateState()
		if err != nil {
			logger.Error().Err(err).Msg("failed to generate state")
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to initiate OAuth")
			return
		}

		codeVerifier, err := identity.GenerateCodeVerifier()
		if err != nil {
			logger.Error().Err(err).Msg("failed to generate code verifier")
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to initiate OAuth")
			return
		}

		redirectURL := cfg.OAuth.RedirectURL

		// 10 minute expiry, single use
		oauthSession := &models.OAuthSession{
			State:        state,
			CodeVerifier: codeVerifier,
			RedirectURI:  &redirectURL,
			ExpiresAt:    time.Now().Add(10 * time.Minute),
			CreatedAt:    time.Now(),
		}
		if err := sessions.CreateSession(r.Context(), oauthSession); err != nil {
			logger.Error().Err(err).Msg("failed to create oauth session")
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to initiate OAuth")
			return
		}

		codeChallenge := identity.GenerateCodeChallenge(codeVerifier)
		authURL := client.GetAuthorizationURL(state, codeChallenge, redirectURL)
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// OAuthCallbackResponse represents the OAuth callback response
type OAuthCallbackResponse struct {
	Action       string          `json:"action"` // "login", "register", "complete_registration", "link_required"
	Token        *string         `json:"token,omitempty"`
	Account      *models.Account `json:"account,omitempty"`
	LinkingToken *string         `json:"linking_token,omitempty"`
	Email        *string         `json:"email,omitempty"`
	Message      string          `json:"message,omitempty"`
}

// HandleOAuthCallback processes the OAuth callback and resolves the
// asserted identity to an account.
func HandleOAuthCallback(cfg *config.Config, client *identity.Client, resolver *account.Resolver, issuer *session.Issuer, sessions store.OAuthSessionStore, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")

		if code == "" || state == "" {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid OAuth callback")
			return
		}

		oauthSession, err := sessions.ConsumeSession(r.Context(), state)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid or expired OAuth session")
			return
		}

		redirectURL := cfg.OAuth.RedirectURL
		if oauthSession.RedirectURI != nil && *oauthSession.RedirectURI != "" {
			redirectURL = *oauthSession.RedirectURI
		}

		ctx := r.Context()
		accessToken, err := client.ExchangeCode(ctx, code, oauthSession.CodeVerifier, redirectURL)
		if err != nil {
			logger.Error().Err(err).Msg("token exchange failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to exchange authorization code")
			return
		}

		userInfo, err := client.RetrieveUserInfo(ctx, accessToken)
		if err != nil {
			logger.Error().Err(err).Msg("failed to retrieve user info")
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get user information")
			return
		}

		assertion := identity.MapAttributes(cfg.OAuth.ProviderName, userInfo)

		resolution, err := resolver.ResolveAssertion(ctx, assertion)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		switch resolution.Outcome {
		case account.OutcomeLinkRequired:
			linkingToken, err := createLinkingToken(r, sessions, resolution.Account, assertion)
			if err != nil {
				logger.Error().Err(err).Msg("failed to create linking token")
				writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create account linking token")
				return
			}
			writeJSON(w, http.StatusOK, OAuthCallbackResponse{
				Action:       "link_required",
				LinkingToken: &linkingToken,
				Email:        &assertion.Email,
				Message:      "An account with this email already exists. Please verify your password to link accounts.",
			})

		default:
			token, err := issuer.Issue(resolution.Account, cfg.SocialSessionTTL)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal_error", "Failed to issue session")
				return
			}

			action := string(resolution.Outcome)
			if account.Classify(resolution.Account) == account.IncompleteAwaitingInput {
				action = "complete_registration"
			}
			writeJSON(w, http.StatusOK, OAuthCallbackResponse{
				Action:  action,
				Token:   &token,
				Account: resolution.Account,
			})
		}
	}
}

// LinkAccountRequest represents an account linking submission
type LinkAccountRequest struct {
	LinkingToken string `json:"linking_token"`
	Password     string `json:"password"`
}

// HandleOAuthLink attaches a provider identity to an existing account
// after password verification.
func HandleOAuthLink(cfg *config.Config, svc *account.Service, issuer *session.Issuer, sessions store.OAuthSessionStore, accounts store.AccountStore, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LinkAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid request")
			return
		}

		linking, err := sessions.FindLinkingToken(r.Context(), req.LinkingToken)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid or expired linking token")
			return
		}

		acct, err := accounts.FindByID(r.Context(), linking.AccountID)
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found", "Account not found")
			return
		}

		if err := svc.LinkIdentity(r.Context(), acct, linking.Provider, linking.Subject, req.Password); err != nil {
			if errors.Is(err, account.ErrWrongPassword) {
				// burn the token after a failed attempt
				_ = sessions.DeleteLinkingToken(r.Context(), req.LinkingToken)
				writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid password")
				return
			}
			writeDomainError(w, err)
			return
		}

		_ = sessions.DeleteLinkingToken(r.Context(), req.LinkingToken)

		token, err := issuer.Issue(acct, cfg.SocialSessionTTL)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "Failed to issue session")
			return
		}

		writeJSON(w, http.StatusOK, authResponse("Accounts linked", token, acct))
	}
}

func createLinkingToken(r *http.Request, sessions store.OAuthSessionStore, acct *models.Account, assertion identity.Assertion) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := base64.URLEncoding.EncodeToString(b)

	linking := &models.LinkingToken{
		Token:     token,
		AccountID: acct.ID,
		Provider:  assertion.Provider,
		Subject:   assertion.Subject,
		Email:     assertion.Email,
		ExpiresAt: time.Now().Add(5 * time.Minute),
		CreatedAt: time.Now(),
	}
	if err := sessions.CreateLinkingToken(r.Context(), linking); err != nil {
		return "", err
	}
	return token, nil
}
