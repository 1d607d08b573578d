package account

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/mkruchkov/accountd/internal/models"
	"github.com/mkruchkov/accountd/internal/store"
)

// State classifies an account with respect to registration completion.
type State int

const (
	// Complete accounts proceed to the normal post-login destination.
	Complete State = iota
	// IncompleteAwaitingInput accounts are held in the completion
	// sub-flow until they pick a username and email.
	IncompleteAwaitingInput
)

// Classify returns Complete unless the username is still a generated
// temporary one or the email is missing. The only transition out of
// IncompleteAwaitingInput is a valid completion submission; nothing
// moves a complete account back.
func Classify(a *models.Account) State {
	if a.UsernameIsTemporary || a.EmailValue() == "" {
		return IncompleteAwaitingInput
	}
	return Complete
}

// CompletionForm is what the completion view is pre-filled with.
type CompletionForm struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Gate validates and applies registration-completion submissions.
type Gate struct {
	accounts store.AccountStore
	logger   zerolog.Logger
}

// NewGate creates a completion Gate.
func NewGate(accounts store.AccountStore, logger zerolog.Logger) *Gate {
	return &Gate{accounts: accounts, logger: logger}
}

// Prefill builds the form values. A temporary username is blanked so the
// user has to pick one explicitly.
func (g *Gate) Prefill(a *models.Account) CompletionForm {
	form := CompletionForm{Username: a.Username, Email: a.EmailValue()}
	if a.UsernameIsTemporary {
		form.Username = ""
	}
	return form
}

// Complete applies a completion submission. Username and email go
// through the same constraints as signup; on success the temporary flag
// is cleared and the account persisted. Validation failures leave the
// account untouched.
func (g *Gate) Complete(ctx context.Context, a *models.Account, username, email string) error {
	email = normalizeEmail(email)

	verr := &ValidationError{}
	if msg := validateUsername(username); msg != "" {
		verr.add("username", msg)
	}
	if msg := validateEmail(email); msg != "" {
		verr.add("email", msg)
	}
	if err := verr.orNil(); err != nil {
		return err
	}

	prevUsername, prevEmail, prevFlag := a.Username, a.Email, a.UsernameIsTemporary
	a.Username = username
	a.Email = &email
	a.UsernameIsTemporary = false

	if err := g.accounts.Update(ctx, a); err != nil {
		a.Username, a.Email, a.UsernameIsTemporary = prevUsername, prevEmail, prevFlag
		switch {
		case errors.Is(err, store.ErrUsernameTaken):
			verr.add("username", "username already taken")
			return verr
		case errors.Is(err, store.ErrEmailTaken):
			verr.add("email", "email already taken")
			return verr
		}
		return err
	}

	g.logger.Info().Str("account_id", a.ID).Msg("registration completed")
	return nil
}
