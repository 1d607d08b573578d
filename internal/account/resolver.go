package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkruchkov/accountd/internal/identity"
	"github.com/mkruchkov/accountd/internal/metrics"
	"github.com/mkruchkov/accountd/internal/models"
	"github.com/mkruchkov/accountd/internal/store"
)

// Outcome says how an assertion was resolved.
type Outcome string

const (
	// OutcomeLogin means an existing account matched the assertion.
	OutcomeLogin Outcome = "login"
	// OutcomeRegistered means a new account was provisioned.
	OutcomeRegistered Outcome = "registered"
	// OutcomeLinkRequired means an account already owns the asserted
	// email and must confirm its password before the identity is linked.
	OutcomeLinkRequired Outcome = "link_required"
)

// Resolution is the result of resolving a provider assertion.
type Resolution struct {
	Outcome Outcome
	Account *models.Account
}

// Resolver maps an inbound credential or provider assertion to exactly
// one account, provisioning one when needed.
type Resolver struct {
	accounts   store.AccountStore
	identities store.IdentityStore
	logger     zerolog.Logger
}

// NewResolver creates a Resolver on top of the given stores.
func NewResolver(accounts store.AccountStore, identities store.IdentityStore, logger zerolog.Logger) *Resolver {
	return &Resolver{accounts: accounts, identities: identities, logger: logger}
}

// ResolveLocal verifies a password credential against the stored hash.
// Unknown identifiers, wrong passwords and inactive accounts all come
// back as ErrInvalidCredentials.
func (r *Resolver) ResolveLocal(ctx context.Context, identifier, secret string) (*models.Account, error) {
	acct, err := r.accounts.FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.Logins.WithLabelValues("password", "invalid_credentials").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !acct.Active() {
		metrics.Logins.WithLabelValues("password", "invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(secret)); err != nil {
		metrics.Logins.WithLabelValues("password", "invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	acct.LastLoginAt = &now
	if err := r.accounts.Update(ctx, acct); err != nil {
		r.logger.Warn().Err(err).Str("account_id", acct.ID).Msg("failed to record last login")
	}

	metrics.Logins.WithLabelValues("password", "success").Inc()
	return acct, nil
}

// ResolveAssertion maps a provider assertion to an account.
//
// A known (provider, subject) pair returns its owning account untouched:
// the local record stays authoritative over whatever the provider sends
// later. An unknown pair whose email already belongs to an account asks
// for explicit linking instead of provisioning a duplicate. Everything
// else provisions a fresh account.
func (r *Resolver) ResolveAssertion(ctx context.Context, assertion identity.Assertion) (*Resolution, error) {
	ident, err := r.identities.FindByProviderSubject(ctx, assertion.Provider, assertion.Subject)
	if err == nil {
		acct, err := r.accounts.FindByID(ctx, ident.AccountID)
		if err != nil {
			return nil, fmt.Errorf("linked identity %s points at missing account: %w", ident.ID, err)
		}
		metrics.Logins.WithLabelValues("oauth", "success").Inc()
		return &Resolution{Outcome: OutcomeLogin, Account: acct}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if assertion.Email != "" {
		existing, err := r.accounts.FindByEmail(ctx, assertion.Email)
		if err == nil {
			return &Resolution{Outcome: OutcomeLinkRequired, Account: existing}, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	acct, created, err := r.provision(ctx, assertion)
	if err != nil {
		return nil, err
	}

	metrics.Logins.WithLabelValues("oauth", "success").Inc()
	if !created {
		// race loser resolved to the winner's account
		return &Resolution{Outcome: OutcomeLogin, Account: acct}, nil
	}

	metrics.AccountsProvisioned.Inc()
	return &Resolution{Outcome: OutcomeRegistered, Account: acct}, nil
}

// provision creates the account and its identity binding in one
// transaction. Uniqueness conflicts get one targeted retry each:
// a username conflict regenerates the temporary username, an email
// conflict clears the email. An identity conflict means a concurrent
// request won the race, so the loser re-reads the winner's account.
func (r *Resolver) provision(ctx context.Context, assertion identity.Assertion) (*models.Account, bool, error) {
	acct, err := r.newAccount(assertion)
	if err != nil {
		return nil, false, err
	}

	var usernameRetried, emailRetried bool
	for {
		link := &models.LinkedIdentity{
			ID:       uuid.New().String(),
			Provider: assertion.Provider,
			Subject:  assertion.Subject,
		}

		err := r.identities.CreateWithAccount(ctx, acct, link)
		switch {
		case err == nil:
			r.logger.Info().
				Str("account_id", acct.ID).
				Str("provider", assertion.Provider).
				Bool("username_is_temporary", acct.UsernameIsTemporary).
				Msg("provisioned account from assertion")
			return acct, true, nil

		case errors.Is(err, store.ErrIdentityTaken):
			ident, lookupErr := r.identities.FindByProviderSubject(ctx, assertion.Provider, assertion.Subject)
			if lookupErr != nil {
				return nil, false, fmt.Errorf("identity conflict but winner not found: %w", lookupErr)
			}
			winner, lookupErr := r.accounts.FindByID(ctx, ident.AccountID)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			r.logger.Info().
				Str("account_id", winner.ID).
				Str("provider", assertion.Provider).
				Msg("lost provisioning race, re-resolved to existing account")
			return winner, false, nil

		case errors.Is(err, store.ErrUsernameTaken) && !usernameRetried:
			usernameRetried = true
			metrics.ProvisionRetries.WithLabelValues("username").Inc()
			username, genErr := randomUsername()
			if genErr != nil {
				return nil, false, genErr
			}
			acct.Username = username
			acct.UsernameIsTemporary = true

		case errors.Is(err, store.ErrEmailTaken) && !emailRetried:
			emailRetried = true
			metrics.ProvisionRetries.WithLabelValues("email").Inc()
			acct.Email = nil

		default:
			return nil, false, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
		}
	}
}

func (r *Resolver) newAccount(assertion identity.Assertion) (*models.Account, error) {
	acct := &models.Account{
		ID:      uuid.New().String(),
		AuthKey: uuid.New().String(),
		Status:  models.StatusActive,
	}

	if assertion.Username != "" {
		acct.Username = assertion.Username
	} else {
		username, err := randomUsername()
		if err != nil {
			return nil, err
		}
		acct.Username = username
		acct.UsernameIsTemporary = true
	}

	if email := normalizeEmail(assertion.Email); email != "" {
		acct.Email = &email
	}
	if assertion.DisplayName != "" {
		name := assertion.DisplayName
		acct.DisplayName = &name
	}

	secret, err := randomSecret()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	acct.PasswordHash = string(hash)

	return acct, nil
}
