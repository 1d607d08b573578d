package store

import (
	"context"
	"errors"
	"time"

	"github.com/mkruchkov/accountd/internal/models"
)

// Typed persistence failures. Uniqueness conflicts are classified by the
// violated constraint so the resolver's retry policy can react per field.
var (
	ErrNotFound      = errors.New("record not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already taken")
	ErrIdentityTaken = errors.New("provider identity already linked")
)

// AccountStore persists account records.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id string) (*models.Account, error)
	// FindByLogin matches the identifier against username or email.
	FindByLogin(ctx context.Context, identifier string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
}

// IdentityStore persists provider-subject bindings.
type IdentityStore interface {
	FindByProviderSubject(ctx context.Context, provider, subject string) (*models.LinkedIdentity, error)
	Create(ctx context.Context, identity *models.LinkedIdentity) error
	// CreateWithAccount writes the account and its identity binding in a
	// single transaction so no account is ever reachable without its link.
	CreateWithAccount(ctx context.Context, account *models.Account, identity *models.LinkedIdentity) error
}

// OAuthSessionStore persists PKCE sessions and linking tokens.
type OAuthSessionStore interface {
	CreateSession(ctx context.Context, session *models.OAuthSession) error
	// ConsumeSession returns the unexpired session for state and deletes it.
	ConsumeSession(ctx context.Context, state string) (*models.OAuthSession, error)
	CreateLinkingToken(ctx context.Context, token *models.LinkingToken) error
	FindLinkingToken(ctx context.Context, token string) (*models.LinkingToken, error)
	DeleteLinkingToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ResetTokenStore persists password-reset tokens.
type ResetTokenStore interface {
	Create(ctx context.Context, token *models.PasswordResetToken) error
	FindActive(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordResetToken, error)
	MarkUsed(ctx context.Context, token *models.PasswordResetToken) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
