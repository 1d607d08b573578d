package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/mkruchkov/accountd/internal/models"
)

const pgUniqueViolation = "23505"

// classifyError maps driver errors onto the store's typed failures.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch {
		case strings.Contains(pgErr.ConstraintName, "provider_subject"):
			return ErrIdentityTaken
		case strings.Contains(pgErr.ConstraintName, "username"):
			return ErrUsernameTaken
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrEmailTaken
		}
	}
	return err
}

type accountStore struct{ db *gorm.DB }

// NewAccountStore returns the gorm-backed AccountStore.
func NewAccountStore(db *gorm.DB) AccountStore { return &accountStore{db: db} }

func (s *accountStore) Create(ctx context.Context, account *models.Account) error {
	return classifyError(s.db.WithContext(ctx).Create(account).Error)
}

func (s *accountStore) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, classifyError(err)
	}
	return &account, nil
}

func (s *accountStore) FindByLogin(ctx context.Context, identifier string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&account).Error
	if err != nil {
		return nil, classifyError(err)
	}
	return &account, nil
}

func (s *accountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, classifyError(err)
	}
	return &account, nil
}

func (s *accountStore) Update(ctx context.Context, account *models.Account) error {
	return classifyError(s.db.WithContext(ctx).Save(account).Error)
}

type identityStore struct{ db *gorm.DB }

// NewIdentityStore returns the gorm-backed IdentityStore.
func NewIdentityStore(db *gorm.DB) IdentityStore { return &identityStore{db: db} }

func (s *identityStore) FindByProviderSubject(ctx context.Context, provider, subject string) (*models.LinkedIdentity, error) {
	var identity models.LinkedIdentity
	err := s.db.WithContext(ctx).
		Where("provider = ? AND subject = ?", provider, subject).
		First(&identity).Error
	if err != nil {
		return nil, classifyError(err)
	}
	return &identity, nil
}

func (s *identityStore) Create(ctx context.Context, identity *models.LinkedIdentity) error {
	return classifyError(s.db.WithContext(ctx).Create(identity).Error)
}

func (s *identityStore) CreateWithAccount(ctx context.Context, account *models.Account, identity *models.LinkedIdentity) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return err
		}
		identity.AccountID = account.ID
		return tx.Create(identity).Error
	})
	return classifyError(err)
}

type oauthSessionStore struct{ db *gorm.DB }

// NewOAuthSessionStore returns the gorm-backed OAuthSessionStore.
func NewOAuthSessionStore(db *gorm.DB) OAuthSessionStore { return &oauthSessionStore{db: db} }

func (s *oauthSessionStore) CreateSession(ctx context.Context, session *models.OAuthSession) error {
	return classifyError(s.db.WithContext(ctx).Create(session).Error)
}

func (s *oauthSessionStore) ConsumeSession(ctx context.Context, state string) (*models.OAuthSession, error) {
	var session models.OAuthSession
	err := s.db.WithContext(ctx).
		Where("state = ? AND expires_at > ?", state, time.Now()).
		First(&session).Error
	if err != nil {
		return nil, classifyError(err)
	}
	// one-time use
	if err := s.db.WithContext(ctx).Delete(&session).Error; err != nil {
		return nil, classifyError(err)
	}
	return &session, nil
}

func (s *oauthSessionStore) CreateLinkingToken(ctx context.Context, token *models.LinkingToken) error {
	return classifyError(s.db.WithContext(ctx).Create(token).Error)
}

func (s *oauthSessionStore) FindLinkingToken(ctx context.Context, token string) (*models.LinkingToken, error) {
	var linking models.LinkingToken
	err := s.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		First(&linking).Error
	if err != nil {
		return nil, classifyError(err)
	}
	return &linking, nil
}

func (s *oauthSessionStore) DeleteLinkingToken(ctx context.Context, token string) error {
	return classifyError(s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.LinkingToken{}).Error)
}

func (s *oauthSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64

	result := s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.OAuthSession{})
	if result.Error != nil {
		return deleted, classifyError(result.Error)
	}
	deleted += result.RowsAffected

	result = s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.LinkingToken{})
	if result.Error != nil {
		return deleted, classifyError(result.Error)
	}
	deleted += result.RowsAffected

	return deleted, nil
}

type resetTokenStore struct{ db *gorm.DB }

// NewResetTokenStore returns the gorm-backed ResetTokenStore.
func NewResetTokenStore(db *gorm.DB) ResetTokenStore { return &resetTokenStore{db: db} }

func (s *resetTokenStore) Create(ctx context.Context, token *models.PasswordResetToken) error {
	return classifyError(s.db.WithContext(ctx).Create(token).Error)
}

func (s *resetTokenStore) FindActive(ctx context.Context, tokenHash string, now time.Time) (*models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	err := s.db.WithContext(ctx).
		Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", tokenHash, now).
		First(&token).Error
	if err != nil {
		return nil, classifyError(err)
	}
	return &token, nil
}

func (s *resetTokenStore) MarkUsed(ctx context.Context, token *models.PasswordResetToken) error {
	now := time.Now()
	token.UsedAt = &now
	return classifyError(s.db.WithContext(ctx).Save(token).Error)
}

func (s *resetTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.PasswordResetToken{})
	return result.RowsAffected, classifyError(result.Error)
}
