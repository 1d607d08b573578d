package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkruchkov/accountd/internal/models"
	"github.com/mkruchkov/accountd/internal/store"
)

// Mailer delivers account mail. Implementations may drop messages when
// no mail transport is configured.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Service covers signup, profile edits and the password flows.
type Service struct {
	accounts   store.AccountStore
	identities store.IdentityStore
	resets     store.ResetTokenStore
	mailer     Mailer
	logger     zerolog.Logger
	appURL     string
	resetTTL   time.Duration
}

// NewService creates the account service.
func NewService(accounts store.AccountStore, identities store.IdentityStore, resets store.ResetTokenStore, mailer Mailer, logger zerolog.Logger, appURL string, resetTTL time.Duration) *Service {
	return &Service{
		accounts:   accounts,
		identities: identities,
		resets:     resets,
		mailer:     mailer,
		logger:     logger,
		appURL:     appURL,
		resetTTL:   resetTTL,
	}
}

// SignupInput is a local registration submission.
type SignupInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// Signup registers a fully specified local account. Accounts created
// here are complete from the start.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.Account, error) {
	in.Email = normalizeEmail(in.Email)

	verr := &ValidationError{}
	if msg := validateUsername(in.Username); msg != "" {
		verr.add("username", msg)
	}
	if msg := validateEmail(in.Email); msg != "" {
		verr.add("email", msg)
	}
	if msg := validatePassword(in.Password); msg != "" {
		verr.add("password", msg)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	acct := &models.Account{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        &in.Email,
		PasswordHash: string(hash),
		AuthKey:      uuid.New().String(),
		Status:       models.StatusActive,
	}
	if in.DisplayName != "" {
		acct.DisplayName = &in.DisplayName
	}

	if err := s.accounts.Create(ctx, acct); err != nil {
		switch {
		case errors.Is(err, store.ErrUsernameTaken):
			verr.add("username", "username already taken")
			return nil, verr
		case errors.Is(err, store.ErrEmailTaken):
			verr.add("email", "email already taken")
			return nil, verr
		}
		return nil, err
	}

	s.logger.Info().Str("account_id", acct.ID).Msg("account registered")
	return acct, nil
}

// UpdateProfile changes display name and email.
func (s *Service) UpdateProfile(ctx context.Context, acct *models.Account, displayName, email string) error {
	email = normalizeEmail(email)

	verr := &ValidationError{}
	if msg := validateEmail(email); msg != "" {
		verr.add("email", msg)
	}
	if err := verr.orNil(); err != nil {
		return err
	}

	prevName, prevEmail := acct.DisplayName, acct.Email
	if displayName != "" {
		acct.DisplayName = &displayName
	} else {
		acct.DisplayName = nil
	}
	acct.Email = &email

	if err := s.accounts.Update(ctx, acct); err != nil {
		acct.DisplayName, acct.Email = prevName, prevEmail
		if errors.Is(err, store.ErrEmailTaken) {
			verr.add("email", "email already taken")
			return verr
		}
		return err
	}

	s.logger.Info().Str("account_id", acct.ID).Msg("profile updated")
	return nil
}

// ChangePassword verifies the current password and stores the new one.
func (s *Service) ChangePassword(ctx context.Context, acct *models.Account, current, next string) error {
	if msg := validatePassword(next); msg != "" {
		verr := &ValidationError{}
		verr.add("new_password", msg)
		return verr
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(current)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	acct.PasswordHash = string(hash)

	if err := s.accounts.Update(ctx, acct); err != nil {
		return err
	}

	s.logger.Info().Str("account_id", acct.ID).Msg("password changed")
	return nil
}

// RequestPasswordReset mails a one-time reset link to the account owning
// the email. Returns store.ErrNotFound when no account owns it.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	acct, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := randomString(64)
	if err != nil {
		return err
	}

	record := &models.PasswordResetToken{
		TokenHash: hashResetToken(token),
		AccountID: acct.ID,
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, record); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)
	body := fmt.Sprintf("Follow this link to reset your password:\r\n\r\n%s\r\n\r\nThe link expires in %s.", link, s.resetTTL)
	if err := s.mailer.Send(ctx, email, "Password reset", body); err != nil {
		return err
	}

	s.logger.Info().Str("account_id", acct.ID).Msg("password reset requested")
	return nil
}

// ResetPassword consumes a reset token and sets the new password. The
// auth key is rotated so outstanding sessions die with the old password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if msg := validatePassword(newPassword); msg != "" {
		verr := &ValidationError{}
		verr.add("password", msg)
		return verr
	}

	record, err := s.resets.FindActive(ctx, hashResetToken(token), time.Now())
	if err != nil {
		return err
	}

	acct, err := s.accounts.FindByID(ctx, record.AccountID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	acct.PasswordHash = string(hash)
	acct.AuthKey = uuid.New().String()

	if err := s.accounts.Update(ctx, acct); err != nil {
		return err
	}
	if err := s.resets.MarkUsed(ctx, record); err != nil {
		return err
	}

	s.logger.Info().Str("account_id", acct.ID).Msg("password reset finished")
	return nil
}

// LinkIdentity attaches a provider identity to an existing account after
// verifying the account's password.
func (s *Service) LinkIdentity(ctx context.Context, acct *models.Account, provider, subject, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return ErrWrongPassword
	}

	link := &models.LinkedIdentity{
		ID:        uuid.New().String(),
		AccountID: acct.ID,
		Provider:  provider,
		Subject:   subject,
	}
	if err := s.identities.Create(ctx, link); err != nil {
		if errors.Is(err, store.ErrIdentityTaken) {
			// already linked, nothing to do
			return nil
		}
		return err
	}

	s.logger.Info().Str("account_id", acct.ID).Str("provider", provider).Msg("identity linked")
	return nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
