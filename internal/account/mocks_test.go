package account

import (
	"context"
	"sync"
	"time"

	"github.com/mkruchkov/accountd/internal/models"
	"github.com/mkruchkov/accountd/internal/store"
)

// mockAccountStore keeps accounts in memory and enforces the same
// uniqueness rules the database does.
type mockAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{accounts: map[string]*models.Account{}}
}

func (s *mockAccountStore) conflict(candidate *models.Account) error {
	for _, a := range s.accounts {
		if a.ID == candidate.ID {
			continue
		}
		if a.Username == candidate.Username {
			return store.ErrUsernameTaken
		}
		if a.Email != nil && candidate.Email != nil && *a.Email == *candidate.Email {
			return store.ErrEmailTaken
		}
	}
	return nil
}

func (s *mockAccountStore) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conflict(account); err != nil {
		return err
	}
	account.CreatedAt = time.Now()
	clone := *account
	s.accounts[account.ID] = &clone
	return nil
}

func (s *mockAccountStore) FindByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[id]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, store.ErrNotFound
}

func (s *mockAccountStore) FindByLogin(_ context.Context, identifier string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Username == identifier || (a.Email != nil && *a.Email == identifier) {
			clone := *a
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *mockAccountStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email != nil && *a.Email == email {
			clone := *a
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *mockAccountStore) Update(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; !ok {
		return store.ErrNotFound
	}
	if err := s.conflict(account); err != nil {
		return err
	}
	clone := *account
	s.accounts[account.ID] = &clone
	return nil
}

func (s *mockAccountStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// mockIdentityStore pairs with a mockAccountStore so CreateWithAccount
// behaves like the real transaction: either both rows land or neither.
type mockIdentityStore struct {
	mu         sync.Mutex
	accounts   *mockAccountStore
	identities map[string]*models.LinkedIdentity

	// scripted errors returned by successive CreateWithAccount calls
	// before the real logic runs; nil entries fall through.
	createErrs []error
}

func newMockIdentityStore(accounts *mockAccountStore) *mockIdentityStore {
	return &mockIdentityStore{accounts: accounts, identities: map[string]*models.LinkedIdentity{}}
}

func identityKey(provider, subject string) string { return provider + "\x00" + subject }

func (s *mockIdentityStore) FindByProviderSubject(_ context.Context, provider, subject string) (*models.LinkedIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ident, ok := s.identities[identityKey(provider, subject)]; ok {
		clone := *ident
		return &clone, nil
	}
	return nil, store.ErrNotFound
}

func (s *mockIdentityStore) Create(_ context.Context, identity *models.LinkedIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := identityKey(identity.Provider, identity.Subject)
	if _, ok := s.identities[key]; ok {
		return store.ErrIdentityTaken
	}
	clone := *identity
	s.identities[key] = &clone
	return nil
}

func (s *mockIdentityStore) CreateWithAccount(ctx context.Context, account *models.Account, identity *models.LinkedIdentity) error {
	s.mu.Lock()
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if err != nil {
			s.mu.Unlock()
			return err
		}
	}
	key := identityKey(identity.Provider, identity.Subject)
	if _, ok := s.identities[key]; ok {
		s.mu.Unlock()
		return store.ErrIdentityTaken
	}
	s.mu.Unlock()

	if err := s.accounts.Create(ctx, account); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	identity.AccountID = account.ID
	clone := *identity
	s.identities[key] = &clone
	return nil
}

func (s *mockIdentityStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.identities)
}

// mockResetTokenStore keeps reset tokens in memory.
type mockResetTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*models.PasswordResetToken
}

func newMockResetTokenStore() *mockResetTokenStore {
	return &mockResetTokenStore{tokens: map[string]*models.PasswordResetToken{}}
}

func (s *mockResetTokenStore) Create(_ context.Context, token *models.PasswordResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *token
	s.tokens[token.TokenHash] = &clone
	return nil
}

func (s *mockResetTokenStore) FindActive(_ context.Context, tokenHash string, now time.Time) (*models.PasswordResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[tokenHash]
	if !ok || tok.UsedAt != nil || tok.ExpiresAt.Before(now) {
		return nil, store.ErrNotFound
	}
	clone := *tok
	return &clone, nil
}

func (s *mockResetTokenStore) MarkUsed(_ context.Context, token *models.PasswordResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if tok, ok := s.tokens[token.TokenHash]; ok {
		tok.UsedAt = &now
	}
	return nil
}

func (s *mockResetTokenStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for k, tok := range s.tokens {
		if tok.ExpiresAt.Before(now) {
			delete(s.tokens, k)
			deleted++
		}
	}
	return deleted, nil
}

// mockMailer records outgoing mail.
type mockMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *mockMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}
