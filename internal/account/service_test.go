package account

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkruchkov/accountd/internal/identity"
	"github.com/mkruchkov/accountd/internal/store"
)

func testService() (*Service, *mockAccountStore, *mockResetTokenStore, *mockMailer) {
	accounts := newMockAccountStore()
	identities := newMockIdentityStore(accounts)
	resets := newMockResetTokenStore()
	mailer := &mockMailer{}
	svc := NewService(accounts, identities, resets, mailer, zerolog.Nop(), "http://localhost:3000", 30*time.Minute)
	return svc, accounts, resets, mailer
}

func TestSignup(t *testing.T) {
	svc, accounts, _, _ := testService()

	acct, err := svc.Signup(context.Background(), SignupInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if acct.EmailValue() != "alice@example.com" {
		t.Errorf("email not normalized: %q", acct.EmailValue())
	}
	if Classify(acct) != Complete {
		t.Error("local signup must produce a complete account")
	}
	if accounts.count() != 1 {
		t.Fatalf("expected 1 account, got %d", accounts.count())
	}
}

func TestSignupValidation(t *testing.T) {
	svc, _, _, _ := testService()

	_, err := svc.Signup(context.Background(), SignupInput{Username: "x", Email: "bad", Password: "short"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"username", "email", "password"} {
		if verr.Fields[field] == "" {
			t.Errorf("expected a %s error", field)
		}
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	svc, _, _, _ := testService()

	if _, err := svc.Signup(context.Background(), SignupInput{Username: "alice", Email: "a1@example.com", Password: "password123"}); err != nil {
		t.Fatalf("first signup: %v", err)
	}

	_, err := svc.Signup(context.Background(), SignupInput{Username: "alice", Email: "a2@example.com", Password: "password123"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Fields["username"] == "" {
		t.Error("expected a username uniqueness error")
	}
}

func TestChangePassword(t *testing.T) {
	svc, accounts, _, _ := testService()
	resolver := NewResolver(accounts, newMockIdentityStore(accounts), zerolog.Nop())

	acct, err := svc.Signup(context.Background(), SignupInput{Username: "bob", Email: "bob@example.com", Password: "old-password"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), acct, "wrong", "new-password1"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}

	if err := svc.ChangePassword(context.Background(), acct, "old-password", "new-password1"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, err := resolver.ResolveLocal(context.Background(), "bob", "old-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password should no longer work")
	}
	if _, err := resolver.ResolveLocal(context.Background(), "bob", "new-password1"); err != nil {
		t.Errorf("new password should work: %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, accounts, _, _ := testService()

	acct, err := svc.Signup(context.Background(), SignupInput{Username: "carol", Email: "carol@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if err := svc.UpdateProfile(context.Background(), acct, "Carol C.", "carol2@example.com"); err != nil {
		t.Fatalf("update profile: %v", err)
	}

	stored, err := accounts.FindByID(context.Background(), acct.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.EmailValue() != "carol2@example.com" {
		t.Errorf("email not updated: %q", stored.EmailValue())
	}
	if stored.DisplayName == nil || *stored.DisplayName != "Carol C." {
		t.Error("display name not updated")
	}
}

var resetLinkRegexp = regexp.MustCompile(`token=([0-9a-f]{64})`)

func TestPasswordResetFlow(t *testing.T) {
	svc, accounts, _, mailer := testService()
	resolver := NewResolver(accounts, newMockIdentityStore(accounts), zerolog.Nop())

	acct, err := svc.Signup(context.Background(), SignupInput{Username: "dave", Email: "dave@example.com", Password: "old-password"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	oldAuthKey := acct.AuthKey

	// unknown email is reported, nothing is sent
	if err := svc.RequestPasswordReset(context.Background(), "nobody@example.com"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown email, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("no mail expected for unknown email")
	}

	if err := svc.RequestPasswordReset(context.Background(), "dave@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].to != "dave@example.com" {
		t.Fatalf("expected one mail to dave@example.com, got %+v", mailer.sent)
	}

	match := resetLinkRegexp.FindStringSubmatch(mailer.sent[0].body)
	if match == nil {
		t.Fatalf("no reset token in mail body: %q", mailer.sent[0].body)
	}
	token := match[1]

	if err := svc.ResetPassword(context.Background(), token, "new-password1"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, err := resolver.ResolveLocal(context.Background(), "dave", "new-password1"); err != nil {
		t.Errorf("new password should work: %v", err)
	}

	stored, err := accounts.FindByID(context.Background(), acct.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.AuthKey == oldAuthKey {
		t.Error("auth key should rotate on password reset")
	}

	// tokens are single use
	if err := svc.ResetPassword(context.Background(), token, "another-pass1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for used token, got %v", err)
	}
}

func TestLinkIdentity(t *testing.T) {
	accounts := newMockAccountStore()
	identities := newMockIdentityStore(accounts)
	svc := NewService(accounts, identities, newMockResetTokenStore(), &mockMailer{}, zerolog.Nop(), "http://localhost:3000", 30*time.Minute)
	resolver := NewResolver(accounts, identities, zerolog.Nop())

	acct, err := svc.Signup(context.Background(), SignupInput{Username: "erin", Email: "erin@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	if err := svc.LinkIdentity(context.Background(), acct, "google", "erin-sub", "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if identities.count() != 0 {
		t.Fatal("failed verification must not create a link")
	}

	if err := svc.LinkIdentity(context.Background(), acct, "google", "erin-sub", "password123"); err != nil {
		t.Fatalf("link: %v", err)
	}

	resolution, err := resolver.ResolveAssertion(context.Background(), identity.Assertion{Provider: "google", Subject: "erin-sub"})
	if err != nil {
		t.Fatalf("resolve after link: %v", err)
	}
	if resolution.Account.ID != acct.ID {
		t.Fatalf("expected linked account %s, got %s", acct.ID, resolution.Account.ID)
	}
}
