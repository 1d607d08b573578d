package session

import (
	"errors"
	"testing"
	"time"

	"github.com/mkruchkov/accountd/internal/models"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("test-secret")
	acct := &models.Account{ID: "acct-1", AuthKey: "key-1"}

	token, err := issuer.Issue(acct, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.AccountID != "acct-1" {
		t.Errorf("account id = %q, want acct-1", claims.AccountID)
	}
	if claims.AuthKey != "key-1" {
		t.Errorf("auth key = %q, want key-1", claims.AuthKey)
	}
}

func TestParseExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-secret")
	token, err := issuer.Issue(&models.Account{ID: "acct-1", AuthKey: "key-1"}, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := issuer.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseWrongSecret(t *testing.T) {
	token, err := NewIssuer("secret-a").Issue(&models.Account{ID: "acct-1"}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewIssuer("secret-b").Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseGarbage(t *testing.T) {
	issuer := NewIssuer("test-secret")
	for _, tokenString := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := issuer.Parse(tokenString); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse(%q): expected ErrInvalidToken, got %v", tokenString, err)
		}
	}
}
