package identity

import "testing"

func TestMapAttributes(t *testing.T) {
	assertion := MapAttributes("google", &UserInfo{
		Subject:           "sub-123",
		PreferredUsername: "  alice ",
		Email:             " Alice@Example.COM ",
		Name:              " Alice Aster ",
	})

	if assertion.Provider != "google" {
		t.Errorf("provider = %q, want google", assertion.Provider)
	}
	if assertion.Subject != "sub-123" {
		t.Errorf("subject = %q, want sub-123", assertion.Subject)
	}
	if assertion.Username != "alice" {
		t.Errorf("username = %q, want alice", assertion.Username)
	}
	if assertion.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", assertion.Email)
	}
	if assertion.DisplayName != "Alice Aster" {
		t.Errorf("display name = %q, want %q", assertion.DisplayName, "Alice Aster")
	}
}

func TestMapAttributesSparseUserInfo(t *testing.T) {
	assertion := MapAttributes("github", &UserInfo{Subject: "sub-456"})

	if assertion.Subject != "sub-456" {
		t.Errorf("subject = %q, want sub-456", assertion.Subject)
	}
	if assertion.Username != "" || assertion.Email != "" || assertion.DisplayName != "" {
		t.Errorf("optional fields should stay empty: %+v", assertion)
	}
}
