package identity

import "strings"

// Assertion is the canonical identity a provider asserts. It carries only
// the fields the account workflow consumes; anything else the provider
// returns is dropped instead of being spread onto the account.
type Assertion struct {
	Provider    string
	Subject     string
	Username    string
	Email       string
	DisplayName string
}

// MapAttributes turns a raw userinfo response into a typed assertion.
func MapAttributes(provider string, info *UserInfo) Assertion {
	return Assertion{
		Provider:    provider,
		Subject:     info.Subject,
		Username:    strings.TrimSpace(info.PreferredUsername),
		Email:       strings.TrimSpace(strings.ToLower(info.Email)),
		DisplayName: strings.TrimSpace(info.Name),
	}
}
