package models

import "time"

// OAuthSession represents a PKCE session for the OAuth authorization flow
type OAuthSession struct {
	ID           int       `json:"id" gorm:"primaryKey;autoIncrement"`
	State        string    `json:"state" gorm:"uniqueIndex;not null"`
	CodeVerifier string    `json:"code_verifier" gorm:"not null"`
	RedirectURI  *string   `json:"redirect_uri"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null"`
}

// TableName specifies the table name for OAuthSession
func (OAuthSession) TableName() string {
	return "oauth_sessions"
}

// LinkingToken represents a temporary token for attaching a provider
// identity to an existing account after password verification.
type LinkingToken struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Token     string    `json:"token" gorm:"uniqueIndex;not null"`
	AccountID string    `json:"account_id" gorm:"type:uuid;not null"`
	Provider  string    `json:"provider" gorm:"not null"`
	Subject   string    `json:"subject" gorm:"not null"`
	Email     string    `json:"email" gorm:"not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for LinkingToken
func (LinkingToken) TableName() string {
	return "linking_tokens"
}
