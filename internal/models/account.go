package models

import "time"

// Account statuses.
const (
	StatusActive   = 10
	StatusInactive = 0
)

// Account represents a registered user record.
//
// An account is "complete" when it carries a user-chosen username and a
// non-empty email. Accounts provisioned from an identity-provider
// assertion may start out with a generated temporary username and no
// email; those stay constrained to the registration-completion flow
// until filled in.
type Account struct {
	ID                  string     `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Username            string     `json:"username" gorm:"uniqueIndex;not null"`
	Email               *string    `json:"email" gorm:"uniqueIndex"`
	DisplayName         *string    `json:"display_name"`
	PasswordHash        string     `json:"-" gorm:"not null"`
	AuthKey             string     `json:"-" gorm:"not null"`
	Status              int        `json:"status" gorm:"not null;default:10"`
	UsernameIsTemporary bool       `json:"username_is_temporary" gorm:"not null;default:false"`
	LastLoginAt         *time.Time `json:"last_login_at"`
	CreatedAt           time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt           time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "accounts"
}

// EmailValue returns the email or "" when unset.
func (a *Account) EmailValue() string {
	if a.Email == nil {
		return ""
	}
	return *a.Email
}

// Active reports whether the account may authenticate.
func (a *Account) Active() bool {
	return a.Status == StatusActive
}

// LinkedIdentity binds a third-party provider subject to one local account.
// The (provider, subject) pair is unique: concurrent provisioning attempts
// for the same assertion serialize on this constraint and the loser
// re-resolves to the winner's account.
type LinkedIdentity struct {
	ID        string    `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID string    `json:"account_id" gorm:"type:uuid;index;not null"`
	Provider  string    `json:"provider" gorm:"index:idx_linked_identities_provider_subject,unique;not null"`
	Subject   string    `json:"subject" gorm:"index:idx_linked_identities_provider_subject,unique;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for LinkedIdentity
func (LinkedIdentity) TableName() string {
	return "linked_identities"
}
