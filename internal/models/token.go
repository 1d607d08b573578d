package models

import "time"

// PasswordResetToken is a single-use token mailed to the account's email.
type PasswordResetToken struct {
	ID        int        `json:"id" gorm:"primaryKey;autoIncrement"`
	TokenHash string     `json:"-" gorm:"uniqueIndex;not null"`
	AccountID string     `json:"account_id" gorm:"type:uuid;index;not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName specifies the table name for PasswordResetToken
func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}
