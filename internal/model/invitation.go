package model

import "time"

// Invitation represents a pending workspace invitation. An invitation is
// bound to an email address; the OAuth callback refuses to complete an
// invite whose bound email differs from the external identity's email.
type Invitation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Token     string    `json:"token" gorm:"type:varchar(255);uniqueIndex;not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);index;not null"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	Used      bool      `json:"used" gorm:"default:false"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
