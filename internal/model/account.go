package model

import (
	"time"

	"gorm.io/gorm"
)

// AccountStatus enumerates the lifecycle states of an account
type AccountStatus string

const (
	AccountStatusPending AccountStatus = "pending"
	AccountStatusActive  AccountStatus = "active"
	AccountStatusBanned  AccountStatus = "banned"
)

// Account represents a console user stored in the database
type Account struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	Name              string         `json:"name" gorm:"type:varchar(255);not null"`
	Email             string         `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash      string         `json:"-" gorm:"type:varchar(255)"`
	Status            AccountStatus  `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`
	InterfaceLanguage string         `json:"interface_language" gorm:"type:varchar(32)"`
	InitializedAt     *time.Time     `json:"initialized_at,omitempty"` // Set once, on first successful login
	CurrentTenantID   *uint          `json:"current_tenant_id,omitempty" gorm:"index"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`
}

// AccountIntegrate links an account to an external OAuth identity.
// The (provider, open_id) pair is the provider-link index used by identity lookup.
type AccountIntegrate struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AccountID uint      `json:"account_id" gorm:"uniqueIndex:idx_account_provider;not null"`
	Provider  string    `json:"provider" gorm:"type:varchar(32);uniqueIndex:idx_account_provider;uniqueIndex:idx_provider_open_id;not null"`
	OpenID    string    `json:"open_id" gorm:"type:varchar(255);uniqueIndex:idx_provider_open_id;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Account Account `json:"account,omitempty" gorm:"foreignKey:AccountID"`
}
