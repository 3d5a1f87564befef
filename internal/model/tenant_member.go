package model

import (
	"time"

	"gorm.io/gorm"
)

// TenantMember represents the association between accounts and tenants.
// The (tenant_id, account_id) pair is unique; attaching an account to a
// tenant it already belongs to is a no-op at the service layer.
type TenantMember struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"uniqueIndex:idx_tenant_account;not null"`
	AccountID uint           `json:"account_id" gorm:"uniqueIndex:idx_tenant_account;not null"`
	Role      string         `json:"role" gorm:"type:varchar(16);not null;default:'normal'"` // Role within tenant: 'owner', 'admin', 'normal'
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Tenant  Tenant  `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	Account Account `json:"account,omitempty" gorm:"foreignKey:AccountID"`
}

// Tenant member roles
const (
	TenantRoleOwner  = "owner"
	TenantRoleAdmin  = "admin"
	TenantRoleNormal = "normal"
)
