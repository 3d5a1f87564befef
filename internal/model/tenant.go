package model

import (
	"time"

	"gorm.io/gorm"
)

// Tenant represents a workspace stored in the database.
// Tenants form a forest: a tenant materialized from an external organization
// path carries a ParentID and an OrgKey, the cumulative path key
// (e.g. "acme", "acme/dept", "acme/dept-team"). OrgKey is unique when set.
type Tenant struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	ParentID  *uint          `json:"parent_id,omitempty" gorm:"index"`
	OrgKey    *string        `json:"org_key,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	Plan      string         `json:"plan" gorm:"type:varchar(32);not null;default:'basic'"`
	Status    string         `json:"status" gorm:"type:varchar(16);not null;default:'normal'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// OrgMapping caches the link between an external organization path key and the
// tenant materialized for it, so repeated logins don't re-derive tenant
// identity from the path string. One mapping per org key.
type OrgMapping struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrgKey    string    `json:"org_key" gorm:"type:varchar(255);uniqueIndex;not null"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Tenant Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}
