package service

import (
	"errors"
	"fmt"
	"time"

	"console-service/internal/model"
	"console-service/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TenantNode is one level of a workspace hierarchy tree
type TenantNode struct {
	ID       uint          `json:"id"`
	Name     string        `json:"name"`
	Children []*TenantNode `json:"children"`
}

// TenantInfo is the workspace summary returned to the console, including the
// caller's role in it
type TenantInfo struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantService manages workspaces and their memberships
type TenantService struct {
	db      *gorm.DB
	feature *FeatureService
	log     *zap.Logger
}

// NewTenantService creates a tenant service
func NewTenantService(db *gorm.DB, feature *FeatureService, log *zap.Logger) *TenantService {
	return &TenantService{db: db, feature: feature, log: log}
}

// CreateTenant creates a root-level workspace without an organization key
func (s *TenantService) CreateTenant(name string) (*model.Tenant, error) {
	tenant := model.Tenant{
		Name:   name,
		Plan:   "basic",
		Status: "normal",
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := s.db.Create(&tenant).Error; err != nil {
		return nil, err
	}

	prometheus.RecordTenantOperation("create")
	return &tenant, nil
}

// CreateTenantMember attaches the account to the tenant with the given role.
// Attaching an existing member is a no-op; the stored role is not changed.
func (s *TenantService) CreateTenantMember(tenant *model.Tenant, account *model.Account, role string) error {
	member := model.TenantMember{
		TenantID:  tenant.ID,
		AccountID: account.ID,
		Role:      role,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := s.db.Where("tenant_id = ? AND account_id = ?", tenant.ID, account.ID).
		FirstOrCreate(&member).Error
	if err != nil {
		return err
	}

	prometheus.RecordTenantOperation("attach_member")
	return nil
}

// IsMember returns whether the account belongs to the tenant
func (s *TenantService) IsMember(tenantID, accountID uint) (bool, error) {
	var count int64
	err := s.db.Model(&model.TenantMember{}).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID).
		Count(&count).Error
	return count > 0, err
}

// GetJoinTenants returns the tenants the account is a member of
func (s *TenantService) GetJoinTenants(account *model.Account) ([]model.Tenant, error) {
	var tenants []model.Tenant
	err := s.db.
		Joins("JOIN tenant_members ON tenant_members.tenant_id = tenants.id").
		Where("tenant_members.account_id = ? AND tenant_members.deleted_at IS NULL", account.ID).
		Order("tenant_members.created_at").
		Find(&tenants).Error
	return tenants, err
}

// SetCurrentTenant selects the tenant as the account's current workspace
func (s *TenantService) SetCurrentTenant(account *model.Account, tenant *model.Tenant) error {
	account.CurrentTenantID = &tenant.ID
	return s.db.Model(account).Update("current_tenant_id", tenant.ID).Error
}

// EnsureDefaultWorkspace guarantees the account has at least one workspace
// membership. An account with none gets a personal workspace when workspace
// self-creation is allowed; otherwise the login is refused.
func (s *TenantService) EnsureDefaultWorkspace(account *model.Account) error {
	tenants, err := s.GetJoinTenants(account)
	if err != nil {
		return err
	}
	if len(tenants) > 0 {
		return nil
	}

	if !s.feature.IsAllowCreateWorkspace() {
		return ErrWorkspaceNotAllowedCreate
	}

	tenant, err := s.CreateTenant(fmt.Sprintf("%s's Workspace", account.Name))
	if err != nil {
		return err
	}
	if err := s.CreateTenantMember(tenant, account, model.TenantRoleOwner); err != nil {
		return err
	}
	if err := s.SetCurrentTenant(account, tenant); err != nil {
		return err
	}

	s.log.Info("Default workspace created",
		zap.String("email", account.Email),
		zap.Uint("tenant_id", tenant.ID))
	return nil
}

// GetTenantInfo returns the workspace summary with the account's role in it
func (s *TenantService) GetTenantInfo(tenantID, accountID uint) (*TenantInfo, error) {
	var tenant model.Tenant
	if err := s.db.First(&tenant, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}

	var member model.TenantMember
	err := s.db.Where("tenant_id = ? AND account_id = ?", tenantID, accountID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}

	prometheus.RecordTenantOperation("access")
	return &TenantInfo{
		ID:        tenant.ID,
		Name:      tenant.Name,
		Plan:      tenant.Plan,
		Status:    tenant.Status,
		Role:      member.Role,
		CreatedAt: tenant.CreatedAt,
	}, nil
}

// GetHierarchy returns the subtree rooted at the tenant
func (s *TenantService) GetHierarchy(tenantID uint) (*TenantNode, error) {
	var tenant model.Tenant
	if err := s.db.First(&tenant, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}

	children, err := s.childTree(tenant.ID)
	if err != nil {
		return nil, err
	}

	return &TenantNode{ID: tenant.ID, Name: tenant.Name, Children: children}, nil
}

// GetAllHierarchies returns every root tenant with its subtree
func (s *TenantService) GetAllHierarchies() ([]*TenantNode, error) {
	var roots []model.Tenant
	if err := s.db.Where("parent_id IS NULL").Order("id").Find(&roots).Error; err != nil {
		return nil, err
	}

	result := make([]*TenantNode, 0, len(roots))
	for _, root := range roots {
		children, err := s.childTree(root.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, &TenantNode{ID: root.ID, Name: root.Name, Children: children})
	}
	return result, nil
}

// childTree is the single recursive traversal used by every hierarchy query
func (s *TenantService) childTree(parentID uint) ([]*TenantNode, error) {
	var children []model.Tenant
	if err := s.db.Where("parent_id = ?", parentID).Order("id").Find(&children).Error; err != nil {
		return nil, err
	}

	nodes := make([]*TenantNode, 0, len(children))
	for _, child := range children {
		grandchildren, err := s.childTree(child.ID)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, &TenantNode{ID: child.ID, Name: child.Name, Children: grandchildren})
	}
	return nodes, nil
}
