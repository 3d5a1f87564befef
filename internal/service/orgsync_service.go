package service

import (
	"errors"
	"strings"

	"console-service/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrgSyncService materializes external organization path strings into a tree
// of tenants and attaches the account as owner to every level. It runs on
// every login and is idempotent: re-running with the same organization list
// creates no new tenants, mappings or memberships.
type OrgSyncService struct {
	db      *gorm.DB
	tenants *TenantService
	log     *zap.Logger
}

// NewOrgSyncService creates an organization sync service
func NewOrgSyncService(db *gorm.DB, tenants *TenantService, log *zap.Logger) *OrgSyncService {
	return &OrgSyncService{db: db, tenants: tenants, log: log}
}

// orgLevel is one level of a parsed organization path. Key is the cumulative
// path key ("acme", "acme/dept", "acme/dept-team"); Name is the level's own
// segment.
type orgLevel struct {
	Key  string
	Name string
}

// parseOrgPath expands an organization string into its levels, root first.
// "acme" is a single flat level; "acme/dept-team" expands to acme,
// acme/dept, acme/dept-team. A path with no segments after the separator
// ("acme/") collapses to the flat case.
func parseOrgPath(org string) []orgLevel {
	root, rest, found := strings.Cut(org, "/")
	if !found {
		return []orgLevel{{Key: org, Name: org}}
	}

	var segments []string
	for _, seg := range strings.Split(rest, "-") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return []orgLevel{{Key: root, Name: root}}
	}

	levels := make([]orgLevel, 0, len(segments)+1)
	levels = append(levels, orgLevel{Key: root, Name: root})
	for i, seg := range segments {
		levels = append(levels, orgLevel{
			Key:  root + "/" + strings.Join(segments[:i+1], "-"),
			Name: seg,
		})
	}
	return levels
}

// Sync walks the account's organization paths, ensures a tenant exists for
// every level (parent before child), attaches the account as owner to each
// level, and selects a current tenant if the account has none.
func (s *OrgSyncService) Sync(account *model.Account, organizations []string) error {
	if len(organizations) == 0 {
		s.log.Info("No organizations to sync", zap.String("email", account.Email))
		return nil
	}

	var visited []uint
	for _, org := range organizations {
		if org == "" {
			continue
		}

		var parentID *uint
		for _, level := range parseOrgPath(org) {
			tenant, err := s.ensureTenant(level.Key, level.Name, parentID)
			if err != nil {
				return err
			}
			if err := s.tenants.CreateTenantMember(tenant, account, model.TenantRoleOwner); err != nil {
				return err
			}
			visited = append(visited, tenant.ID)
			parentID = &tenant.ID
		}
	}

	if account.CurrentTenantID == nil && len(visited) > 0 {
		var first model.Tenant
		if err := s.db.First(&first, visited[0]).Error; err != nil {
			return err
		}
		if err := s.tenants.SetCurrentTenant(account, &first); err != nil {
			return err
		}
	}

	return nil
}

// ensureTenant returns the tenant for the cumulative path key, creating the
// tenant and its mapping record together when the key is new. Creation is
// one transaction so a tenant without its mapping is never observable.
// Concurrent logins racing on the same key are resolved by the unique
// org_key index: the loser rereads instead of inserting a duplicate.
func (s *OrgSyncService) ensureTenant(key, name string, parentID *uint) (*model.Tenant, error) {
	tenant, err := s.lookupByOrgKey(key)
	if err != nil {
		return nil, err
	}
	if tenant != nil {
		return tenant, nil
	}

	orgKey := key
	created := model.Tenant{
		Name:     name,
		ParentID: parentID,
		OrgKey:   &orgKey,
		Plan:     "basic",
		Status:   "normal",
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		return tx.Create(&model.OrgMapping{OrgKey: key, TenantID: created.ID}).Error
	})
	if err == nil {
		s.log.Info("Tenant materialized from organization path",
			zap.String("org_key", key),
			zap.Uint("tenant_id", created.ID))
		return &created, nil
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		tenant, lookupErr := s.lookupByOrgKey(key)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if tenant != nil {
			return tenant, nil
		}
	}
	return nil, err
}

// lookupByOrgKey resolves a cumulative path key through the mapping cache.
// Returns nil without error when the key is unknown.
func (s *OrgSyncService) lookupByOrgKey(key string) (*model.Tenant, error) {
	var mapping model.OrgMapping
	err := s.db.Where("org_key = ?", key).First(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var tenant model.Tenant
	if err := s.db.First(&tenant, mapping.TenantID).Error; err != nil {
		return nil, err
	}
	return &tenant, nil
}
