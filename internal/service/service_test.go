package service

import (
	"testing"

	"console-service/internal/model"
	"console-service/pkg/config"
	"console-service/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an in-memory database migrated to the service schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestFeatures(allowRegister, allowCreateWorkspace, billingEnabled bool) *FeatureService {
	return NewFeatureService(config.FeatureConfig{
		AllowRegister:        allowRegister,
		AllowCreateWorkspace: allowCreateWorkspace,
		BillingEnabled:       billingEnabled,
	})
}

// frozenList is a FreezeChecker backed by a fixed set of emails
type frozenList map[string]bool

func (f frozenList) IsEmailInFreeze(email string) bool {
	return f[email]
}

func newTestAccount(t *testing.T, db *gorm.DB, email string) *model.Account {
	t.Helper()

	account := &model.Account{
		Name:   "Test User",
		Email:  email,
		Status: model.AccountStatusActive,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func newTestServices(t *testing.T, db *gorm.DB) (*TenantService, *OrgSyncService) {
	t.Helper()

	tenants := NewTenantService(db, newTestFeatures(true, true, false), zap.NewNop())
	orgSync := NewOrgSyncService(db, tenants, zap.NewNop())
	return tenants, orgSync
}

func countRows(t *testing.T, db *gorm.DB, value interface{}) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(value).Count(&count).Error)
	return count
}
