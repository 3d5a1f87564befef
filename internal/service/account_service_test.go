package service

import (
	"testing"

	"console-service/internal/model"
	"console-service/internal/oauth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFindByOpenIDOrEmail(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountService(db, newTestFeatures(true, true, false), frozenList{}, zap.NewNop())

	existing := newTestAccount(t, db, "linked@example.com")
	require.NoError(t, db.Create(&model.AccountIntegrate{
		AccountID: existing.ID,
		Provider:  "github",
		OpenID:    "gh-123",
	}).Error)

	t.Run("finds by provider link", func(t *testing.T) {
		found, err := accounts.FindByOpenIDOrEmail("github", &oauth.UserInfo{
			ID:    "gh-123",
			Email: "other@example.com",
		})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, existing.ID, found.ID)
	})

	t.Run("falls back to email", func(t *testing.T) {
		found, err := accounts.FindByOpenIDOrEmail("github", &oauth.UserInfo{
			ID:    "gh-999",
			Email: "linked@example.com",
		})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, existing.ID, found.ID)
	})

	t.Run("returns nil when absent", func(t *testing.T) {
		found, err := accounts.FindByOpenIDOrEmail("github", &oauth.UserInfo{
			ID:    "gh-999",
			Email: "nobody@example.com",
		})
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestProvision(t *testing.T) {
	t.Run("creates pending account with provider link", func(t *testing.T) {
		db := newTestDB(t)
		accounts := NewAccountService(db, newTestFeatures(true, true, false), frozenList{}, zap.NewNop())

		account, err := accounts.Provision("casdoor", &oauth.UserInfo{
			ID:    "cd-1",
			Name:  "Alex",
			Email: "alex@example.com",
		}, "ja-JP,en-US;q=0.8")
		require.NoError(t, err)

		assert.Equal(t, model.AccountStatusPending, account.Status)
		assert.Equal(t, "Alex", account.Name)
		assert.Equal(t, "ja-JP", account.InterfaceLanguage)
		assert.Nil(t, account.InitializedAt)

		var integrate model.AccountIntegrate
		require.NoError(t, db.Where("provider = ? AND open_id = ?", "casdoor", "cd-1").First(&integrate).Error)
		assert.Equal(t, account.ID, integrate.AccountID)
	})

	t.Run("defaults the display name", func(t *testing.T) {
		db := newTestDB(t)
		accounts := NewAccountService(db, newTestFeatures(true, true, false), frozenList{}, zap.NewNop())

		account, err := accounts.Provision("github", &oauth.UserInfo{
			ID:    "gh-2",
			Email: "noname@example.com",
		}, "")
		require.NoError(t, err)
		assert.Equal(t, defaultAccountName, account.Name)
		assert.Equal(t, "en-US", account.InterfaceLanguage)
	})

	t.Run("refuses when registration disabled", func(t *testing.T) {
		db := newTestDB(t)
		accounts := NewAccountService(db, newTestFeatures(false, true, true), frozenList{}, zap.NewNop())

		_, err := accounts.Provision("github", &oauth.UserInfo{ID: "gh-3", Email: "new@example.com"}, "")
		var registerErr *AccountRegisterError
		require.ErrorAs(t, err, &registerErr)
		assert.Equal(t, registerDisabledMessage, registerErr.Description)
	})

	t.Run("frozen email gets the specific message", func(t *testing.T) {
		db := newTestDB(t)
		frozen := frozenList{"frozen@example.com": true}
		accounts := NewAccountService(db, newTestFeatures(false, true, true), frozen, zap.NewNop())

		_, err := accounts.Provision("github", &oauth.UserInfo{ID: "gh-4", Email: "frozen@example.com"}, "")
		var registerErr *AccountRegisterError
		require.ErrorAs(t, err, &registerErr)
		assert.Equal(t, registerFrozenMessage, registerErr.Description)
	})

	t.Run("freeze list ignored when billing disabled", func(t *testing.T) {
		db := newTestDB(t)
		frozen := frozenList{"frozen@example.com": true}
		accounts := NewAccountService(db, newTestFeatures(false, true, false), frozen, zap.NewNop())

		_, err := accounts.Provision("github", &oauth.UserInfo{ID: "gh-5", Email: "frozen@example.com"}, "")
		var registerErr *AccountRegisterError
		require.ErrorAs(t, err, &registerErr)
		assert.Equal(t, registerDisabledMessage, registerErr.Description)
	})
}

func TestLinkIntegrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountService(db, newTestFeatures(true, true, false), frozenList{}, zap.NewNop())
	account := newTestAccount(t, db, "link@example.com")

	require.NoError(t, accounts.LinkIntegrate("github", "gh-7", account))
	require.NoError(t, accounts.LinkIntegrate("github", "gh-7", account))

	assert.EqualValues(t, 1, countRows(t, db, &model.AccountIntegrate{}))
}

func TestActivate(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountService(db, newTestFeatures(true, true, false), frozenList{}, zap.NewNop())

	account := &model.Account{
		Name:   "Pending User",
		Email:  "pending@example.com",
		Status: model.AccountStatusPending,
	}
	require.NoError(t, db.Create(account).Error)

	require.NoError(t, accounts.Activate(account))
	assert.Equal(t, model.AccountStatusActive, account.Status)
	require.NotNil(t, account.InitializedAt)
	firstActivation := *account.InitializedAt

	// A second login must not re-trigger activation
	require.NoError(t, accounts.Activate(account))
	assert.Equal(t, firstActivation, *account.InitializedAt)

	var stored model.Account
	require.NoError(t, db.First(&stored, account.ID).Error)
	assert.Equal(t, model.AccountStatusActive, stored.Status)
	require.NotNil(t, stored.InitializedAt)
}

func TestPasswordRoundTrip(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountService(db, newTestFeatures(true, true, false), frozenList{}, zap.NewNop())
	account := newTestAccount(t, db, "pw@example.com")

	assert.False(t, accounts.VerifyPassword(account, "secret"))

	require.NoError(t, accounts.SetPassword(account, "secret"))
	assert.True(t, accounts.VerifyPassword(account, "secret"))
	assert.False(t, accounts.VerifyPassword(account, "wrong"))
}

func TestLoginIssuesTokenTriple(t *testing.T) {
	db := newTestDB(t)
	features := newTestFeatures(true, true, false)
	accounts := NewAccountService(db, features, frozenList{}, zap.NewNop())
	tenants := NewTenantService(db, features, zap.NewNop())

	account := newTestAccount(t, db, "login@example.com")
	tenant, err := tenants.CreateTenant("Workspace")
	require.NoError(t, err)
	require.NoError(t, tenants.CreateTenantMember(tenant, account, model.TenantRoleOwner))
	require.NoError(t, tenants.SetCurrentTenant(account, tenant))

	pair, err := accounts.Login(account, "203.0.113.7")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEmpty(t, pair.CSRFToken)
	assert.NotEqual(t, pair.RefreshToken, pair.CSRFToken)
}
