package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"console-service/internal/model"
	"console-service/internal/oauth"
	"console-service/internal/service"
	"console-service/pkg/config"
	"console-service/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testConsoleWebURL = "http://console.example.com"

// fakeProvider is an in-memory oauth.Provider for handler tests
type fakeProvider struct {
	userInfo *oauth.UserInfo
	err      error
}

func (f *fakeProvider) GetAuthorizationURL(state string) string {
	return "https://auth.example.com/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeProvider) GetAccessToken(code string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "access-token", nil
}

func (f *fakeProvider) GetUserInfo(token string) (*oauth.UserInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.userInfo, nil
}

type testEnv struct {
	db       *gorm.DB
	echo     *echo.Echo
	provider *fakeProvider
}

func newTestEnv(t *testing.T, features config.FeatureConfig) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	log := zap.NewNop()
	featureSvc := service.NewFeatureService(features)
	accounts := service.NewAccountService(db, featureSvc, frozenList{}, log)
	tenants := service.NewTenantService(db, featureSvc, log)
	orgSync := service.NewOrgSyncService(db, tenants, log)
	invites := service.NewInviteService(db)

	provider := &fakeProvider{
		userInfo: &oauth.UserInfo{
			ID:    "ext-1",
			Name:  "Casey",
			Email: "casey@example.com",
		},
	}

	h := NewOAuthHandler(
		map[string]oauth.Provider{"casdoor": provider},
		accounts, tenants, orgSync, invites, testConsoleWebURL,
	)

	e := echo.New()
	e.GET("/console/api/oauth/login/:provider", h.Login)
	e.GET("/console/api/oauth/authorize/:provider", h.Authorize)

	return &testEnv{db: db, echo: e, provider: provider}
}

type frozenList map[string]bool

func (f frozenList) IsEmailInFreeze(email string) bool { return f[email] }

func allowAll() config.FeatureConfig {
	return config.FeatureConfig{AllowRegister: true, AllowCreateWorkspace: true}
}

func (env *testEnv) get(target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func signinMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	require.Equal(t, http.StatusFound, rec.Code)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/signin", location.Path)
	return location.Query().Get("message")
}

func TestLoginRedirectsToProvider(t *testing.T) {
	env := newTestEnv(t, allowAll())

	rec := env.get("/console/api/oauth/login/casdoor?invite_token=tok-1")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://auth.example.com/authorize?state=tok-1", rec.Header().Get("Location"))
}

func TestLoginUnknownProvider(t *testing.T) {
	env := newTestEnv(t, allowAll())

	rec := env.get("/console/api/oauth/login/unknown")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthorizeUnknownProvider(t *testing.T) {
	env := newTestEnv(t, allowAll())

	rec := env.get("/console/api/oauth/authorize/unknown?code=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthorizeMissingCode(t *testing.T) {
	env := newTestEnv(t, allowAll())

	rec := env.get("/console/api/oauth/authorize/casdoor")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthorizeProviderExchangeFailure(t *testing.T) {
	env := newTestEnv(t, allowAll())
	env.provider.err = errors.New("connection refused")

	rec := env.get("/console/api/oauth/authorize/casdoor?code=abc")
	assert.Equal(t, "OAuth process failed", signinMessage(t, rec))

	// No partial state committed
	var count int64
	require.NoError(t, env.db.Model(&model.Account{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuthorizeProvisionsNewAccount(t *testing.T) {
	env := newTestEnv(t, allowAll())
	env.provider.userInfo.Organizations = []string{"acme/dept-team"}

	rec := env.get("/console/api/oauth/authorize/casdoor?code=abc")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, testConsoleWebURL, rec.Header().Get("Location"))

	// Session cookies set
	cookies := map[string]string{}
	for _, cookie := range rec.Result().Cookies() {
		cookies[cookie.Name] = cookie.Value
	}
	assert.NotEmpty(t, cookies["access_token"])
	assert.NotEmpty(t, cookies["refresh_token"])
	assert.NotEmpty(t, cookies["csrf_token"])

	// Account provisioned and activated on first login
	var account model.Account
	require.NoError(t, env.db.Where("email = ?", "casey@example.com").First(&account).Error)
	assert.Equal(t, model.AccountStatusActive, account.Status)
	require.NotNil(t, account.InitializedAt)

	// Personal workspace plus the three hierarchy levels
	var tenantCount int64
	require.NoError(t, env.db.Model(&model.Tenant{}).Count(&tenantCount).Error)
	assert.EqualValues(t, 4, tenantCount)

	var memberCount int64
	require.NoError(t, env.db.Model(&model.TenantMember{}).Count(&memberCount).Error)
	assert.EqualValues(t, 4, memberCount)
}

func TestAuthorizeActivatesPendingAccountOnce(t *testing.T) {
	env := newTestEnv(t, allowAll())

	account := model.Account{
		Name:   "Pending",
		Email:  "casey@example.com",
		Status: model.AccountStatusPending,
	}
	require.NoError(t, env.db.Create(&account).Error)

	rec := env.get("/console/api/oauth/authorize/casdoor?code=abc")
	require.Equal(t, http.StatusFound, rec.Code)

	var stored model.Account
	require.NoError(t, env.db.First(&stored, account.ID).Error)
	assert.Equal(t, model.AccountStatusActive, stored.Status)
	require.NotNil(t, stored.InitializedAt)
	firstActivation := *stored.InitializedAt

	time.Sleep(10 * time.Millisecond)
	rec = env.get("/console/api/oauth/authorize/casdoor?code=abc")
	require.Equal(t, http.StatusFound, rec.Code)

	require.NoError(t, env.db.First(&stored, account.ID).Error)
	require.NotNil(t, stored.InitializedAt)
	assert.Equal(t, firstActivation.Unix(), stored.InitializedAt.Unix())
}

func TestAuthorizeRejectsBannedBeforeTenantWork(t *testing.T) {
	env := newTestEnv(t, allowAll())
	env.provider.userInfo.Organizations = []string{"acme/dept"}

	require.NoError(t, env.db.Create(&model.Account{
		Name:   "Banned",
		Email:  "casey@example.com",
		Status: model.AccountStatusBanned,
	}).Error)

	rec := env.get("/console/api/oauth/authorize/casdoor?code=abc")
	assert.Equal(t, "Account is banned.", signinMessage(t, rec))

	// No tenant-hierarchy work ran
	var count int64
	require.NoError(t, env.db.Model(&model.Tenant{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuthorizeRegistrationDisabled(t *testing.T) {
	env := newTestEnv(t, config.FeatureConfig{AllowRegister: false, AllowCreateWorkspace: true})

	rec := env.get("/console/api/oauth/authorize/casdoor?code=abc")
	assert.Equal(t, "Invalid email or password", signinMessage(t, rec))
}

func TestAuthorizeWorkspaceCreationDisabled(t *testing.T) {
	env := newTestEnv(t, config.FeatureConfig{AllowRegister: true, AllowCreateWorkspace: false})

	rec := env.get("/console/api/oauth/authorize/casdoor?code=abc")
	message := signinMessage(t, rec)
	assert.Contains(t, message, "Workspace not found")
}

func TestAuthorizeInviteMismatch(t *testing.T) {
	env := newTestEnv(t, allowAll())
	require.NoError(t, env.db.Create(&model.Invitation{
		Token:     "invite-1",
		Email:     "someoneelse@example.com",
		TenantID:  1,
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	rec := env.get("/console/api/oauth/authorize/casdoor?code=abc&state=invite-1")
	assert.Equal(t, "Invalid invitation token.", signinMessage(t, rec))

	// The mismatch creates neither accounts nor tenants
	var accounts, tenants int64
	require.NoError(t, env.db.Model(&model.Account{}).Count(&accounts).Error)
	require.NoError(t, env.db.Model(&model.Tenant{}).Count(&tenants).Error)
	assert.Zero(t, accounts)
	assert.Zero(t, tenants)
}

func TestAuthorizeInviteShortCircuits(t *testing.T) {
	env := newTestEnv(t, allowAll())
	require.NoError(t, env.db.Create(&model.Invitation{
		Token:     "invite-2",
		Email:     "casey@example.com",
		TenantID:  1,
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	rec := env.get("/console/api/oauth/authorize/casdoor?code=abc&state=invite-2")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t,
		testConsoleWebURL+"/signin/invite-settings?invite_token=invite-2",
		rec.Header().Get("Location"))
}

func TestAuthorizeExpiredInviteFallsThrough(t *testing.T) {
	env := newTestEnv(t, allowAll())
	require.NoError(t, env.db.Create(&model.Invitation{
		Token:     "invite-3",
		Email:     "casey@example.com",
		TenantID:  1,
		ExpiresAt: time.Now().Add(-time.Hour),
	}).Error)

	// An expired invite token is ignored and the normal flow continues
	rec := env.get("/console/api/oauth/authorize/casdoor?code=abc&state=invite-3")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, testConsoleWebURL, rec.Header().Get("Location"))
}
