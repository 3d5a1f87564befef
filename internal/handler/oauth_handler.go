package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"console-service/internal/model"
	"console-service/internal/oauth"
	"console-service/internal/service"
	"console-service/pkg/logger"
	"console-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Sign-in page messages for the failure redirects
const (
	msgProviderFailed    = "OAuth process failed"
	msgInvalidInvite     = "Invalid invitation token."
	msgAccountNotFound   = "Account not found."
	msgAccountBanned     = "Account is banned."
	msgWorkspaceNotFound = "Workspace not found, please contact system admin to invite you to join in a workspace."
)

// OAuthHandler drives the OAuth login and callback flow
type OAuthHandler struct {
	providers     map[string]oauth.Provider
	accounts      *service.AccountService
	tenants       *service.TenantService
	orgSync       *service.OrgSyncService
	invites       *service.InviteService
	consoleWebURL string
}

// NewOAuthHandler creates the OAuth handler
func NewOAuthHandler(
	providers map[string]oauth.Provider,
	accounts *service.AccountService,
	tenants *service.TenantService,
	orgSync *service.OrgSyncService,
	invites *service.InviteService,
	consoleWebURL string,
) *OAuthHandler {
	return &OAuthHandler{
		providers:     providers,
		accounts:      accounts,
		tenants:       tenants,
		orgSync:       orgSync,
		invites:       invites,
		consoleWebURL: consoleWebURL,
	}
}

// Login redirects the browser to the provider's authorization URL.
// An optional invite_token query parameter is round-tripped as OAuth state.
func (h *OAuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)

	providerName := c.Param("provider")
	provider, ok := h.providers[providerName]
	if !ok {
		log.Error("Unknown OAuth provider requested", zap.String("provider", providerName))
		prometheus.RecordAuthError("invalid_provider")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid provider"})
	}

	prometheus.RecordOAuthLogin(providerName)

	inviteToken := c.QueryParam("invite_token")
	return c.Redirect(http.StatusFound, provider.GetAuthorizationURL(inviteToken))
}

// Authorize handles the provider callback: it exchanges the code, resolves
// or provisions the account, gates on account status, guarantees a
// workspace, syncs the organization hierarchy and issues the session.
// Every flow failure redirects to the sign-in page with a message; only
// unexpected persistence failures surface as 500s.
func (h *OAuthHandler) Authorize(c echo.Context) error {
	log := logger.FromContext(c)

	providerName := c.Param("provider")
	provider, ok := h.providers[providerName]
	if !ok {
		log.Error("Unknown OAuth provider on callback", zap.String("provider", providerName))
		prometheus.RecordAuthError("invalid_provider")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid provider"})
	}

	prometheus.RecordOAuthCallback(providerName)

	code := c.QueryParam("code")
	if code == "" {
		prometheus.RecordAuthError("missing_code")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "authorization code is required"})
	}
	inviteToken := c.QueryParam("state")

	// Exchange the code and fetch the external identity
	defer prometheus.TrackProviderExchange(providerName)(time.Now())
	token, err := provider.GetAccessToken(code)
	var userInfo *oauth.UserInfo
	if err == nil {
		userInfo, err = provider.GetUserInfo(token)
	}
	if err != nil {
		log.Error("OAuth exchange with provider failed",
			zap.String("provider", providerName),
			zap.Error(err))
		prometheus.RecordAuthError("provider_exchange_failed")
		return h.redirectSignin(c, msgProviderFailed)
	}

	// A valid invitation short-circuits to the invite-completion page; the
	// invitation's bound email must match the external identity's email.
	if inviteToken != "" && h.invites.IsValidInviteToken(inviteToken) {
		invitation := h.invites.GetInvitationByToken(inviteToken)
		if invitation != nil && invitation.Email != userInfo.Email {
			prometheus.RecordAuthError("invite_email_mismatch")
			return h.redirectSignin(c, msgInvalidInvite)
		}
		return c.Redirect(http.StatusFound,
			fmt.Sprintf("%s/signin/invite-settings?invite_token=%s", h.consoleWebURL, url.QueryEscape(inviteToken)))
	}

	account, err := h.resolveAccount(c, providerName, userInfo)
	if err != nil {
		var registerErr *service.AccountRegisterError
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			prometheus.RecordAuthError("account_not_found")
			return h.redirectSignin(c, msgAccountNotFound)
		case errors.As(err, &registerErr):
			prometheus.RecordAuthError("register_refused")
			return h.redirectSignin(c, registerErr.Description)
		default:
			log.Error("Account resolution failed", zap.Error(err))
			prometheus.RecordAuthError("db_error")
			return err
		}
	}

	// Account status gate: banned accounts never reach tenant work
	if account.Status == model.AccountStatusBanned {
		log.Info("Banned account refused", zap.String("email", account.Email))
		prometheus.RecordAuthError("account_banned")
		return h.redirectSignin(c, msgAccountBanned)
	}
	if err := h.accounts.Activate(account); err != nil {
		log.Error("Failed to activate account", zap.Error(err))
		return err
	}

	// Guarantee at least one workspace membership
	if err := h.tenants.EnsureDefaultWorkspace(account); err != nil {
		switch {
		case errors.Is(err, service.ErrWorkspaceNotAllowedCreate), errors.Is(err, service.ErrWorkspaceNotFound):
			prometheus.RecordAuthError("workspace_refused")
			return h.redirectSignin(c, msgWorkspaceNotFound)
		default:
			log.Error("Failed to ensure workspace", zap.Error(err))
			return err
		}
	}

	// Organization hierarchy sync is best-effort: a failure is surfaced to
	// observability but never blocks the login
	if err := h.orgSync.Sync(account, userInfo.Organizations); err != nil {
		log.Error("Organization hierarchy sync failed",
			zap.String("email", account.Email),
			zap.Error(err))
		prometheus.RecordOrgSync("error")
	} else {
		prometheus.RecordOrgSync("ok")
	}

	pair, err := h.accounts.Login(account, c.RealIP())
	if err != nil {
		log.Error("Failed to issue session", zap.Error(err))
		return err
	}

	setTokenCookies(c, pair)
	return c.Redirect(http.StatusFound, h.consoleWebURL)
}

// resolveAccount finds the account for the external identity, provisioning a
// new one when no match exists, and ensures the provider link either way
func (h *OAuthHandler) resolveAccount(c echo.Context, providerName string, userInfo *oauth.UserInfo) (*model.Account, error) {
	account, err := h.accounts.FindByOpenIDOrEmail(providerName, userInfo)
	if err != nil {
		return nil, err
	}

	if account == nil {
		account, err = h.accounts.Provision(providerName, userInfo, c.Request().Header.Get("Accept-Language"))
		if err != nil {
			return nil, err
		}
		return account, nil
	}

	if err := h.accounts.LinkIntegrate(providerName, userInfo.ID, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (h *OAuthHandler) redirectSignin(c echo.Context, message string) error {
	return c.Redirect(http.StatusFound,
		fmt.Sprintf("%s/signin?message=%s", h.consoleWebURL, url.QueryEscape(message)))
}

// setTokenCookies hands the session token triple to the response transport.
// The CSRF token is readable by the frontend; the other two are not.
func setTokenCookies(c echo.Context, pair *service.TokenPair) {
	c.SetCookie(&http.Cookie{
		Name:     "access_token",
		Value:    pair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.SetCookie(&http.Cookie{
		Name:     "refresh_token",
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.SetCookie(&http.Cookie{
		Name:     "csrf_token",
		Value:    pair.CSRFToken,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
}
