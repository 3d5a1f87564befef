package service

import (
	"errors"
	"time"

	"console-service/internal/model"
	"console-service/internal/oauth"
	"console-service/pkg/jwtutil"
	"console-service/prometheus"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Default display name when the OAuth provider supplies none
const defaultAccountName = "Dify"

// TokenPair is the session token triple handed to the response transport
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	CSRFToken    string
}

// AccountService resolves external OAuth identities to accounts, provisions
// new accounts and issues sessions. Feature flags and the billing freeze
// list are injected collaborators.
type AccountService struct {
	db      *gorm.DB
	feature *FeatureService
	billing FreezeChecker
	log     *zap.Logger
}

// NewAccountService creates an account service
func NewAccountService(db *gorm.DB, feature *FeatureService, billing FreezeChecker, log *zap.Logger) *AccountService {
	return &AccountService{db: db, feature: feature, billing: billing, log: log}
}

// GetByID loads an account by its primary key
func (s *AccountService) GetByID(id uint) (*model.Account, error) {
	var account model.Account
	if err := s.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByOpenIDOrEmail resolves an external identity to an existing account.
// The provider-link index is consulted first; an exact email match is the
// fallback. Returns nil without error when no account matches.
func (s *AccountService) FindByOpenIDOrEmail(provider string, info *oauth.UserInfo) (*model.Account, error) {
	var integrate model.AccountIntegrate
	err := s.db.Where("provider = ? AND open_id = ?", provider, info.ID).First(&integrate).Error
	if err == nil {
		var account model.Account
		if err := s.db.First(&account, integrate.AccountID).Error; err != nil {
			return nil, err
		}
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Email fallback. Email uniqueness is enforced by the schema, so at most
	// one account can match.
	var account model.Account
	err = s.db.Where("email = ?", info.Email).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Provision creates an account for an external identity that has no local
// match. Registration eligibility and the freeze list are checked first.
// The account and its provider link are committed in one transaction.
//
// The caller re-resolving the identity does not guarantee absence under
// concurrent logins; the unique provider-link and email indexes are the
// backstop, and a duplicate-key failure here surfaces to the caller for a
// lookup retry.
func (s *AccountService) Provision(provider string, info *oauth.UserInfo, acceptLanguage string) (*model.Account, error) {
	if !s.feature.IsAllowRegister() {
		if s.feature.IsBillingEnabled() && s.billing.IsEmailInFreeze(info.Email) {
			return nil, &AccountRegisterError{Description: registerFrozenMessage}
		}
		return nil, &AccountRegisterError{Description: registerDisabledMessage}
	}

	name := info.Name
	if name == "" {
		name = defaultAccountName
	}

	account := model.Account{
		Name:              name,
		Email:             info.Email,
		Status:            model.AccountStatusPending,
		InterfaceLanguage: MatchInterfaceLanguage(acceptLanguage),
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		return s.linkIntegrate(tx, provider, info.ID, account.ID)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race with a concurrent login for the same identity; the
		// winner's account is the one to use
		existing, lookupErr := s.FindByOpenIDOrEmail(provider, info)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing != nil {
			return existing, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	prometheus.ProvisionCounter.Inc()
	s.log.Info("Account provisioned from OAuth identity",
		zap.String("provider", provider),
		zap.String("email", account.Email),
		zap.String("interface_language", account.InterfaceLanguage))

	return &account, nil
}

// LinkIntegrate ensures the (provider, open_id) link exists for the account.
// Safe to call on every login.
func (s *AccountService) LinkIntegrate(provider, openID string, account *model.Account) error {
	return s.linkIntegrate(s.db, provider, openID, account.ID)
}

func (s *AccountService) linkIntegrate(tx *gorm.DB, provider, openID string, accountID uint) error {
	integrate := model.AccountIntegrate{
		AccountID: accountID,
		Provider:  provider,
		OpenID:    openID,
	}
	return tx.Where("provider = ? AND open_id = ?", provider, openID).
		FirstOrCreate(&integrate).Error
}

// Activate promotes a pending account to active and stamps the activation
// time. Only the first successful login transitions the account; later
// logins are no-ops.
func (s *AccountService) Activate(account *model.Account) error {
	if account.Status != model.AccountStatusPending {
		return nil
	}

	now := time.Now().UTC()
	account.Status = model.AccountStatusActive
	account.InitializedAt = &now

	defer prometheus.TrackDBOperation("update")(time.Now())
	return s.db.Model(account).Updates(map[string]interface{}{
		"status":         model.AccountStatusActive,
		"initialized_at": now,
	}).Error
}

// SetPassword stores a bcrypt hash of the password on the account. Used by
// the invite-completion flow; OAuth-provisioned accounts have no password.
func (s *AccountService) SetPassword(account *model.Account, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	account.PasswordHash = string(hashed)
	return s.db.Model(account).Update("password_hash", account.PasswordHash).Error
}

// VerifyPassword checks a password against the stored hash
func (s *AccountService) VerifyPassword(account *model.Account, password string) bool {
	if account.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) == nil
}

// Login issues the session token triple for an account. The access token is
// a JWT carrying the current tenant context when one is selected; refresh
// and CSRF tokens are opaque.
func (s *AccountService) Login(account *model.Account, ipAddress string) (*TokenPair, error) {
	var (
		tenantName string
		role       string
	)
	if account.CurrentTenantID != nil {
		var tenant model.Tenant
		if err := s.db.First(&tenant, *account.CurrentTenantID).Error; err == nil {
			tenantName = tenant.Name
		}
		var member model.TenantMember
		if err := s.db.Where("tenant_id = ? AND account_id = ?", *account.CurrentTenantID, account.ID).
			First(&member).Error; err == nil {
			role = member.Role
		}
	}

	accessToken, err := jwtutil.GenerateTokenWithTenant(account.Email, account.ID, account.CurrentTenantID, tenantName, role)
	if err != nil {
		return nil, err
	}

	prometheus.IncreaseActiveSessions()
	s.log.Info("Account logged in",
		zap.String("email", account.Email),
		zap.String("ip", ipAddress))

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: uuid.NewString(),
		CSRFToken:    uuid.NewString(),
	}, nil
}
