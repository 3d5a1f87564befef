package jwtutil

import (
	"time"

	"console-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

var (
	secret     = []byte("secret-key")
	expiration = time.Hour * 24
)

// Initialize configures the signing key and token lifetime
func Initialize(cfg *config.JWTConfig) {
	if cfg.SigningKey != "" {
		secret = []byte(cfg.SigningKey)
	}
	if cfg.ExpirationHours > 0 {
		expiration = time.Duration(cfg.ExpirationHours) * time.Hour
	}
}

// AccountClaims represents the JWT claims for console authentication
type AccountClaims struct {
	Email      string `json:"email"`
	AccountID  uint   `json:"account_id"`
	TenantID   *uint  `json:"tenant_id,omitempty"`   // Current tenant, when selected
	TenantName string `json:"tenant_name,omitempty"` // Adding tenant name for convenience
	Role       string `json:"role,omitempty"`        // Account's role in the current tenant
	jwt.RegisteredClaims
}

// GenerateToken creates a JWT access token with account information
func GenerateToken(email string, accountID uint) (string, error) {
	return GenerateTokenWithTenant(email, accountID, nil, "", "")
}

// GenerateTokenWithTenant creates a JWT access token with account and tenant information
func GenerateTokenWithTenant(email string, accountID uint, tenantID *uint, tenantName string, role string) (string, error) {
	claims := AccountClaims{
		Email:      email,
		AccountID:  accountID,
		TenantID:   tenantID,
		TenantName: tenantName,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*AccountClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccountClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AccountClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
