package service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"console-service/pkg/config"
)

// FreezeChecker reports whether an email address is on the deleted-account
// freeze list and temporarily barred from re-registration
type FreezeChecker interface {
	IsEmailInFreeze(email string) bool
}

// BillingService is the HTTP client for the billing backend's freeze-list
// endpoint. Lookups are best-effort: any transport or decode failure is
// treated as "not frozen" so billing outages never block registration.
type BillingService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewBillingService creates a billing service client from configuration
func NewBillingService(cfg config.BillingConfig) *BillingService {
	return &BillingService{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// IsEmailInFreeze checks the freeze list for the given email
func (s *BillingService) IsEmailInFreeze(email string) bool {
	if s.baseURL == "" {
		return false
	}

	reqURL := fmt.Sprintf("%s/account/in-freeze?email=%s", s.baseURL, url.QueryEscape(email))
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return false
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false
	}

	var result struct {
		Data bool `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return false
	}

	return result.Data
}
