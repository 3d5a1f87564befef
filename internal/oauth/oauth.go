package oauth

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// UserInfo represents the external identity returned by an OAuth provider
type UserInfo struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Organizations []string `json:"organizations,omitempty"` // Organization path strings, e.g. "acme/dept-team"
}

// Provider is the contract every OAuth provider client implements
type Provider interface {
	// GetAuthorizationURL returns the provider URL to redirect the browser to.
	// The state value is round-tripped through the provider and carries the
	// optional invite token.
	GetAuthorizationURL(state string) string

	// GetAccessToken exchanges the authorization code for an access token
	GetAccessToken(code string) (string, error)

	// GetUserInfo fetches the external identity for an access token
	GetUserInfo(token string) (*UserInfo, error)
}

// ExchangeError represents a failed HTTP exchange with a provider
type ExchangeError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oauth exchange with %s failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("oauth exchange with %s failed: %d %s", e.Provider, e.StatusCode, e.Body)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// newHTTPClient returns the HTTP client shared by provider implementations
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// decodeResponse reads the body and decodes JSON, converting non-2xx statuses
// into an ExchangeError
func decodeResponse(provider string, resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ExchangeError{Provider: provider, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ExchangeError{Provider: provider, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ExchangeError{Provider: provider, Err: err}
	}

	return nil
}
