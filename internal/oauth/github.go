package oauth

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// GitHubOAuth is the OAuth client for github.com
type GitHubOAuth struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	HTTPClient   *http.Client
}

// NewGitHubOAuth creates a GitHub OAuth client
func NewGitHubOAuth(clientID, clientSecret, redirectURI, authURL, tokenURL, userInfoURL string) *GitHubOAuth {
	return &GitHubOAuth{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		AuthURL:      authURL,
		TokenURL:     tokenURL,
		UserInfoURL:  userInfoURL,
		HTTPClient:   newHTTPClient(),
	}
}

// GetAuthorizationURL returns the GitHub authorization URL
func (o *GitHubOAuth) GetAuthorizationURL(state string) string {
	params := url.Values{}
	params.Set("client_id", o.ClientID)
	params.Set("redirect_uri", o.RedirectURI)
	params.Set("scope", "user:email")
	if state != "" {
		params.Set("state", state)
	}
	return o.AuthURL + "?" + params.Encode()
}

// GetAccessToken exchanges the authorization code for an access token
func (o *GitHubOAuth) GetAccessToken(code string) (string, error) {
	data := url.Values{}
	data.Set("client_id", o.ClientID)
	data.Set("client_secret", o.ClientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", o.RedirectURI)

	req, err := http.NewRequest(http.MethodPost, o.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", &ExchangeError{Provider: "github", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return "", &ExchangeError{Provider: "github", Err: err}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	if err := decodeResponse("github", resp, &tokenResp); err != nil {
		return "", err
	}
	if tokenResp.AccessToken == "" {
		return "", &ExchangeError{Provider: "github", Body: tokenResp.Error}
	}

	return tokenResp.AccessToken, nil
}

// GetUserInfo fetches the GitHub user profile, falling back to the primary
// address from the emails endpoint when the profile email is private
func (o *GitHubOAuth) GetUserInfo(token string) (*UserInfo, error) {
	var raw struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := o.get(o.UserInfoURL, token, &raw); err != nil {
		return nil, err
	}

	email := raw.Email
	if email == "" {
		var emails []struct {
			Email   string `json:"email"`
			Primary bool   `json:"primary"`
		}
		if err := o.get(o.UserInfoURL+"/emails", token, &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Primary {
				email = e.Email
				break
			}
		}
	}
	if email == "" {
		// GitHub lets users hide all addresses; fall back to the noreply alias
		email = fmt.Sprintf("%d+%s@users.noreply.github.com", raw.ID, raw.Login)
	}

	name := raw.Name
	if name == "" {
		name = raw.Login
	}

	return &UserInfo{
		ID:    strconv.FormatInt(raw.ID, 10),
		Name:  name,
		Email: email,
	}, nil
}

func (o *GitHubOAuth) get(rawURL, token string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return &ExchangeError{Provider: "github", Err: err}
	}
	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return &ExchangeError{Provider: "github", Err: err}
	}

	return decodeResponse("github", resp, out)
}
