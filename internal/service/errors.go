package service

import "errors"

// Sentinel errors recovered by the OAuth callback handler and converted to
// sign-in redirects. None of these should surface as a raw 500.
var (
	ErrAccountNotFound           = errors.New("account not found")
	ErrWorkspaceNotFound         = errors.New("workspace not found")
	ErrWorkspaceNotAllowedCreate = errors.New("workspace creation is not allowed")
)

// AccountRegisterError signals that an account could not be registered. The
// description is shown to the user on the sign-in page, so the frozen-email
// case carries its own message distinct from the generic one.
type AccountRegisterError struct {
	Description string
}

func (e *AccountRegisterError) Error() string {
	return e.Description
}

const (
	registerFrozenMessage = "This email account has been deleted within the past " +
		"30 days and is temporarily unavailable for new account registration"
	registerDisabledMessage = "Invalid email or password"
)
