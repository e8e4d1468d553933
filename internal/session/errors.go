package session

import "errors"

var (
	ErrNoProfile          = errors.New("no browser profile on request")
	ErrAdminDisabled      = errors.New("admin sign-in is not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
