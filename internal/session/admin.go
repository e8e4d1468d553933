package session

import (
	"context"
	"crypto/subtle"
	"strings"
)

// AdminVerifier checks admin credentials. There is no backend endpoint for
// admin sign-in, so the only implementation is a configured placeholder.
type AdminVerifier interface {
	Verify(ctx context.Context, email, password string) error
}

// StaticAdminVerifier accepts one configured email/password pair.
type StaticAdminVerifier struct {
	Email    string
	Password string
}

// NewStaticAdminVerifier returns nil unless both values are set, which
// leaves admin sign-in disabled.
func NewStaticAdminVerifier(email, password string) *StaticAdminVerifier {
	if email == "" || password == "" {
		return nil
	}
	return &StaticAdminVerifier{Email: email, Password: password}
}

func (v *StaticAdminVerifier) Verify(_ context.Context, email, password string) error {
	emailOK := subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(strings.TrimSpace(email))),
		[]byte(strings.ToLower(v.Email)),
	)
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(v.Password))

	if emailOK&passOK != 1 {
		return ErrInvalidCredentials
	}
	return nil
}
