package session

import (
	"context"

	"github.com/kirinyoku/tix-storefront/internal/repository"
)

// TokenSource reads the stored bearer token of the request's profile. It
// goes to the store on every call, so a logout elsewhere takes effect on
// the next outgoing request.
type TokenSource struct {
	store repository.Store
}

func NewTokenSource(store repository.Store) *TokenSource {
	return &TokenSource{store: store}
}

func (t *TokenSource) Token(ctx context.Context) (string, error) {
	profileID, ok := ProfileFrom(ctx)
	if !ok {
		return "", nil
	}

	return repository.GetJSONOr(ctx, t.store, repository.ProfileKey(profileID, repository.KeyAuthToken), "")
}
