package session

import "context"

type profileKey struct{}

// WithProfile tags ctx with the browser profile that owns the request.
func WithProfile(ctx context.Context, profileID string) context.Context {
	return context.WithValue(ctx, profileKey{}, profileID)
}

func ProfileFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(profileKey{}).(string)
	return id, ok && id != ""
}

func mustProfile(ctx context.Context) (string, error) {
	id, ok := ProfileFrom(ctx)
	if !ok {
		return "", ErrNoProfile
	}
	return id, nil
}
