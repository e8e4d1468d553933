package theme

import (
	"context"
	"fmt"

	"github.com/kirinyoku/tix-storefront/internal/domain"
	"github.com/kirinyoku/tix-storefront/internal/repository"
	"github.com/kirinyoku/tix-storefront/internal/session"
)

type Service struct {
	store repository.Store
}

func New(store repository.Store) *Service {
	return &Service{store: store}
}

// Get returns the profile's theme, light when unset or unrecognised.
func (s *Service) Get(ctx context.Context) (domain.Theme, error) {
	const op = "service.theme.Get"

	profileID, ok := session.ProfileFrom(ctx)
	if !ok {
		return domain.ThemeLight, nil
	}

	t, err := repository.GetJSONOr(ctx, s.store, repository.ProfileKey(profileID, repository.KeyTheme), domain.ThemeLight)
	if err != nil {
		return domain.ThemeLight, fmt.Errorf("%s: %w", op, err)
	}
	if !t.Valid() {
		t = domain.ThemeLight
	}

	return t, nil
}

func (s *Service) Set(ctx context.Context, t domain.Theme) error {
	const op = "service.theme.Set"

	profileID, ok := session.ProfileFrom(ctx)
	if !ok {
		return fmt.Errorf("%s: %w", op, session.ErrNoProfile)
	}

	if !t.Valid() {
		return fmt.Errorf("%s: theme must be light or dark: %w", op, domain.ErrValidation)
	}

	if err := repository.SetJSON(ctx, s.store, repository.ProfileKey(profileID, repository.KeyTheme), t); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
