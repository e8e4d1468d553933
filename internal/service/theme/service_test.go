package theme

import (
	"context"
	"testing"

	"github.com/kirinyoku/tix-storefront/internal/domain"
	"github.com/kirinyoku/tix-storefront/internal/repository/memory"
	"github.com/kirinyoku/tix-storefront/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemePerProfile(t *testing.T) {
	s := New(memory.New())
	p1 := session.WithProfile(context.Background(), "p1")
	p2 := session.WithProfile(context.Background(), "p2")

	got, err := s.Get(p1)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, got)

	require.NoError(t, s.Set(p1, domain.ThemeDark))

	got, err = s.Get(p1)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, got)

	got, err = s.Get(p2)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, got)
}

func TestSetRejectsUnknownTheme(t *testing.T) {
	s := New(memory.New())

	err := s.Set(session.WithProfile(context.Background(), "p1"), "sepia")
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = s.Set(context.Background(), domain.ThemeDark)
	assert.ErrorIs(t, err, session.ErrNoProfile)
}
