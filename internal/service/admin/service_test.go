package admin

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kirinyoku/tix-storefront/internal/domain"
	"github.com/kirinyoku/tix-storefront/internal/repository"
	"github.com/kirinyoku/tix-storefront/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	s := New(store, nil)
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return s, store
}

func TestAddLocationDoesNotDuplicate(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Add(ctx, Locations, "Recife")
	require.NoError(t, err)
	_, err = s.Add(ctx, Locations, "Curitiba")
	require.NoError(t, err)
	got, err := s.Add(ctx, Locations, "  Recife ")
	require.NoError(t, err)

	assert.Equal(t, []string{"Recife", "Curitiba"}, got)

	stored, err := s.List(ctx, Locations)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestAddRejectsBlank(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Add(context.Background(), Categories, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRemove(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	for _, v := range []string{"Música", "Teatro", "Cinema"} {
		_, err := s.Add(ctx, HiddenCategories, v)
		require.NoError(t, err)
	}

	got, err := s.Remove(ctx, HiddenCategories, "Teatro")
	require.NoError(t, err)
	assert.Equal(t, []string{"Música", "Cinema"}, got)

	got, err = s.Remove(ctx, HiddenCategories, "absent")
	require.NoError(t, err)
	assert.Equal(t, []string{"Música", "Cinema"}, got)
}

func TestListUnsetIsEmpty(t *testing.T) {
	s, _ := newTestService(t)

	got, err := s.List(context.Background(), HiddenLocations)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)
}

func TestParseCollection(t *testing.T) {
	c, err := ParseCollection("hiddenLocations")
	require.NoError(t, err)
	assert.Equal(t, HiddenLocations, c)

	_, err = ParseCollection("venues")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestVisibleFiltersDefaultsAreWritten(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	got, err := s.VisibleFilters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "category", "dateRange"}, got)

	raw, ok, err := store.Get(ctx, repository.GlobalKey(repository.KeyAdminVisibleFilters))
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["city","category","dateRange"]`, raw)
}

func TestVisibleFiltersMigratesLegacyInKeyOrder(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	legacyKey := repository.GlobalKey(repository.KeyAdminFiltersEnabled)
	require.NoError(t, store.Set(ctx, legacyKey, `{"dateRange":true,"city":false,"category":1}`))

	got, err := s.VisibleFilters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dateRange", "category"}, got)

	// the legacy value is left in place
	_, ok, err := store.Get(ctx, legacyKey)
	require.NoError(t, err)
	assert.True(t, ok)

	// later changes to the legacy value no longer matter
	require.NoError(t, store.Set(ctx, legacyKey, `{"city":true}`))
	got, err = s.VisibleFilters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dateRange", "category"}, got)
}

func TestVisibleFiltersBrokenLegacyFallsBack(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, repository.GlobalKey(repository.KeyAdminFiltersEnabled), `["city"`))

	got, err := s.VisibleFilters(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultVisibleFilters(), got)
}

func TestAddVisibleFilterChecksKey(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Remove(ctx, VisibleFilters, "city")
	require.NoError(t, err)

	_, err = s.Add(ctx, VisibleFilters, "price")
	assert.ErrorIs(t, err, ErrUnknownFilter)

	got, err := s.Add(ctx, VisibleFilters, "city")
	require.NoError(t, err)
	assert.Equal(t, []string{"category", "dateRange", "city"}, got)
}

func TestEnabledInOrder(t *testing.T) {
	got, err := enabledInOrder(`{"a":true,"b":"","c":"yes","d":null,"e":0,"f":{}}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "f"}, got)

	_, err = enabledInOrder(`[1,2]`)
	assert.Error(t, err)
}

func TestEventsAddRemove(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.AddEvent(ctx, domain.CreateEventRequest{Name: "Sem local"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	e, err := s.AddEvent(ctx, domain.CreateEventRequest{
		Name:        "Feira",
		Location:    "Olinda, PE",
		DateTime:    time.Date(2026, 12, 1, 10, 0, 0, 0, time.UTC),
		TicketTypes: []domain.TicketTypeInput{{Name: "Geral", QuantityTotal: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", e.ID)
	assert.Equal(t, domain.DefaultCategory, e.Category)
	require.Len(t, e.TicketTypes, 1)
	assert.Equal(t, "id-1", e.TicketTypes[0].EventID)

	events, err := s.Events(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	require.NoError(t, s.RemoveEvent(ctx, "id-1"))
	assert.ErrorIs(t, s.RemoveEvent(ctx, "id-1"), ErrEventNotFound)
}

func TestOrganizers(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, s.RecordOrganizer(ctx, domain.Organizer{Email: "ana@example.com"}))
	require.NoError(t, s.RecordOrganizer(ctx, domain.Organizer{Name: "Ana", Email: "ANA@example.com"}))
	require.NoError(t, s.RecordOrganizer(ctx, domain.Organizer{Name: "Bia", Email: "bia@example.com"}))
	require.NoError(t, s.RecordOrganizer(ctx, domain.Organizer{Name: "Other", Email: "bia@example.com"}))

	list, err := s.Organizers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Organizer{
		{Name: "Ana", Email: "ana@example.com"},
		{Name: "Bia", Email: "bia@example.com"},
	}, list)

	list, err = s.RemoveOrganizer(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, []domain.Organizer{{Name: "Bia", Email: "bia@example.com"}}, list)
}

func TestOverview(t *testing.T) {
	s, store := newTestService(t)
	ctx := context.Background()

	_, err := s.AddEvent(ctx, domain.CreateEventRequest{
		Name: "Feira", Location: "Olinda, PE", Category: "Arte",
		DateTime: time.Date(2026, 12, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, repository.SetJSON(ctx, store, repository.GlobalKey(repository.KeyMyEvents), []domain.Event{
		{ID: "local-1", Location: "Recife, PE", Category: "Arte", OrganizerID: "u1", SyncState: domain.SyncPending},
	}))
	_, err = s.Add(ctx, HiddenLocations, "Recife")
	require.NoError(t, err)

	ov, err := s.Overview(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"Olinda", "Recife"}, ov.DetectedLocations)
	assert.Equal(t, []string{"Arte"}, ov.DetectedCategories)
	assert.Equal(t, []string{"Recife"}, ov.HiddenLocations)
	require.Len(t, ov.Events, 2)
	assert.Equal(t, OriginAdmin, ov.Events[0].Origin)
	assert.Equal(t, OriginOrganizer, ov.Events[1].Origin)
	assert.Equal(t, "local-1", ov.Events[1].ID)
}
